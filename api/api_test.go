package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/fault"
	"github.com/thisisjab/oafilter/querier"
)

type fakeCatalog map[string][]entity.Queryable

func (c fakeCatalog) Queryables(collection string) ([]entity.Queryable, bool) {
	qs, ok := c[collection]
	return qs, ok
}

type memStore map[uuid.UUID]entity.SavedFilter

func (s memStore) Save(_ context.Context, f entity.SavedFilter) error {
	s[f.ID] = f
	return nil
}

func (s memStore) Get(_ context.Context, id uuid.UUID) (entity.SavedFilter, error) {
	f, ok := s[id]
	if !ok {
		return entity.SavedFilter{}, fault.New(fault.NotFoundCode, "saved filter not found")
	}
	return f, nil
}

func (s memStore) List(_ context.Context, collection string, limit int) ([]entity.SavedFilter, error) {
	var res []entity.SavedFilter
	for _, f := range s {
		if f.Collection == collection && len(res) < limit {
			res = append(res, f)
		}
	}
	return res, nil
}

type response struct {
	Success  bool                       `json:"success"`
	Message  string                     `json:"message"`
	Data     map[string]json.RawMessage `json:"data"`
	Metadata map[string]json.RawMessage `json:"metadata"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := fakeCatalog{"lakes": {
		{ID: "name", Type: entity.ValueTypeString},
		{ID: "depth", Type: entity.ValueTypeFloat},
		{ID: "open", Type: entity.ValueTypeBoolean},
	}}

	s, err := NewServer(Config{
		Addr: ":0",
		CORS: CORSConfig{TrustedOrigins: []string{"https://maps.example.com"}},
	}, logger, querier.New(catalog, memStore{}, logger))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return s.routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res response
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("%s %s - cannot decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, res
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("cannot decode %s: %v", raw, err)
	}
	return v
}

func TestNewServerValidatesConfig(t *testing.T) {
	if _, err := NewServer(Config{}, slog.Default(), nil); err == nil {
		t.Fatalf("expected error for missing address")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		cfg   Config
		valid bool
	}{
		{Config{Addr: ":8000"}, true},
		{Config{Addr: ":8443", CertFile: "cert.pem", KeyFile: "key.pem"}, true},
		{Config{}, false},
		{Config{Addr: ":8443", CertFile: "cert.pem"}, false},
		{Config{Addr: ":8000", MaxBodyBytes: -1}, false},
		{Config{Addr: ":8000", ReadTimeout: -time.Second}, false},
	}

	for i, tt := range tests {
		if err := tt.cfg.Validate(); (err == nil) != tt.valid {
			t.Fatalf("#%d - expected valid=%v, got %v", i, tt.valid, err)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	status, res := do(t, newTestServer(t), http.MethodGet, "/api/healthcheck", "")
	if status != http.StatusOK || !res.Success || res.Message != "OK" {
		t.Fatalf("unexpected response %d %+v", status, res)
	}
	if v := decode[string](t, res.Data["status"]); v != "available" {
		t.Fatalf("expected available status, got %q", v)
	}
}

func TestQueryables(t *testing.T) {
	h := newTestServer(t)

	status, res := do(t, h, http.MethodGet, "/api/collections/lakes/queryables", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if qs := decode[[]entity.Queryable](t, res.Data["queryables"]); len(qs) != 3 {
		t.Fatalf("expected 3 queryables, got %+v", qs)
	}

	if status, _ := do(t, h, http.MethodGet, "/api/collections/rivers/queryables", ""); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestOperators(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		path     string
		status   int
		expected int
	}{
		{"/api/collections/lakes/operators", http.StatusOK, 14},
		{"/api/collections/lakes/operators?type=boolean", http.StatusOK, 2},
		{"/api/collections/lakes/operators?type=string", http.StatusOK, 8},
		{"/api/collections/lakes/operators?type=date", http.StatusOK, 8},
		{"/api/collections/lakes/operators?type=geometry", http.StatusUnprocessableEntity, 0},
		{"/api/collections/rivers/operators", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		status, res := do(t, h, http.MethodGet, tt.path, "")
		if status != tt.status {
			t.Fatalf("%s - expected %d, got %d", tt.path, tt.status, status)
		}
		if status != http.StatusOK {
			continue
		}
		if ops := decode[[]entity.Operator](t, res.Data["operators"]); len(ops) != tt.expected {
			t.Fatalf("%s - expected %d operators, got %d", tt.path, tt.expected, len(ops))
		}
	}
}

func TestParseFilter(t *testing.T) {
	h := newTestServer(t)

	status, res := do(t, h, http.MethodPost, "/api/collections/lakes/filters/parse",
		`{"expression": "((name LIKE 'blue%' AND open = true) OR (depth BETWEEN 1 AND 5))"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, res.Message)
	}

	groups := decode[[]entity.FilterGroup](t, res.Data["groups"])
	if len(groups) != 2 || len(groups[0].Predicates) != 2 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if groups[0].Predicates[0].Operator.Name != entity.OperatorBeginsWith {
		t.Fatalf("expected begins_with, got %s", groups[0].Predicates[0].Operator.Name)
	}

	expected := "(((name LIKE 'blue%') AND (open = true)) OR ((depth >= 1 AND depth <= 5)))"
	if expression := decode[string](t, res.Data["expression"]); expression != expected {
		t.Fatalf("expected `%s`, got `%s`", expected, expression)
	}
}

func TestParseFilterSyntaxError(t *testing.T) {
	status, res := do(t, newTestServer(t), http.MethodPost, "/api/collections/lakes/filters/parse",
		`{"expression": "(name = 'x' AND depth > )"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	md := decode[fault.SyntaxMetadata](t, res.Metadata["context"])
	if md.Offset != 24 || md.Expected != "Literal" {
		t.Fatalf("unexpected syntax metadata %+v", md)
	}
}

func TestParseFilterBadBody(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		body   string
		status int
	}{
		{``, http.StatusBadRequest},
		{`{"expression": `, http.StatusBadRequest},
		{`{"expression": 1}`, http.StatusUnprocessableEntity},
		{`{"query": "(a = 1)"}`, http.StatusUnprocessableEntity},
		{`{"expression": "(name = 'x')"} {}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		if status, _ := do(t, h, http.MethodPost, "/api/collections/lakes/filters/parse", tt.body); status != tt.status {
			t.Fatalf("%q - expected %d, got %d", tt.body, tt.status, status)
		}
	}
}

func TestSerializeFilter(t *testing.T) {
	body := `{"groups": [
		{"id": "g1", "oafFilters": [
			{"queryable": {"id": "depth", "type": "float"}, "operator": "not_between", "minValue": 2, "maxValue": 4.5},
			{"queryable": {"id": "name", "type": "string"}, "operator": {"name": "not_contains"}, "value": "mud"}
		]},
		{"id": "g2", "oafFilters": [
			{"queryable": {"id": "depth", "type": "float"}, "operator": "greater", "value": null}
		]}
	]}`

	status, res := do(t, newTestServer(t), http.MethodPost, "/api/collections/lakes/filters/serialize", body)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, res.Message)
	}

	expected := "((NOT(depth >= 2 AND depth <= 4.5) AND NOT(name LIKE '%mud%')))"
	if expression := decode[string](t, res.Data["expression"]); expression != expected {
		t.Fatalf("expected `%s`, got `%s`", expected, expression)
	}

	groups := decode[[]entity.FilterGroup](t, res.Data["groups"])
	if groups[0].Predicates[1].Expression != "NOT(name LIKE '%mud%')" || groups[1].Expression != "" {
		t.Fatalf("expected cached expressions, got %+v", groups)
	}
}

func TestSerializeFilterUnknownQueryable(t *testing.T) {
	body := `{"groups": [{"id": "g1", "oafFilters": [
		{"queryable": {"id": "x) OR (y", "type": "string"}, "operator": "equals", "value": "a"}
	]}]}`

	h := newTestServer(t)

	status, res := do(t, h, http.MethodPost, "/api/collections/lakes/filters/serialize", body)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	fields := decode[fault.FieldErrorsMetadata](t, res.Metadata["fields"])
	if len(fields["groups[0].oafFilters[0].queryable"]) != 1 {
		t.Fatalf("expected a field error for the queryable, got %+v", fields)
	}

	if status, _ := do(t, h, http.MethodPost, "/api/collections/lakes/filters", body); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 when saving, got %d", status)
	}
	if status, _ := do(t, h, http.MethodPost, "/api/collections/rivers/filters/serialize", body); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestSaveAndGetFilter(t *testing.T) {
	h := newTestServer(t)

	body := `{"groups": [{"id": "g1", "oafFilters": [
		{"queryable": {"id": "open", "type": "boolean"}, "operator": "equals", "value": true}
	]}]}`

	status, res := do(t, h, http.MethodPost, "/api/collections/lakes/filters", body)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", status, res.Message)
	}

	saved := decode[entity.SavedFilter](t, res.Data["filter"])
	if saved.Expression != "(((open = true)))" {
		t.Fatalf("unexpected saved filter %+v", saved)
	}

	status, res = do(t, h, http.MethodGet, "/api/filters/"+saved.ID.String(), "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, res.Message)
	}
	groups := decode[[]entity.FilterGroup](t, res.Data["groups"])
	if len(groups) != 1 || groups[0].Predicates[0].Value != true {
		t.Fatalf("unexpected groups %+v", groups)
	}

	status, res = do(t, h, http.MethodGet, "/api/collections/lakes/filters?limit=10", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if filters := decode[[]entity.SavedFilter](t, res.Data["filters"]); len(filters) != 1 {
		t.Fatalf("expected 1 filter, got %+v", filters)
	}

	if status, _ := do(t, h, http.MethodGet, "/api/collections/lakes/filters?limit=abc", ""); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad limit, got %d", status)
	}
	if status, _ := do(t, h, http.MethodGet, "/api/filters/"+uuid.NewString(), ""); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if status, _ := do(t, h, http.MethodGet, "/api/filters/not-a-uuid", ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if status, _ := do(t, h, http.MethodPost, "/api/collections/lakes/filters", `{"groups": []}`); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty filter, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/collections/lakes/filters/serialize", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "https://maps.example.com" {
		t.Fatalf("unexpected allowed origin %q", origin)
	}
}

func TestRecoverPanic(t *testing.T) {
	s := &server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	h := s.recoverPanicMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("Connection") != "close" {
		t.Fatalf("expected connection to be closed")
	}
}

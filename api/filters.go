package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/thisisjab/oafilter/entity"
	"github.com/thisisjab/oafilter/fault"
	"github.com/thisisjab/oafilter/querier/encoder"
)

func (s *server) queryablesHandler(w http.ResponseWriter, r *http.Request) {
	queryables, err := s.filters.Queryables(r.PathValue("collection"))
	if s.returnOnError(w, r, err) {
		return
	}

	s.ok(w, http.StatusOK, envelope{"queryables": queryables}, nil)
}

// operatorsHandler lists the operators a UI offers for a value type, or every operator
// when no type is given.
func (s *server) operatorsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.filters.Queryables(r.PathValue("collection")); s.returnOnError(w, r, err) {
		return
	}

	operators := entity.Operators()
	if v := r.URL.Query().Get("type"); v != "" {
		t := entity.ValueType(v)
		if !t.Valid() {
			s.handleError(w, r, fieldError("type", "Unknown value type."))
			return
		}
		operators = entity.OperatorsFor(t)
	}

	s.ok(w, http.StatusOK, envelope{"operators": operators}, nil)
}

func (s *server) parseFilterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Expression string `json:"expression"`
	}
	if s.returnOnError(w, r, s.decodeBody(w, r, &input)) {
		return
	}

	groups, err := s.filters.Parse(r.PathValue("collection"), input.Expression)
	if s.returnOnError(w, r, err) {
		return
	}

	s.ok(w, http.StatusOK, envelope{
		"groups":     groups,
		"expression": encoder.JoinGroups(groups),
	}, nil)
}

func (s *server) serializeFilterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Groups []entity.FilterGroup `json:"groups"`
	}
	if s.returnOnError(w, r, s.decodeBody(w, r, &input)) {
		return
	}

	if input.Groups == nil {
		input.Groups = []entity.FilterGroup{}
	}
	expression, err := s.filters.Serialize(r.PathValue("collection"), input.Groups)
	if s.returnOnError(w, r, err) {
		return
	}

	s.ok(w, http.StatusOK, envelope{
		"groups":     input.Groups,
		"expression": expression,
	}, nil)
}

func (s *server) saveFilterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Groups []entity.FilterGroup `json:"groups"`
	}
	if s.returnOnError(w, r, s.decodeBody(w, r, &input)) {
		return
	}

	saved, err := s.filters.Save(r.Context(), r.PathValue("collection"), input.Groups)
	if s.returnOnError(w, r, err) {
		return
	}

	headers := http.Header{}
	headers.Set("Location", "/api/filters/"+saved.ID.String())

	s.ok(w, http.StatusCreated, envelope{"filter": saved}, headers)
}

func (s *server) listFiltersHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.handleError(w, r, fieldError("limit", "Must be a positive integer."))
			return
		}
		limit = n
	}

	filters, err := s.filters.List(r.Context(), r.PathValue("collection"), limit)
	if s.returnOnError(w, r, err) {
		return
	}

	if filters == nil {
		filters = []entity.SavedFilter{}
	}

	s.ok(w, http.StatusOK, envelope{"filters": filters}, nil)
}

func (s *server) getFilterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, fault.New(fault.BadInputCode, "Filter id must be a UUID."))
		return
	}

	saved, groups, err := s.filters.Load(r.Context(), id)
	if s.returnOnError(w, r, err) {
		return
	}

	s.ok(w, http.StatusOK, envelope{
		"filter": saved,
		"groups": groups,
	}, nil)
}

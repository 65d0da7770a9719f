package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thisisjab/oafilter/fault"
)

type envelope map[string]any

type apiResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Data     any            `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// decodeBody reads exactly one JSON value from the request body into dst. Unknown
// fields are rejected.
func (s *server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fault.New(fault.BadInputCode, "Body must only contain a single JSON value.")
	}

	return nil
}

// bodyError turns a decoding error into a bad_input fault the client can act on.
func bodyError(err error) error {
	var (
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		invalidErr   *json.InvalidUnmarshalError
		maxBytesErr  *http.MaxBytesError
		unknownField = "json: unknown field "
	)

	switch {
	case errors.Is(err, io.EOF):
		return fault.New(fault.BadInputCode, "Body cannot be empty.")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return fault.New(fault.BadInputCode, "Body contains badly-formed JSON.")
	case errors.As(err, &syntaxErr):
		return fault.New(fault.BadInputCode, fmt.Sprintf("Body contains badly-formed JSON at character %d.", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return fault.New(fault.BadInputCode, fmt.Sprintf("Body contains a wrongly typed value at character %d.", typeErr.Offset))
		}
		return fieldError(typeErr.Field, fmt.Sprintf("Expected type %s.", typeErr.Type))
	case strings.HasPrefix(err.Error(), unknownField):
		return fieldError(strings.Trim(strings.TrimPrefix(err.Error(), unknownField), `"`), "Key is unknown.")
	case errors.As(err, &maxBytesErr):
		return fault.New(fault.BadInputCode, fmt.Sprintf("Body must not be larger than %d bytes.", maxBytesErr.Limit))
	case errors.As(err, &invalidErr):
		panic(err)
	default:
		return err
	}
}

func fieldError(field, message string) error {
	return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
		field: []string{message},
	})
}

// ok writes a successful response carrying data.
func (s *server) ok(w http.ResponseWriter, status int, data envelope, headers http.Header) {
	s.writeJSON(w, status, apiResponse{Success: true, Data: data}, headers)
}

func (s *server) writeJSON(w http.ResponseWriter, status int, res apiResponse, headers http.Header) {
	js, err := json.Marshal(res)
	if err != nil {
		s.logger.Error("failed to encode response", "status", status, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for key, values := range headers {
		w.Header()[key] = values
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(js, '\n')) //nolint:errcheck
}

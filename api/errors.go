package api

import (
	"errors"
	"net/http"

	"github.com/thisisjab/oafilter/fault"
)

// returnOnError writes err as the response and reports whether there was an error.
func (s *server) returnOnError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}

	s.handleError(w, r, err)
	return true
}

// handleError maps a fault to its HTTP status. Anything that is not a known fault is an
// internal error and gets logged.
func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f fault.Fault
	if !errors.As(err, &f) {
		s.internalServerError(w, r, err)
		return
	}

	res := apiResponse{Message: f.Message()}

	var status int
	switch f.Code() {
	case fault.BadInputCode:
		if md, ok := f.Metadata().(fault.FieldErrorsMetadata); ok {
			status = http.StatusUnprocessableEntity
			res.Metadata = map[string]any{"fields": md}
		} else {
			status = http.StatusBadRequest
			res.Metadata = map[string]any{"context": f.Metadata()}
		}

	case fault.NotFoundCode:
		status = http.StatusNotFound
		if res.Message == "" {
			res.Message = "Requested resource not found."
		}
		if f.Metadata() != nil {
			res.Metadata = map[string]any{"context": f.Metadata()}
		}

	case fault.PermissionDeniedCode:
		status = http.StatusForbidden
		if res.Message == "" {
			res.Message = "Permission denied."
		}

	default:
		s.internalServerError(w, r, f)
		return
	}

	s.writeJSON(w, status, res, nil)
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.URL.Path, "remote-addr", r.RemoteAddr, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, apiResponse{Message: "Internal server error"}, nil)
}

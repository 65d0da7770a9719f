package api

import (
	"net/http"
	"time"
)

func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "OK",
		Data: envelope{
			"status": "available",
			"uptime": time.Since(s.started).Truncate(time.Second).String(),
		},
	}, nil)
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/guvenli/messenger/internal/common"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(context.Background(), "response encode failed", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes. Unrecognized
// errors become 500 without leaking internals to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, common.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "invalid or missing token"
	case errors.Is(err, common.ErrUnauthorized):
		status, message = http.StatusForbidden, "access denied"
	case errors.Is(err, common.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrInvalidArgument):
		status, message = http.StatusBadRequest, "invalid argument"
	case errors.Is(err, common.ErrUnsupportedAlgorithm):
		status, message = http.StatusBadRequest, "unsupported encryption type"
	case errors.Is(err, common.ErrMessageTooLong):
		status, message = http.StatusBadRequest, "message too long for this encryption type"
	}

	if status == http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": message})
}

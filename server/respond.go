package server

import (
	"encoding/json"
	"net/http"

	"github.com/jomko/go-session-api/auth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeMessage sends a plain {"message": ...} body.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError maps a service error to the wire taxonomy. Unexpected
// errors are logged with full detail and rendered as a generic 500 body; no
// internal detail crosses the boundary.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *auth.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": validationMessage(validationErr),
			"errors":  validationErr.Fields,
		})
	case errors.Is(err, auth.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
	default:
		log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("unexpected error")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
	}
}

// validationMessage picks the first field message as the body's top-level
// message, the way validation failures read on the wire.
func validationMessage(err *auth.ValidationError) string {
	for _, msgs := range err.Fields {
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return err.Error()
}

// decodeJSON parses a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

package server

import (
	"net/http"

	"github.com/jomko/go-session-api/auth"
)

// PingHandler answers the unauthenticated health probe.
func (s *Server) PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "pong")
	}
}

// LoginHandler verifies credentials and returns a fresh bearer token plus
// the account's public fields.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds auth.Credentials
		if err := decodeJSON(r, &creds); err != nil {
			writeMessage(w, http.StatusUnprocessableEntity, "The request body must be valid JSON.")
			return
		}

		result, err := s.auth.Login(r.Context(), creds)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token": result.Token,
			"user":  result.User,
		})
	}
}

// LogoutHandler invalidates the caller's session. RequireAuth has already
// rejected requests without a live session, so a failure here means the
// session disappeared between the check and the delete - still a 401.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(r.Context(), bearerFromContext(r.Context())); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Logged out")
	}
}

// UserHandler returns the authenticated account's public fields.
func (s *Server) UserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordHandler dispatches a password reset link.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusUnprocessableEntity, "The request body must be valid JSON.")
			return
		}

		status, err := s.reset.SendResetLink(r.Context(), req.Email)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
	}
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPasswordHandler consumes a reset token and sets the new password.
func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeMessage(w, http.StatusUnprocessableEntity, "The request body must be valid JSON.")
			return
		}

		if err := s.reset.Reset(r.Context(), req.Token, req.Password); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "Your password has been reset."})
	}
}

// ExampleHandler serves the static demo payload.
func (s *Server) ExampleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "Example response")
	}
}

// HelloV1Handler serves the versioned demo greeting.
func (s *Server) HelloV1Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "Hello from API v1")
	}
}

// ExampleV1Handler serves the versioned demo payload.
func (s *Server) ExampleV1Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "Example response")
	}
}

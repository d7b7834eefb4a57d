package sessions

import "time"

// Session is the server-tracked proof of authentication. It is created on a
// successful login, bound to exactly one user, and deleted on logout. The
// bearer token handed to the client references the session by ID, so deleting
// the session invalidates the credential immediately.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory implementation of sessions.Repo
type FakeSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]sessions.Session
}

// NewFakeSessionRepo creates a new in-memory session repository
func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]sessions.Session),
	}
}

func (r *FakeSessionRepo) Upsert(_ context.Context, session *sessions.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	r.sessions[session.ID] = *session
	return nil
}

func (r *FakeSessionRepo) Get(_ context.Context, sessionID string) (*sessions.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, apierrors.ErrSessionNotFound
	}
	return &session, nil
}

func (r *FakeSessionRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return apierrors.ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *FakeSessionRepo) DeleteExpired(_ context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.sessions, id)
		}
	}
	return nil
}

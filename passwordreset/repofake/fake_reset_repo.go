package fakeresetrepo

import (
	"context"
	"sync"

	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/passwordreset"
)

var _ passwordreset.Repo = (*FakeResetRepo)(nil)

type FakeResetRepo struct {
	mu     sync.RWMutex
	tokens map[string]passwordreset.Token // token hash -> token
}

func NewFakeResetRepo() *FakeResetRepo {
	return &FakeResetRepo{
		tokens: make(map[string]passwordreset.Token),
	}
}

func (r *FakeResetRepo) Upsert(_ context.Context, token *passwordreset.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.TokenHash] = *token
	return nil
}

func (r *FakeResetRepo) GetByHash(_ context.Context, tokenHash string) (*passwordreset.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, apierrors.ErrTokenNotFound
	}
	return &token, nil
}

func (r *FakeResetRepo) Consume(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return apierrors.ErrTokenNotFound
	}
	if token.Consumed {
		return apierrors.ErrTokenConsumed
	}
	token.Consumed = true
	r.tokens[tokenHash] = token
	return nil
}

func (r *FakeResetRepo) InvalidateForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, token := range r.tokens {
		if token.UserID == userID && !token.Consumed {
			token.Consumed = true
			r.tokens[hash] = token
		}
	}
	return nil
}

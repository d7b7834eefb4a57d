package passwordreset

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
)

const tokenGenerationLength = 32

// Token is a single-use password recovery credential. Only the sha256 hash
// of the token value is ever stored; the raw value exists in the reset link
// alone.
type Token struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Consumed  bool
}

// Active reports whether the token can still be consumed.
func (t *Token) Active(now time.Time) bool {
	return !t.Consumed && t.ExpiresAt.After(now)
}

// Repo defines the interface for reset token storage operations.
type Repo interface {
	// Upsert creates or updates a reset token. Issuing a token for a user
	// supersedes any previously active tokens for the same user.
	Upsert(ctx context.Context, token *Token) error

	// GetByHash retrieves a token by its value hash
	GetByHash(ctx context.Context, tokenHash string) (*Token, error)

	// Consume marks a token as used. Consuming an already consumed token
	// must fail, so the single-use invariant holds.
	Consume(ctx context.Context, tokenHash string) error

	// InvalidateForUser marks all active tokens of a user as consumed
	InvalidateForUser(ctx context.Context, userID string) error
}

// NewTokenValue generates an unguessable reset token value.
func NewTokenValue() (string, error) {
	buf := make([]byte, tokenGenerationLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[NewTokenValue] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashTokenValue derives the storage key for a raw token value.
func HashTokenValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

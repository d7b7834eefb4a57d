package token_test

import (
	"testing"
	"time"

	"github.com/jomko/go-session-api/sessions"
	"github.com/jomko/go-session-api/token"
	"github.com/stretchr/testify/require"
)

func testSession(now time.Time) *sessions.Session {
	return &sessions.Session{
		ID:        "session-1",
		UserID:    "user-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestManager_IssueAndParse(t *testing.T) {
	m, err := token.NewManager([]byte("key"))
	require.NoError(t, err)

	now := time.Now()
	raw, err := m.Issue(testSession(now))
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "session-1", claims.SessionID)
	require.Equal(t, "user-1", claims.UserID)
	require.WithinDuration(t, now.Add(time.Hour), claims.ExpiresAt, time.Second)
}

func TestManager_RejectsWrongKey(t *testing.T) {
	issuer, err := token.NewManager([]byte("key-a"))
	require.NoError(t, err)
	verifier, err := token.NewManager([]byte("key-b"))
	require.NoError(t, err)

	raw, err := issuer.Issue(testSession(time.Now()))
	require.NoError(t, err)

	_, err = verifier.Parse(raw)
	require.Error(t, err)
}

func TestManager_RejectsExpired(t *testing.T) {
	now := time.Now()
	m, err := token.NewManager([]byte("key"), token.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)

	raw, err := m.Issue(testSession(now))
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Parse(raw)
	require.Error(t, err)
}

func TestManager_RejectsGarbage(t *testing.T) {
	m, err := token.NewManager([]byte("key"))
	require.NoError(t, err)

	_, err = m.Parse("not-a-token")
	require.Error(t, err)
}

func TestNewManager_RequiresKey(t *testing.T) {
	_, err := token.NewManager(nil)
	require.Error(t, err)
}

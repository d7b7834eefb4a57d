package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jomko/go-session-api/auth"
	"github.com/jomko/go-session-api/sessions"
	fakesessionrepo "github.com/jomko/go-session-api/sessions/repofake"
	"github.com/jomko/go-session-api/token"
	"github.com/jomko/go-session-api/users"
	fakeuserrepo "github.com/jomko/go-session-api/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testSigningKey   = "test-signing-key"
	testUserName     = "John Doe"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    users.UserRepo
	sessionRepo sessions.Repo
	tokens      *token.Manager
	service     *auth.Service
	now         time.Time
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, options ...auth.ServiceOption) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		sessionRepo: fakesessionrepo.NewFakeSessionRepo(),
		now:         time.Now(),
	}

	tokens, err := token.NewManager([]byte(testSigningKey), token.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.tokens = tokens

	opts := append([]auth.ServiceOption{auth.WithNowTime(func() time.Time { return f.now })}, options...)
	service, err := auth.NewService(auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo}, tokens, opts...)
	require.NoError(t, err)
	f.service = service

	return f
}

// createTestUser creates and stores a test user
func (f *testFixture) createTestUser(t *testing.T) *users.User {
	t.Helper()

	passwordHash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	user := &users.User{
		Name:         testUserName,
		Email:        testUserEmail,
		PasswordHash: passwordHash,
		CreatedAt:    f.now,
	}
	require.NoError(t, f.userRepo.Upsert(context.Background(), user))
	return user
}

func TestLogin_ValidCredentials(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})

	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)
	require.Equal(t, testUserEmail, result.User.Email)
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    "John.Doe@Example.com",
		Password: testUserPassword,
	})

	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: "wrong",
	})

	require.ErrorIs(t, err, auth.ErrUnauthorized)
	require.Nil(t, result)
}

func TestLogin_UnknownEmailIndistinguishableFromWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	_, unknownErr := f.service.Login(context.Background(), auth.Credentials{
		Email:    "nobody@example.com",
		Password: testUserPassword,
	})
	_, wrongErr := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: "wrong",
	})

	require.ErrorIs(t, unknownErr, auth.ErrUnauthorized)
	require.Equal(t, unknownErr, wrongErr)
}

func TestLogin_ValidationFailsBeforeStoreAccess(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), auth.Credentials{Email: "not-an-email", Password: ""})

	var validationErr *auth.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "email")
	require.Contains(t, validationErr.Fields, "password")
}

func TestCurrentUser_AfterLogin(t *testing.T) {
	f := setupTestFixture(t)
	user := f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)

	current, err := f.service.CurrentUser(context.Background(), result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, current.ID)
	require.Equal(t, testUserEmail, current.Email)
}

func TestCurrentUser_NoToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.CurrentUser(context.Background(), "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestCurrentUser_TamperedToken(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)

	_, err = f.service.CurrentUser(context.Background(), result.Token+"x")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestCurrentUser_ExpiredSession(t *testing.T) {
	f := setupTestFixture(t, auth.WithSessionTTL(time.Hour))
	f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)

	_, err = f.service.CurrentUser(context.Background(), result.Token)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)

	_, err = f.service.CurrentUser(context.Background(), result.Token)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), result.Token))

	_, err = f.service.CurrentUser(context.Background(), result.Token)
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestLogout_Idempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	result, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), result.Token))
	require.ErrorIs(t, f.service.Logout(context.Background(), result.Token), auth.ErrUnauthenticated)
}

func TestLogin_EachLoginGetsOwnSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t)

	first, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)
	second, err := f.service.Login(context.Background(), auth.Credentials{
		Email:    testUserEmail,
		Password: testUserPassword,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// Logging out one session leaves the other alive
	require.NoError(t, f.service.Logout(context.Background(), first.Token))
	_, err = f.service.CurrentUser(context.Background(), second.Token)
	require.NoError(t, err)
}

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jomko/go-session-api/auth"
	"github.com/jomko/go-session-api/internal/config"
	"github.com/jomko/go-session-api/passwordreset"
	fakeresetrepo "github.com/jomko/go-session-api/passwordreset/repofake"
	"github.com/jomko/go-session-api/server"
	fakesessionrepo "github.com/jomko/go-session-api/sessions/repofake"
	"github.com/jomko/go-session-api/token"
	"github.com/jomko/go-session-api/users"
	fakeuserrepo "github.com/jomko/go-session-api/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "a@x.com"
	testUserPassword = "secret"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) SendResetLink(_ context.Context, toEmail, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, toEmail)
	return nil
}

type serverFixture struct {
	ts       *httptest.Server
	userRepo *fakeuserrepo.FakeUserRepo
	notifier *recordingNotifier
}

func setupServer(t *testing.T, resetOptions ...passwordreset.DispatcherOption) *serverFixture {
	t.Helper()

	c := config.New()
	f := &serverFixture{
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		notifier: &recordingNotifier{},
	}

	tokens, err := token.NewManager([]byte("test-signing-key"))
	require.NoError(t, err)

	authService, err := auth.NewService(
		auth.Repos{Users: f.userRepo, Sessions: fakesessionrepo.NewFakeSessionRepo()},
		tokens,
	)
	require.NoError(t, err)

	dispatcher, err := passwordreset.NewDispatcher(
		f.userRepo, fakeresetrepo.NewFakeResetRepo(), f.notifier, "http://localhost:8080", resetOptions...)
	require.NoError(t, err)

	srv, err := server.New(c, authService, dispatcher)
	require.NoError(t, err)

	f.ts = httptest.NewServer(srv)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *serverFixture) createTestUser(t *testing.T) *users.User {
	t.Helper()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	user := &users.User{Name: "Ada", Email: testUserEmail, PasswordHash: hash, CreatedAt: time.Now()}
	require.NoError(t, f.userRepo.Upsert(context.Background(), user))
	return user
}

func (f *serverFixture) request(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (f *serverFixture) login(t *testing.T) string {
	t.Helper()

	resp, body := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tokenValue, _ := body["token"].(string)
	require.NotEmpty(t, tokenValue)
	return tokenValue
}

func TestPing(t *testing.T) {
	f := setupServer(t)

	resp, body := f.request(t, http.MethodGet, server.RouteAPIPing, "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "pong", body["message"])
}

func TestLogin_ValidCredentials(t *testing.T) {
	f := setupServer(t)
	user := f.createTestUser(t)

	resp, body := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["token"])

	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, user.ID, userBody["id"])
	require.Equal(t, testUserEmail, userBody["email"])
}

func TestLogin_NeverExposesPasswordHash(t *testing.T) {
	f := setupServer(t)
	user := f.createTestUser(t)

	resp, body := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email":    testUserEmail,
		"password": testUserPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	require.NotContains(t, string(raw), user.PasswordHash)
	require.NotContains(t, strings.ToLower(string(raw)), "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupServer(t)
	f.createTestUser(t)

	resp, body := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email":    testUserEmail,
		"password": "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Unauthorized", body["message"])
}

func TestLogin_UnknownEmailSameAsWrongPassword(t *testing.T) {
	f := setupServer(t)
	f.createTestUser(t)

	unknownResp, unknownBody := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email":    "nobody@example.com",
		"password": testUserPassword,
	})
	wrongResp, wrongBody := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email":    testUserEmail,
		"password": "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
	require.Equal(t, wrongResp.StatusCode, unknownResp.StatusCode)
	require.Equal(t, wrongBody, unknownBody)
}

func TestLogin_ValidationErrors(t *testing.T) {
	f := setupServer(t)

	resp, body := f.request(t, http.MethodPost, server.RouteAPILogin, "", map[string]string{
		"email": "not-an-email",
	})

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotEmpty(t, body["message"])

	fieldErrors, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, fieldErrors, "email")
	require.Contains(t, fieldErrors, "password")
}

func TestCurrentUser_RequiresSession(t *testing.T) {
	f := setupServer(t)

	resp, _ := f.request(t, http.MethodGet, server.RouteAPIUser, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentUser_AfterLogin(t *testing.T) {
	f := setupServer(t)
	user := f.createTestUser(t)
	bearer := f.login(t)

	resp, body := f.request(t, http.MethodGet, server.RouteAPIUser, bearer, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	userBody, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, user.ID, userBody["id"])
	require.Equal(t, testUserEmail, userBody["email"])
}

func TestLogout_DestroysSession(t *testing.T) {
	f := setupServer(t)
	f.createTestUser(t)
	bearer := f.login(t)

	resp, _ := f.request(t, http.MethodGet, server.RouteAPIUser, bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.request(t, http.MethodPost, server.RouteAPILogout, bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Logged out", body["message"])

	resp, _ = f.request(t, http.MethodGet, server.RouteAPIUser, bearer, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_IdempotentWhenAlreadyLoggedOut(t *testing.T) {
	f := setupServer(t)
	f.createTestUser(t)
	bearer := f.login(t)

	resp, _ := f.request(t, http.MethodPost, server.RouteAPILogout, bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, http.MethodPost, server.RouteAPILogout, bearer, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForgotPassword_KnownEmail(t *testing.T) {
	f := setupServer(t)
	f.createTestUser(t)

	resp, body := f.request(t, http.MethodPost, server.RouteAPIForgotPassword, "", map[string]string{
		"email": testUserEmail,
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["status"])
	require.Equal(t, []string{testUserEmail}, f.notifier.sent)
}

func TestForgotPassword_UnknownEmailLenient(t *testing.T) {
	f := setupServer(t)
	f.createTestUser(t)

	knownResp, knownBody := f.request(t, http.MethodPost, server.RouteAPIForgotPassword, "", map[string]string{
		"email": testUserEmail,
	})
	unknownResp, unknownBody := f.request(t, http.MethodPost, server.RouteAPIForgotPassword, "", map[string]string{
		"email": "nobody@example.com",
	})

	// No observable difference between known and unknown emails
	require.Equal(t, http.StatusOK, knownResp.StatusCode)
	require.Equal(t, knownResp.StatusCode, unknownResp.StatusCode)
	require.Equal(t, knownBody, unknownBody)
}

func TestForgotPassword_UnknownEmailStrict(t *testing.T) {
	f := setupServer(t, passwordreset.WithPolicy(config.ResetPolicyStrict))
	f.createTestUser(t)

	resp, body := f.request(t, http.MethodPost, server.RouteAPIForgotPassword, "", map[string]string{
		"email": "nobody@example.com",
	})

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	fieldErrors, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, fieldErrors, "email")
}

func TestForgotPassword_MalformedEmail(t *testing.T) {
	f := setupServer(t)

	resp, _ := f.request(t, http.MethodPost, server.RouteAPIForgotPassword, "", map[string]string{
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDemoEndpoints(t *testing.T) {
	f := setupServer(t)

	for path, message := range map[string]string{
		server.RouteAPIExample:   "Example response",
		server.RouteAPIV1Example: "Example response",
		server.RouteAPIV1Hello:   "Hello from API v1",
	} {
		resp, body := f.request(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, message, body["message"])
	}
}

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/sessions"
	"github.com/jomko/go-session-api/token"
	"github.com/jomko/go-session-api/users"
	"github.com/pkg/errors"
)

const defaultSessionTTL = 24 * time.Hour

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo // Repository for user data
	Sessions sessions.Repo  // Repository for session data
}

// Service implements the authentication operations: credential verification,
// session issue and invalidation, and session-bound identity lookup.
type Service struct {
	repos      Repos
	tokens     *token.Manager
	sessionTTL time.Duration
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSessionTTL sets the absolute lifetime of issued sessions.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionTTL = ttl
	}
}

// NewService initializes a new Service with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(repos Repos, tokens *token.Manager, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token manager is required")
	}

	service := &Service{
		repos:      repos,
		tokens:     tokens,
		sessionTTL: defaultSessionTTL,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token string
	User  users.PublicUser
}

// Login validates the credential shape, verifies the password, and on
// success establishes a new session and returns a fresh bearer token.
// Unknown email and wrong password both map to ErrUnauthorized.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	// Shape validation fails fast, before any store access
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, apierrors.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "[Service.Login] Users.GetByEmail")
	}

	if !user.CheckPassword(creds.Password) {
		return nil, ErrUnauthorized
	}

	now := s.nowTime()
	session := &sessions.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.repos.Sessions.Upsert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] Sessions.Upsert")
	}

	bearer, err := s.tokens.Issue(session)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] tokens.Issue")
	}

	return &LoginResult{Token: bearer, User: user.Public()}, nil
}

// CurrentUser resolves a raw bearer token to the public fields of its bound
// account. Any failure along the way - bad signature, missing or expired
// session, deleted user - is reported as ErrUnauthenticated.
func (s *Service) CurrentUser(ctx context.Context, rawToken string) (*users.PublicUser, error) {
	session, err := s.authenticate(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apierrors.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "[Service.CurrentUser] Users.GetByID")
	}

	public := user.Public()
	return &public, nil
}

// Logout invalidates the session referenced by the token. Calling it with a
// token whose session is already gone yields ErrUnauthenticated, so repeated
// logouts degrade to a clean authentication failure.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	session, err := s.authenticate(ctx, rawToken)
	if err != nil {
		return err
	}

	if err := s.repos.Sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, apierrors.ErrSessionNotFound) {
			return ErrUnauthenticated
		}
		return errors.Wrap(err, "[Service.Logout] Sessions.Delete")
	}
	return nil
}

// authenticate parses the bearer token and loads its live session. The
// session store is authoritative: a well-signed token whose session has been
// deleted or has expired does not authenticate.
func (s *Service) authenticate(ctx context.Context, rawToken string) (*sessions.Session, error) {
	if rawToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	session, err := s.repos.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apierrors.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "[Service.authenticate] Sessions.Get")
	}

	if session.Expired(s.nowTime()) {
		_ = s.repos.Sessions.Delete(ctx, session.ID)
		return nil, ErrUnauthenticated
	}
	if session.UserID != claims.UserID {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

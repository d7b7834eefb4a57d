package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jomko/go-session-api/sessions"
	"github.com/pkg/errors"
)

// Claims is the decoded content of a bearer token. SessionID refers to the
// server-side session, which remains the source of truth: a token whose
// session has been deleted is no longer valid, regardless of its expiry.
type Claims struct {
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

// Manager creates and parses signed bearer tokens (HS256 JWTs).
type Manager struct {
	signingKey []byte
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(signingKey []byte, options ...ManagerOption) (*Manager, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("[NewManager] signing key is required")
	}
	m := &Manager{
		signingKey: signingKey,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Issue creates a signed bearer token for the given session.
func (m *Manager) Issue(session *sessions.Session) (string, error) {
	claims := jwtlib.MapClaims{
		"jti": session.ID,
		"sub": session.UserID,
		"iat": session.CreatedAt.Unix(),
		"exp": session.ExpiresAt.Unix(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Issue] SignedString")
	}
	return signed, nil
}

// Parse validates a raw bearer token's signature and expiry and returns its
// claims.
func (m *Manager) Parse(raw string) (*Claims, error) {
	parsed, err := jwtlib.Parse(raw, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.signingKey, nil
	}, jwtlib.WithTimeFunc(m.nowTime))
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Parse] jwt.Parse")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("[Manager.Parse] invalid claims")
	}

	sessionID, _ := mapClaims["jti"].(string)
	userID, _ := mapClaims["sub"].(string)
	if sessionID == "" || userID == "" {
		return nil, errors.New("[Manager.Parse] missing jti or sub claim")
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("[Manager.Parse] missing exp claim")
	}

	return &Claims{
		SessionID: sessionID,
		UserID:    userID,
		ExpiresAt: exp.Time,
	}, nil
}

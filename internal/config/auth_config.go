package config

import (
	"strings"
	"time"
)

// ResetPolicyType controls how the password reset endpoint treats an unknown
// email address.
type ResetPolicyType string

const (
	// ResetPolicyLenient answers unknown emails exactly like known ones, so
	// callers cannot enumerate accounts.
	ResetPolicyLenient ResetPolicyType = "lenient"
	// ResetPolicyStrict surfaces unknown emails as a validation failure.
	ResetPolicyStrict ResetPolicyType = "strict"
)

type AuthConfig interface {
	GetTokenSigningKey() []byte
	GetSessionTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetResetPolicy() ResetPolicyType
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetTokenSigningKey() []byte {
	return []byte(GetEnv("TOKEN_SIGNING_KEY", "dev-only-signing-key"))
}

func (Auth) GetSessionTTL() time.Duration {
	return durationEnv("SESSION_TTL", 24*time.Hour)
}

func (Auth) GetResetTokenTTL() time.Duration {
	return durationEnv("RESET_TOKEN_TTL", time.Hour)
}

func (Auth) GetResetPolicy() ResetPolicyType {
	if strings.EqualFold(GetEnv("RESET_POLICY", ""), string(ResetPolicyStrict)) {
		return ResetPolicyStrict
	}
	return ResetPolicyLenient
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

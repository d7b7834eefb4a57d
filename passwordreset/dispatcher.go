package passwordreset

import (
	"context"
	"fmt"
	"time"

	"github.com/jomko/go-session-api/auth"
	"github.com/jomko/go-session-api/internal/config"
	apierrors "github.com/jomko/go-session-api/internal/errors"
	"github.com/jomko/go-session-api/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultTokenTTL = time.Hour

// StatusLinkSent is the generic status returned for a dispatched (or, under
// the lenient policy, pretend-dispatched) reset link.
const StatusLinkSent = "We have emailed your password reset link."

// Dispatcher looks up accounts by email and sends out single-use reset
// tokens. The unknown-email behaviour is policy driven: lenient answers
// exactly like the known-email case, strict surfaces a validation failure.
type Dispatcher struct {
	userRepo  users.UserRepo
	tokenRepo Repo
	notifier  Notifier
	baseURL   string
	policy    config.ResetPolicyType
	tokenTTL  time.Duration
	nowTime   func() time.Time // nowTime function (injectable for testing)
}

// DispatcherOption defines a function type to modify the Dispatcher instance.
type DispatcherOption func(*Dispatcher)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.nowTime = nowFunc
	}
}

// WithPolicy sets the unknown-email policy.
func WithPolicy(policy config.ResetPolicyType) DispatcherOption {
	return func(d *Dispatcher) {
		d.policy = policy
	}
}

// WithTokenTTL sets the validity window of issued reset tokens.
func WithTokenTTL(ttl time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.tokenTTL = ttl
	}
}

func NewDispatcher(userRepo users.UserRepo, tokenRepo Repo, notifier Notifier, baseURL string, options ...DispatcherOption) (*Dispatcher, error) {
	if userRepo == nil {
		return nil, errors.New("[NewDispatcher] user repo is required")
	}
	if tokenRepo == nil {
		return nil, errors.New("[NewDispatcher] token repo is required")
	}
	if notifier == nil {
		return nil, errors.New("[NewDispatcher] notifier is required")
	}

	d := &Dispatcher{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		notifier:  notifier,
		baseURL:   baseURL,
		policy:    config.ResetPolicyLenient,
		tokenTTL:  defaultTokenTTL,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// SendResetLink issues a reset token for the account behind the email and
// dispatches it through the notifier. The returned status is the same for
// known and unknown emails under the lenient policy.
func (d *Dispatcher) SendResetLink(ctx context.Context, email string) (string, error) {
	if err := auth.ValidateEmail(email); err != nil {
		return "", err
	}

	user, err := d.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apierrors.ErrUserNotFound) {
			if d.policy == config.ResetPolicyStrict {
				return "", auth.NewValidationError("email", "We can't find a user with that email address.")
			}
			// Lenient: indistinguishable from the known-email case
			return StatusLinkSent, nil
		}
		return "", errors.Wrap(err, "[Dispatcher.SendResetLink] userRepo.GetByEmail")
	}

	value, err := NewTokenValue()
	if err != nil {
		return "", errors.Wrap(err, "[Dispatcher.SendResetLink] NewTokenValue")
	}

	now := d.nowTime()
	// A fresh token supersedes any outstanding ones for the account
	if err := d.tokenRepo.InvalidateForUser(ctx, user.ID); err != nil {
		return "", errors.Wrap(err, "[Dispatcher.SendResetLink] tokenRepo.InvalidateForUser")
	}
	if err := d.tokenRepo.Upsert(ctx, &Token{
		TokenHash: HashTokenValue(value),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(d.tokenTTL),
	}); err != nil {
		return "", errors.Wrap(err, "[Dispatcher.SendResetLink] tokenRepo.Upsert")
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", d.baseURL, value)
	if err := d.notifier.SendResetLink(ctx, user.Email, resetURL); err != nil {
		// Fire and forget: delivery failure does not change the outcome
		log.Err(err).Str("user_id", user.ID).Msg("reset link dispatch failed")
	}

	return StatusLinkSent, nil
}

// Reset consumes a single-use token within its validity window and replaces
// the account's password hash.
func (d *Dispatcher) Reset(ctx context.Context, tokenValue, newPassword string) error {
	if tokenValue == "" {
		return auth.NewValidationError("token", "The token field is required.")
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return auth.NewValidationError("password", err.Error())
	}

	stored, err := d.tokenRepo.GetByHash(ctx, HashTokenValue(tokenValue))
	if err != nil {
		if errors.Is(err, apierrors.ErrTokenNotFound) {
			return auth.NewValidationError("token", "This password reset token is invalid.")
		}
		return errors.Wrap(err, "[Dispatcher.Reset] tokenRepo.GetByHash")
	}
	if !stored.Active(d.nowTime()) {
		return auth.NewValidationError("token", "This password reset token is invalid.")
	}

	// Consume first so a concurrent attempt with the same token loses
	if err := d.tokenRepo.Consume(ctx, stored.TokenHash); err != nil {
		if errors.Is(err, apierrors.ErrTokenConsumed) || errors.Is(err, apierrors.ErrTokenNotFound) {
			return auth.NewValidationError("token", "This password reset token is invalid.")
		}
		return errors.Wrap(err, "[Dispatcher.Reset] tokenRepo.Consume")
	}

	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Dispatcher.Reset] HashPassword")
	}
	if err := d.userRepo.UpdatePasswordHash(ctx, stored.UserID, hash); err != nil {
		return errors.Wrap(err, "[Dispatcher.Reset] userRepo.UpdatePasswordHash")
	}
	return nil
}

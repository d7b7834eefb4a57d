package passwordreset

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jomko/go-session-api/internal/config"
	"github.com/pkg/errors"
)

// Notifier delivers a reset link to an account holder. Delivery is an
// external concern: the dispatcher treats a failed send as a logged event,
// not as a request failure.
type Notifier interface {
	SendResetLink(ctx context.Context, toEmail, resetURL string) error
}

// SMTPNotifier sends reset links as plain text email over SMTP.
type SMTPNotifier struct {
	cfg config.MailConfig
}

func NewSMTPNotifier(cfg config.MailConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) SendResetLink(_ context.Context, toEmail, resetURL string) error {
	addr := fmt.Sprintf("%s:%s", n.cfg.GetSmtpHost(), n.cfg.GetSmtpPort())
	sender := n.cfg.GetSmtpSender()

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Reset Password\r\n\r\n"+
		"You are receiving this email because we received a password reset request for your account.\r\n\r\n"+
		"Reset your password: %s\r\n\r\n"+
		"If you did not request a password reset, no further action is required.\r\n",
		sender, toEmail, resetURL)

	var auth smtp.Auth
	if n.cfg.GetSmtpAccount() != "" {
		auth = smtp.PlainAuth("", n.cfg.GetSmtpAccount(), n.cfg.GetSmtpPassword(), n.cfg.GetSmtpHost())
	}

	if err := smtp.SendMail(addr, auth, sender, []string{toEmail}, []byte(msg)); err != nil {
		return errors.Wrap(err, "[SMTPNotifier.SendResetLink] smtp.SendMail")
	}
	return nil
}

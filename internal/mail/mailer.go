// internal/mail/mailer.go
//
// Verification-code delivery. Production sends through Resend with HTML and
// plain-text bodies; without an API key (or with MAIL_DRY_RUN=1) codes are
// logged instead, which is how local development reads them.

package mail

import (
	"context"
	"fmt"
	"os"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/mfigueiredo/blackjack/server/internal/auth"
)

// Sender delivers a verification code to an email address.
type Sender interface {
	SendVerificationCode(ctx context.Context, email, code string, purpose auth.Purpose) error
}

// FromEnv picks a sender from the environment: Resend when RESEND_API_KEY
// and MAIL_FROM are set and MAIL_DRY_RUN is off, a log sender otherwise.
func FromEnv() Sender {
	key := os.Getenv("RESEND_API_KEY")
	from := os.Getenv("MAIL_FROM")
	if key == "" || os.Getenv("MAIL_DRY_RUN") == "1" {
		return logSender{}
	}
	if from == "" {
		log.Warn().Msg("RESEND_API_KEY set but MAIL_FROM missing; falling back to log sender")
		return logSender{}
	}
	return &resendSender{
		client: resend.NewClient(key),
		from:   from,
		app:    getEnv("APP_NAME", "Black Jack"),
	}
}

// logSender "delivers" codes to the server log.
type logSender struct{}

func (logSender) SendVerificationCode(ctx context.Context, email, code string, purpose auth.Purpose) error {
	log.Info().Str("email", email).Str("code", code).Str("purpose", string(purpose)).
		Msg("verification code (mail not configured)")
	return nil
}

type resendSender struct {
	client *resend.Client
	from   string
	app    string
}

func (s *resendSender) SendVerificationCode(ctx context.Context, email, code string, purpose auth.Purpose) error {
	action := "Login"
	if purpose == auth.PurposeSignup {
		action = "Sign-up"
	}

	html := fmt.Sprintf(`
		<div style="font-family:system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif;max-width:560px;margin:auto">
			<h2 style="margin:0 0 12px">%s</h2>
			<p>Use this %s code within 5 minutes:</p>
			<div style="font-size:28px;letter-spacing:6px;font-weight:700;margin:12px 0">%s</div>
			<p style="color:#666">If you didn't request this, you can ignore this email.</p>
		</div>`, s.app, action, code)
	text := fmt.Sprintf("%s\n\n%s code: %s\n\nUse this code within 5 minutes. If you didn't request this, you can ignore this email.",
		s.app, action, code)

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email},
		Subject: fmt.Sprintf("%s %s code: %s", s.app, action, code),
		Html:    html,
		Text:    text,
		Tags:    []resend.Tag{{Name: "purpose", Value: string(purpose)}},
	})
	if err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

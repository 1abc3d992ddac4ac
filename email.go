package auth

import (
	"context"
	"fmt"
	"strings"
)

// VerificationLink builds the confirmation URL embedded in verification
// emails. baseURL should be the externally reachable host, e.g.
// "https://api.example.com".
func VerificationLink(baseURL, token string) string {
	base := strings.TrimRight(baseURL, "/")
	return fmt.Sprintf("%s/auth/confirmed_email/%s", base, token)
}

// LogEmailSender writes verification emails to the logger instead of
// dispatching them. Useful in development and as the default wiring when no
// real sender is configured.
type LogEmailSender struct {
	Logger Logger
}

func NewLogEmailSender(logger Logger) *LogEmailSender {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogEmailSender{Logger: logger}
}

func (s *LogEmailSender) SendVerificationEmail(ctx context.Context, toEmail, username, verificationLink string) error {
	s.Logger.Info("verification email",
		"to", toEmail,
		"username", username,
		"link", verificationLink,
	)
	return nil
}

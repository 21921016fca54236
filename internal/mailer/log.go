package mailer

import (
	"context"

	"github.com/amaravathi/tradeidentity/internal/logging"
	"github.com/amaravathi/tradeidentity/internal/token"
)

// LogSender is a development Sender that only logs deliveries. The link is
// always masked before logging.
type LogSender struct {
	logger logging.Logger
}

// NewLogSender creates a log-only Sender.
func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Deliver logs the masked verification link instead of sending it.
func (s *LogSender) Deliver(ctx context.Context, email, verificationURL string) error {
	s.logger.Info(ctx, "verification email (dev delivery)",
		"email", email,
		"link", token.MaskURL(verificationURL),
	)
	return nil
}

package email

import (
	"context"

	"github.com/rs/zerolog/log"
	"qualifyr/internal/platform/config"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender selects the provider once at startup; callers never branch on
// provider again.
func NewSender(cfg config.EmailConfig) Sender {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGridSender(cfg)
	case "smtp":
		return NewSMTPSender(cfg)
	default:
		return &NoopSender{}
	}
}

// NoopSender drops messages. Used in development and as the default when
// no provider is configured.
type NoopSender struct{}

func (s *NoopSender) Send(ctx context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email provider disabled, dropping message")
	return nil
}

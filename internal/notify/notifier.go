package notify

import (
	"context"
	"strings"

	"github.com/pawdx/vetlab-backend/pkg/config"
	"github.com/pawdx/vetlab-backend/pkg/logger"
	"github.com/pawdx/vetlab-backend/pkg/whatsapp"
)

// Notifier dispatches operational messages. Implementations must be safe for
// concurrent use; callers treat every send as best-effort.
type Notifier interface {
	Send(ctx context.Context, to, body, mediaURL string) error
}

type whatsappSender interface {
	Send(ctx context.Context, to, body, mediaURL string) error
}

type whatsappNotifier struct {
	sender whatsappSender
}

// NewWhatsAppNotifier wraps the Twilio client behind the Notifier surface.
func NewWhatsAppNotifier(client *whatsapp.Client) Notifier {
	return &whatsappNotifier{sender: client}
}

func (n *whatsappNotifier) Send(ctx context.Context, to, body, mediaURL string) error {
	return n.sender.Send(ctx, to, body, mediaURL)
}

type noopNotifier struct {
	logg *logger.Logger
}

// NewNoopNotifier logs and drops every message. Used when Twilio credentials
// are absent, typically in dev.
func NewNoopNotifier(logg *logger.Logger) Notifier {
	return &noopNotifier{logg: logg}
}

func (n *noopNotifier) Send(ctx context.Context, to, body, _ string) error {
	if n.logg != nil {
		n.logg.Info(n.logg.WithFields(ctx, map[string]any{
			"to":      to,
			"preview": preview(body),
		}), "notification dropped (notifier disabled)")
	}
	return nil
}

func preview(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 64 {
		return body[:64]
	}
	return body
}

// FromConfig picks the WhatsApp notifier when credentials are configured and
// the no-op fallback otherwise.
func FromConfig(cfg config.NotifyConfig, logg *logger.Logger) (Notifier, error) {
	if !cfg.Enabled() {
		return NewNoopNotifier(logg), nil
	}
	client, err := whatsapp.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewWhatsAppNotifier(client), nil
}

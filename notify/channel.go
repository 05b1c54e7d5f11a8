// Package notify delivers alerts to external channels. Dispatch is
// fire-and-forget: the correlation engine enqueues and returns, and a
// worker pool drains the queue so a slow channel never backs up
// ingestion.
package notify

import (
	"context"

	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
)

// Channel delivers one alert to a single destination. Send must respect
// the context deadline; the dispatcher wraps every call in a timeout.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert *core.SecurityAlert) error
}

// NewChannels constructs every built-in channel from config, keyed by
// name. Which of them actually receive alerts is decided per dispatch by
// the hot-reloadable channel list.
func NewChannels(cfg config.NotifyConfig, logger *zap.SugaredLogger) map[string]Channel {
	return map[string]Channel{
		"console": NewConsoleChannel(logger),
		"email":   NewEmailChannel(cfg.Email, logger),
		"webhook": NewWebhookChannel(cfg.Webhook, logger),
		"slack":   NewSlackChannel(cfg.Slack, logger),
	}
}

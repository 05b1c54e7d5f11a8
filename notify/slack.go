package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
)

// SlackChannel posts alerts to a Slack incoming webhook as a colored
// attachment.
type SlackChannel struct {
	cfg    config.SlackConfig
	client *http.Client
	logger *zap.SugaredLogger
}

// NewSlackChannel creates a Slack channel.
func NewSlackChannel(cfg config.SlackConfig, logger *zap.SugaredLogger) *SlackChannel {
	return &SlackChannel{cfg: cfg, client: &http.Client{}, logger: logger}
}

// Name implements Channel.
func (c *SlackChannel) Name() string { return "slack" }

// Send implements Channel.
func (c *SlackChannel) Send(ctx context.Context, alert *core.SecurityAlert) error {
	if c.cfg.WebhookURL == "" {
		return fmt.Errorf("slack channel not configured: webhook_url is empty")
	}

	payload := map[string]interface{}{
		"text": fmt.Sprintf("*%s Severity Alert*: %s", strings.ToUpper(alert.Severity.String()), alert.Title),
		"attachments": []map[string]interface{}{
			{
				"color": slackColor(alert.Severity),
				"fields": []map[string]interface{}{
					{"title": "Alert ID", "value": fmt.Sprintf("`%s`", alert.AlertID), "short": true},
					{"title": "Kind", "value": alert.Kind.String(), "short": true},
					{"title": "Event Type", "value": alert.EventType.String(), "short": true},
					{"title": "Affected IPs", "value": strings.Join(alert.AffectedIPs, ", "), "short": true},
				},
				"footer": "Watchtower",
				"ts":     time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending slack notification: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debugf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned non-OK status: %d", resp.StatusCode)
	}

	c.logger.Infow("Sent Slack notification", "alert_id", alert.AlertID)
	return nil
}

func slackColor(s core.Severity) string {
	switch s {
	case core.SeverityCritical:
		return "#d32f2f"
	case core.SeverityHigh:
		return "#f44336"
	case core.SeverityWarning:
		return "#ffc107"
	case core.SeverityMedium:
		return "#ff9800"
	default:
		return "#2196f3"
	}
}

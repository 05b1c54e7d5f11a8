package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
)

// WebhookChannel posts the full alert as JSON to a configured endpoint.
type WebhookChannel struct {
	cfg    config.WebhookConfig
	client *http.Client
	logger *zap.SugaredLogger
}

// NewWebhookChannel creates a webhook channel. Certificate validation
// stays on and TLS 1.2 is the floor.
func NewWebhookChannel(cfg config.WebhookConfig, logger *zap.SugaredLogger) *WebhookChannel {
	return &WebhookChannel{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		logger: logger,
	}
}

// Name implements Channel.
func (c *WebhookChannel) Name() string { return "webhook" }

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, alert *core.SecurityAlert) error {
	if c.cfg.URL == "" {
		return fmt.Errorf("webhook channel not configured: url is empty")
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}

	method := c.cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Watchtower/1.0")
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debugf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}

	c.logger.Infow("Sent webhook notification", "alert_id", alert.AlertID, "status", resp.StatusCode)
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
)

func channelAlert() *core.SecurityAlert {
	alert := core.NewSecurityAlert(core.AlertThresholdExceeded, core.SeverityHigh, "threshold_authentication_failure")
	alert.Title = "Threshold exceeded: authentication_failure"
	alert.Message = "7 authentication_failure events in the last 60 minutes (threshold 5)"
	alert.EventType = core.EventAuthenticationFailure
	alert.AffectedIPs = []string{"10.0.0.1", "10.0.0.2"}
	return alert
}

func TestConsoleChannel_Send(t *testing.T) {
	c := NewConsoleChannel(zap.NewNop().Sugar())
	var buf bytes.Buffer
	c.out = &buf

	require.NoError(t, c.Send(context.Background(), channelAlert()))

	out := buf.String()
	assert.Contains(t, out, "[HIGH]")
	assert.Contains(t, out, "Threshold exceeded: authentication_failure")
	assert.Contains(t, out, "10.0.0.1, 10.0.0.2")
}

func TestWebhookChannel_Send(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "token", r.Header.Get("X-Auth"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewWebhookChannel(config.WebhookConfig{
		URL:     srv.URL,
		Headers: map[string]string{"X-Auth": "token"},
	}, zap.NewNop().Sugar())

	alert := channelAlert()
	require.NoError(t, c.Send(context.Background(), alert))
	assert.Equal(t, alert.AlertID, received["alert_id"])
	assert.Equal(t, "threshold_exceeded", received["kind"])
}

func TestWebhookChannel_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookChannel(config.WebhookConfig{URL: srv.URL}, zap.NewNop().Sugar())
	assert.Error(t, c.Send(context.Background(), channelAlert()))
}

func TestWebhookChannel_Unconfigured(t *testing.T) {
	c := NewWebhookChannel(config.WebhookConfig{}, zap.NewNop().Sugar())
	assert.Error(t, c.Send(context.Background(), channelAlert()))
}

func TestSlackChannel_Send(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSlackChannel(config.SlackConfig{WebhookURL: srv.URL}, zap.NewNop().Sugar())
	require.NoError(t, c.Send(context.Background(), channelAlert()))

	assert.Contains(t, payload["text"], "HIGH")
	attachments, ok := payload["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, attachments, 1)
}

func TestEmailChannel_Unconfigured(t *testing.T) {
	c := NewEmailChannel(config.EmailConfig{}, zap.NewNop().Sugar())
	assert.Error(t, c.Send(context.Background(), channelAlert()))

	c = NewEmailChannel(config.EmailConfig{SMTPHost: "smtp.example.com"}, zap.NewNop().Sugar())
	assert.Error(t, c.Send(context.Background(), channelAlert()))
}

func TestEmailChannel_SendHonorsDeadline(t *testing.T) {
	// A server that accepts the connection but never sends the SMTP
	// greeting. The send must fail by the context deadline instead of
	// holding a dispatch worker.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				<-done
				c.Close()
			}(conn)
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := NewEmailChannel(config.EmailConfig{
		SMTPHost:    host,
		SMTPPort:    port,
		FromAddress: "watchtower@example.com",
		ToAddresses: []string{"ops@example.com"},
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = c.Send(ctx, channelAlert())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewChannels_CoversConfiguredSet(t *testing.T) {
	channels := NewChannels(config.NotifyConfig{}, zap.NewNop().Sugar())
	for _, name := range []string{"console", "email", "webhook", "slack"} {
		ch, ok := channels[name]
		require.True(t, ok, name)
		assert.Equal(t, name, ch.Name())
	}
}

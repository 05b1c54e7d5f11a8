package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchtower/config"
	"watchtower/core"
)

type mockChannel struct {
	mu    sync.Mutex
	name  string
	err   error
	calls []*core.SecurityAlert
}

func (m *mockChannel) Name() string { return m.name }

func (m *mockChannel) Send(_ context.Context, alert *core.SecurityAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, alert)
	return m.err
}

func (m *mockChannel) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func testNotifyConfig(queueSize int) config.NotifyConfig {
	cfg := config.NotifyConfig{
		QueueSize:             queueSize,
		Workers:               1,
		ChannelTimeoutSeconds: 1,
		DispatchRatePerSecond: 1000,
		DispatchBurst:         1000,
	}
	cfg.CircuitBreaker.MaxFailures = 3
	cfg.CircuitBreaker.TimeoutSeconds = 60
	cfg.CircuitBreaker.MaxHalfOpenRequests = 1
	return cfg
}

func testDispatcher(t *testing.T, cfg config.NotifyConfig, channels map[string]Channel, active []string) *Dispatcher {
	t.Helper()
	settings := config.NewRuntime(&config.Config{
		Correlation: config.CorrelationConfig{
			Enabled:           true,
			TimeWindowMinutes: 60,
			CooldownMinutes:   30,
		},
		Notify: config.NotifyConfig{Channels: active},
	})
	d := NewDispatcher(cfg, settings, channels, zap.NewNop().Sugar())
	t.Cleanup(d.Stop)
	return d
}

func dispatchAlert() *core.SecurityAlert {
	alert := core.NewSecurityAlert(core.AlertCriticalEvent, core.SeverityCritical, "critical_sql_injection_attempt")
	alert.Title = "Critical security event: sql_injection_attempt"
	return alert
}

func TestDispatcher_DeliversToActiveChannels(t *testing.T) {
	primary := &mockChannel{name: "primary"}
	secondary := &mockChannel{name: "secondary"}
	d := testDispatcher(t, testNotifyConfig(8),
		map[string]Channel{"primary": primary, "secondary": secondary},
		[]string{"primary", "secondary"})
	d.Start()

	require.True(t, d.Enqueue(dispatchAlert()))

	require.Eventually(t, func() bool {
		return primary.count() == 1 && secondary.count() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	ch := &mockChannel{name: "primary"}
	d := testDispatcher(t, testNotifyConfig(1), map[string]Channel{"primary": ch}, []string{"primary"})
	// Workers not started: the queue fills up immediately.

	assert.True(t, d.Enqueue(dispatchAlert()))
	assert.False(t, d.Enqueue(dispatchAlert()))
}

func TestDispatcher_ChannelFailureIsIsolated(t *testing.T) {
	broken := &mockChannel{name: "broken", err: assert.AnError}
	working := &mockChannel{name: "working"}
	d := testDispatcher(t, testNotifyConfig(8),
		map[string]Channel{"broken": broken, "working": working},
		[]string{"broken", "working"})
	d.Start()

	require.True(t, d.Enqueue(dispatchAlert()))

	require.Eventually(t, func() bool {
		return working.count() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, broken.count())
}

func TestDispatcher_OpenBreakerSkipsChannel(t *testing.T) {
	cfg := testNotifyConfig(8)
	cfg.CircuitBreaker.MaxFailures = 1

	broken := &mockChannel{name: "broken", err: assert.AnError}
	working := &mockChannel{name: "working"}
	d := testDispatcher(t, cfg,
		map[string]Channel{"broken": broken, "working": working},
		[]string{"broken", "working"})
	d.Start()

	for i := 0; i < 3; i++ {
		require.True(t, d.Enqueue(dispatchAlert()))
	}

	require.Eventually(t, func() bool {
		return working.count() == 3
	}, 2*time.Second, 5*time.Millisecond)

	// First failure opened the breaker; the two later alerts skipped it.
	assert.Equal(t, 1, broken.count())
}

func TestDispatcher_UnknownChannelIsSkipped(t *testing.T) {
	working := &mockChannel{name: "working"}
	d := testDispatcher(t, testNotifyConfig(8),
		map[string]Channel{"working": working},
		[]string{"pager", "working"})
	d.Start()

	require.True(t, d.Enqueue(dispatchAlert()))
	require.Eventually(t, func() bool {
		return working.count() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"watchtower/core"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestEventStore_LogEventAssignsIdentity(t *testing.T) {
	s := NewEventStore(10, testLogger())

	event := &core.SecurityEvent{Type: core.EventAuthenticationFailure, SourceIP: "10.0.0.1"}
	stored := s.LogEvent(event)

	assert.NotEmpty(t, stored.EventID)
	assert.False(t, stored.Timestamp.IsZero())
	assert.Equal(t, core.SeverityLow, stored.Severity)
	assert.Equal(t, 1, s.Len())

	// Caller-provided identity is preserved.
	stamped := core.NewSecurityEvent(core.EventXSSAttempt)
	stamped.Timestamp = time.Now().UTC().Add(-time.Hour)
	stored = s.LogEvent(stamped)
	assert.Equal(t, stamped.EventID, stored.EventID)
	assert.Equal(t, stamped.Timestamp, stored.Timestamp)
}

func TestEventStore_LogEventClonesInput(t *testing.T) {
	s := NewEventStore(10, testLogger())

	event := core.NewSecurityEvent(core.EventSQLInjectionAttempt)
	event.SourceIP = "10.0.0.1"
	s.LogEvent(event)

	// Mutating the caller's copy must not rewrite history.
	event.SourceIP = "192.168.1.1"
	got := s.GetEventsByIP("10.0.0.1", time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, "10.0.0.1", got[0].SourceIP)
}

func TestEventStore_FIFOEviction(t *testing.T) {
	s := NewEventStore(3, testLogger())

	for i := 0; i < 5; i++ {
		event := core.NewSecurityEvent(core.EventInvalidInput)
		event.SourceIP = fmt.Sprintf("10.0.0.%d", i)
		s.LogEvent(event)
	}

	assert.Equal(t, 3, s.Len())
	assert.Empty(t, s.GetEventsByIP("10.0.0.0", time.Hour))
	assert.Empty(t, s.GetEventsByIP("10.0.0.1", time.Hour))
	assert.Len(t, s.GetEventsByIP("10.0.0.4", time.Hour), 1)
}

func TestEventStore_GetRecentEventsWindow(t *testing.T) {
	s := NewEventStore(10, testLogger())

	fresh := core.NewSecurityEvent(core.EventAuthenticationFailure)
	stale := core.NewSecurityEvent(core.EventAuthenticationFailure)
	stale.Timestamp = time.Now().UTC().Add(-20 * time.Minute)
	other := core.NewSecurityEvent(core.EventXSSAttempt)

	s.LogEvent(stale)
	s.LogEvent(fresh)
	s.LogEvent(other)

	got := s.GetRecentEvents(core.EventAuthenticationFailure, 15*time.Minute)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.EventID, got[0].EventID)

	// Empty type matches every kind.
	assert.Len(t, s.GetRecentEvents("", 15*time.Minute), 2)
	// Widening the window brings the stale event back.
	assert.Len(t, s.GetRecentEvents(core.EventAuthenticationFailure, time.Hour), 2)
}

func TestEventStore_GetRecentEventsInsertionOrder(t *testing.T) {
	s := NewEventStore(10, testLogger())

	first := s.LogEvent(core.NewSecurityEvent(core.EventRateLimitExceeded))
	second := s.LogEvent(core.NewSecurityEvent(core.EventRateLimitExceeded))

	got := s.GetRecentEvents(core.EventRateLimitExceeded, time.Hour)
	require.Len(t, got, 2)
	assert.Equal(t, first.EventID, got[0].EventID)
	assert.Equal(t, second.EventID, got[1].EventID)
}

func TestEventStore_GetStatsZeroInitialized(t *testing.T) {
	s := NewEventStore(10, testLogger())
	s.LogEvent(core.NewSecurityEvent(core.EventCSRFViolation))
	s.LogEvent(core.NewSecurityEvent(core.EventCSRFViolation))

	stats := s.GetStats(time.Hour)
	assert.Len(t, stats, len(core.AllEventTypes()))
	assert.Equal(t, 2, stats[core.EventCSRFViolation])

	count, ok := stats[core.EventDataExfiltrationAttempt]
	assert.True(t, ok)
	assert.Zero(t, count)
}

func TestEventStore_ClearOldEvents(t *testing.T) {
	s := NewEventStore(10, testLogger())

	old := core.NewSecurityEvent(core.EventIPBlocked)
	old.Timestamp = time.Now().UTC().Add(-2 * time.Hour)
	s.LogEvent(old)
	s.LogEvent(core.NewSecurityEvent(core.EventIPBlocked))

	removed := s.ClearOldEvents(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	assert.Zero(t, s.ClearOldEvents(time.Hour))
}

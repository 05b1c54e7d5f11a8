package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSecurityEvent(t *testing.T) {
	event := NewSecurityEvent(EventAuthenticationFailure)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, EventAuthenticationFailure, event.Type)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, SeverityLow, event.Severity)
	assert.NotNil(t, event.Metadata)
}

func TestEventType_IsValid(t *testing.T) {
	assert.True(t, EventSQLInjectionAttempt.IsValid())
	assert.True(t, EventRateLimitExceeded.IsValid())
	assert.False(t, EventType("made_up_event").IsValid())
	assert.False(t, EventType("").IsValid())
}

func TestAllEventTypes_Count(t *testing.T) {
	types := AllEventTypes()
	assert.Len(t, types, 20)

	seen := make(map[EventType]bool)
	for _, et := range types {
		assert.False(t, seen[et], "duplicate event type %s", et)
		seen[et] = true
	}
}

func TestSecurityEvent_Clone(t *testing.T) {
	event := NewSecurityEvent(EventSuspiciousRequest)
	event.SourceIP = "10.0.0.1"
	event.Headers = map[string]string{"X-Forwarded-For": "10.0.0.1"}
	event.Metadata["path"] = "/admin"

	clone := event.Clone()
	assert.Equal(t, event.EventID, clone.EventID)
	assert.Equal(t, event.SourceIP, clone.SourceIP)

	// Mutating the clone must not leak into the original.
	clone.Headers["X-Forwarded-For"] = "evil"
	clone.Metadata["path"] = "/login"
	assert.Equal(t, "10.0.0.1", event.Headers["X-Forwarded-For"])
	assert.Equal(t, "/admin", event.Metadata["path"])
}

func TestSecurityEvent_CloneNil(t *testing.T) {
	var event *SecurityEvent
	assert.Nil(t, event.Clone())
}

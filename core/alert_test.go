package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSecurityAlert(t *testing.T) {
	alert := NewSecurityAlert(AlertThresholdExceeded, SeverityHigh, "threshold_authentication_failure")

	assert.NotEmpty(t, alert.AlertID)
	assert.Equal(t, AlertThresholdExceeded, alert.Kind)
	assert.Equal(t, SeverityHigh, alert.Severity)
	assert.False(t, alert.Acknowledged)
	assert.Nil(t, alert.ResolvedAt)
	assert.NotEmpty(t, alert.Fingerprint)
}

func TestAlertFingerprint_Stable(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 15, 0, time.UTC)

	a := AlertFingerprint(AlertSuspiciousPattern, "pattern_brute_force_attack", ts)
	b := AlertFingerprint(AlertSuspiciousPattern, "pattern_brute_force_attack", ts.Add(10*time.Second))
	assert.Equal(t, a, b, "fingerprints within the same minute bucket should match")

	c := AlertFingerprint(AlertSuspiciousPattern, "pattern_brute_force_attack", ts.Add(2*time.Minute))
	assert.NotEqual(t, a, c)

	d := AlertFingerprint(AlertCriticalEvent, "pattern_brute_force_attack", ts)
	assert.NotEqual(t, a, d, "different kinds should never collide")
}

func TestSecurityAlert_Resolved(t *testing.T) {
	alert := NewSecurityAlert(AlertCriticalEvent, SeverityCritical, "critical_sql_injection_attempt")
	assert.False(t, alert.Resolved())

	now := time.Now().UTC()
	alert.ResolvedAt = &now
	assert.True(t, alert.Resolved())
}

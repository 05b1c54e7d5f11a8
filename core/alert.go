package core

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// AlertKind identifies which detector family produced an alert.
type AlertKind string

const (
	// AlertThresholdExceeded is produced when same-type event volume
	// crosses a configured threshold inside the time window.
	AlertThresholdExceeded AlertKind = "threshold_exceeded"
	// AlertSuspiciousPattern is produced when a pattern rule's conditions
	// all match.
	AlertSuspiciousPattern AlertKind = "suspicious_pattern"
	// AlertCriticalEvent is produced unconditionally for the fixed set of
	// critical event types.
	AlertCriticalEvent AlertKind = "critical_event"
)

// String returns the string representation
func (k AlertKind) String() string {
	return string(k)
}

// SecurityAlert is a derived notification produced when events satisfy a
// threshold or pattern rule. Acknowledged and ResolvedAt are independent:
// an alert may be resolved without ever being acknowledged.
type SecurityAlert struct {
	AlertID       string                 `json:"alert_id"`
	Kind          AlertKind              `json:"kind"`
	Severity      Severity               `json:"severity"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message"`
	EventType     EventType              `json:"event_type"`
	EventCount    int                    `json:"event_count"`
	Threshold     int                    `json:"threshold"`
	WindowMinutes int                    `json:"window_minutes"`
	AffectedIPs   []string               `json:"affected_ips"`
	Timestamp     time.Time              `json:"timestamp"`
	Acknowledged  bool                   `json:"acknowledged"`
	ResolvedAt    *time.Time             `json:"resolved_at,omitempty"`
	Fingerprint   string                 `json:"fingerprint"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// NewSecurityAlert creates an alert with a generated UUID, UTC timestamp,
// and a fingerprint derived from the suppression key.
func NewSecurityAlert(kind AlertKind, severity Severity, suppressionKey string) *SecurityAlert {
	now := time.Now().UTC()
	return &SecurityAlert{
		AlertID:     uuid.New().String(),
		Kind:        kind,
		Severity:    severity,
		Timestamp:   now,
		Fingerprint: AlertFingerprint(kind, suppressionKey, now),
		Metadata:    make(map[string]interface{}),
	}
}

// AlertFingerprint generates a fast non-cryptographic hash identifying an
// alert by kind, suppression key, and minute bucket. External consumers use
// it for cross-system deduplication.
func AlertFingerprint(kind AlertKind, suppressionKey string, ts time.Time) string {
	data := fmt.Sprintf("%s-%s-%d", kind, suppressionKey, ts.Unix()/60)
	return fmt.Sprintf("%016x", xxhash.Sum64String(data))
}

// Resolved reports whether a resolution timestamp has been set.
func (a *SecurityAlert) Resolved() bool {
	return a.ResolvedAt != nil
}

// Clone returns a deep copy of the alert. The alert store hands out
// clones so concurrent readers never race with acknowledge/resolve.
func (a *SecurityAlert) Clone() *SecurityAlert {
	if a == nil {
		return nil
	}
	clone := *a
	if a.AffectedIPs != nil {
		clone.AffectedIPs = append([]string(nil), a.AffectedIPs...)
	}
	if a.ResolvedAt != nil {
		resolved := *a.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	if a.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(a.Metadata))
		for k, v := range a.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a security event. The set is closed: detectors and
// statistics are defined over exactly these kinds.
type EventType string

const (
	EventAuthenticationFailure       EventType = "authentication_failure"
	EventAuthenticationSuccess       EventType = "authentication_success"
	EventAuthorizationFailure        EventType = "authorization_failure"
	EventSQLInjectionAttempt         EventType = "sql_injection_attempt"
	EventXSSAttempt                  EventType = "xss_attempt"
	EventCSRFViolation               EventType = "csrf_violation"
	EventRateLimitExceeded           EventType = "rate_limit_exceeded"
	EventSuspiciousRequest           EventType = "suspicious_request"
	EventSessionHijackAttempt        EventType = "session_hijack_attempt"
	EventPrivilegeEscalationAttempt  EventType = "privilege_escalation_attempt"
	EventDataExfiltrationAttempt     EventType = "data_exfiltration_attempt"
	EventPathTraversalAttempt        EventType = "path_traversal_attempt"
	EventCommandInjectionAttempt     EventType = "command_injection_attempt"
	EventFileUploadViolation         EventType = "file_upload_violation"
	EventInvalidInput                EventType = "invalid_input"
	EventAccountLockout              EventType = "account_lockout"
	EventPasswordResetRequest        EventType = "password_reset_request"
	EventSuspiciousUserAgent         EventType = "suspicious_user_agent"
	EventIPBlocked                   EventType = "ip_blocked"
	EventAnomalousTraffic            EventType = "anomalous_traffic"
)

// AllEventTypes returns every known event type. The slice is freshly
// allocated so callers may not corrupt the canonical order.
func AllEventTypes() []EventType {
	return []EventType{
		EventAuthenticationFailure,
		EventAuthenticationSuccess,
		EventAuthorizationFailure,
		EventSQLInjectionAttempt,
		EventXSSAttempt,
		EventCSRFViolation,
		EventRateLimitExceeded,
		EventSuspiciousRequest,
		EventSessionHijackAttempt,
		EventPrivilegeEscalationAttempt,
		EventDataExfiltrationAttempt,
		EventPathTraversalAttempt,
		EventCommandInjectionAttempt,
		EventFileUploadViolation,
		EventInvalidInput,
		EventAccountLockout,
		EventPasswordResetRequest,
		EventSuspiciousUserAgent,
		EventIPBlocked,
		EventAnomalousTraffic,
	}
}

// String returns the string representation
func (t EventType) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the known kinds
func (t EventType) IsValid() bool {
	for _, known := range AllEventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// SecurityEvent represents a single observed security-relevant occurrence.
// Events are immutable once stored: the store hands out copies and never
// mutates an appended record.
type SecurityEvent struct {
	EventID    string                 `json:"event_id"`
	Type       EventType              `json:"type" validate:"required"`
	Timestamp  time.Time              `json:"timestamp"`
	SourceIP   string                 `json:"source_ip"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	UserID     string                 `json:"user_id,omitempty"`
	SessionID  string                 `json:"session_id,omitempty"`
	RequestURL string                 `json:"request_url,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Headers    map[string]string      `json:"headers,omitempty"`
	Payload    string                 `json:"payload,omitempty"`
	RiskScore  int                    `json:"risk_score" validate:"gte=0,lte=100"`
	Severity   Severity               `json:"severity"`
	Blocked    bool                   `json:"blocked"`
	Reason     string                 `json:"reason,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewSecurityEvent creates a new SecurityEvent with a generated UUID and
// UTC timestamp.
func NewSecurityEvent(eventType EventType) *SecurityEvent {
	return &SecurityEvent{
		EventID:   uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Severity:  SeverityLow,
		Metadata:  make(map[string]interface{}),
	}
}

// Clone returns a deep copy of the event. Stores return clones so callers
// cannot mutate history in place.
func (e *SecurityEvent) Clone() *SecurityEvent {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Headers != nil {
		clone.Headers = make(map[string]string, len(e.Headers))
		for k, v := range e.Headers {
			clone.Headers[k] = v
		}
	}
	if e.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

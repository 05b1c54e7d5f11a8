package correlate

import (
	"fmt"
	"sort"

	"watchtower/core"
)

// fieldAccessors maps condition field names to typed getters. A closed
// table keeps evaluation reflection-free and makes the set of queryable
// fields explicit.
var fieldAccessors = map[string]func(*core.SecurityEvent) interface{}{
	"type":        func(e *core.SecurityEvent) interface{} { return e.Type.String() },
	"source_ip":   func(e *core.SecurityEvent) interface{} { return e.SourceIP },
	"user_agent":  func(e *core.SecurityEvent) interface{} { return e.UserAgent },
	"user_id":     func(e *core.SecurityEvent) interface{} { return e.UserID },
	"session_id":  func(e *core.SecurityEvent) interface{} { return e.SessionID },
	"request_url": func(e *core.SecurityEvent) interface{} { return e.RequestURL },
	"method":      func(e *core.SecurityEvent) interface{} { return e.Method },
	"payload":     func(e *core.SecurityEvent) interface{} { return e.Payload },
	"risk_score":  func(e *core.SecurityEvent) interface{} { return e.RiskScore },
	"severity":    func(e *core.SecurityEvent) interface{} { return e.Severity.String() },
	"blocked":     func(e *core.SecurityEvent) interface{} { return e.Blocked },
	"reason":      func(e *core.SecurityEvent) interface{} { return e.Reason },
}

// KnownFields returns the sorted set of condition field names.
func KnownFields() []string {
	fields := make([]string, 0, len(fieldAccessors))
	for name := range fieldAccessors {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// IsKnownField reports whether a condition field name resolves.
func IsKnownField(name string) bool {
	_, ok := fieldAccessors[name]
	return ok
}

// fieldValue resolves a field name against an event.
func fieldValue(event *core.SecurityEvent, field string) (interface{}, error) {
	accessor, ok := fieldAccessors[field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", field)
	}
	return accessor(event), nil
}

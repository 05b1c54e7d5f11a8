package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchtower/core"
)

func TestEvaluateCondition_Operators(t *testing.T) {
	m := testMatchers(t)

	event := core.NewSecurityEvent(core.EventSuspiciousRequest)
	event.SourceIP = "203.0.113.7"
	event.UserAgent = "sqlmap/1.7.2#stable (http://sqlmap.org)"
	event.RequestURL = "/api/users?id=1' OR '1'='1"
	event.RiskScore = 82
	event.Blocked = true

	tests := []struct {
		name string
		cond core.Condition
		want bool
	}{
		{"equals match", core.Condition{Field: "type", Operator: core.OpEquals, Value: "suspicious_request"}, true},
		{"equals mismatch", core.Condition{Field: "type", Operator: core.OpEquals, Value: "xss_attempt"}, false},
		{"equals is case sensitive by default", core.Condition{Field: "source_ip", Operator: core.OpEquals, Value: "203.0.113.7"}, true},
		{"contains", core.Condition{Field: "request_url", Operator: core.OpContains, Value: "OR '1'='1"}, true},
		{"contains ignore case", core.Condition{Field: "user_agent", Operator: core.OpContains, Value: "SQLMAP", IgnoreCase: true}, true},
		{"greater_than", core.Condition{Field: "risk_score", Operator: core.OpGreaterThan, Value: "75"}, true},
		{"greater_than boundary", core.Condition{Field: "risk_score", Operator: core.OpGreaterThan, Value: "82"}, false},
		{"less_than", core.Condition{Field: "risk_score", Operator: core.OpLessThan, Value: "100"}, true},
		{"regex", core.Condition{Field: "user_agent", Operator: core.OpRegex, Value: "sqlmap|nikto", IgnoreCase: true}, true},
		{"boolean field stringified", core.Condition{Field: "blocked", Operator: core.OpEquals, Value: "true"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.evaluateCondition(tt.cond, event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateCondition_Errors(t *testing.T) {
	m := testMatchers(t)
	event := core.NewSecurityEvent(core.EventInvalidInput)

	_, err := m.evaluateCondition(core.Condition{Field: "no_such_field", Operator: core.OpEquals, Value: "x"}, event)
	assert.Error(t, err)

	// Numeric coercion of a non-numeric field fails.
	_, err = m.evaluateCondition(core.Condition{Field: "user_agent", Operator: core.OpGreaterThan, Value: "5"}, event)
	assert.Error(t, err)

	_, err = m.evaluateCondition(core.Condition{Field: "risk_score", Operator: core.OpGreaterThan, Value: "high"}, event)
	assert.Error(t, err)
}

func TestKnownFields(t *testing.T) {
	fields := KnownFields()
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "risk_score")
	assert.Contains(t, fields, "user_agent")
	assert.True(t, IsKnownField("source_ip"))
	assert.False(t, IsKnownField("headers"))
}

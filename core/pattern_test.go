package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validRule() PatternRule {
	return PatternRule{
		Name:        "Brute Force Attack",
		Description: "Multiple failed authentication attempts",
		Severity:    SeverityCritical,
		Action:      ActionBlock,
		Conditions: []Condition{
			{
				Field:         "type",
				Operator:      OpEquals,
				Value:         "authentication_failure",
				WindowMinutes: 15,
				RequiredCount: 5,
			},
		},
	}
}

func TestPatternRule_Validate(t *testing.T) {
	assert.NoError(t, validRule().Validate())
}

func TestPatternRule_ValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PatternRule)
	}{
		{"empty name", func(r *PatternRule) { r.Name = "  " }},
		{"no conditions", func(r *PatternRule) { r.Conditions = nil }},
		{"bad severity", func(r *PatternRule) { r.Severity = "urgent" }},
		{"bad action", func(r *PatternRule) { r.Action = "explode" }},
		{"bad operator", func(r *PatternRule) { r.Conditions[0].Operator = "matches" }},
		{"missing field", func(r *PatternRule) { r.Conditions[0].Field = "" }},
		{"window without count", func(r *PatternRule) { r.Conditions[0].RequiredCount = 0 }},
		{"count without window", func(r *PatternRule) { r.Conditions[0].WindowMinutes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)
			err := rule.Validate()
			assert.Error(t, err)

			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestPatternRule_SuppressionKey(t *testing.T) {
	rule := validRule()
	assert.Equal(t, "pattern_brute_force_attack", rule.SuppressionKey())

	other := rule
	other.Name = "  Brute FORCE Attack "
	assert.Equal(t, rule.SuppressionKey(), other.SuppressionKey())
}

func TestCondition_IsAggregate(t *testing.T) {
	single := Condition{Field: "user_agent", Operator: OpRegex, Value: "sqlmap"}
	assert.False(t, single.IsAggregate())

	aggregate := Condition{Field: "type", Operator: OpEquals, Value: "xss_attempt", WindowMinutes: 30, RequiredCount: 2}
	assert.True(t, aggregate.IsAggregate())
}

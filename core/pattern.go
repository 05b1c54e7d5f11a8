package core

import (
	"fmt"
	"strings"
)

// RuleAction describes what should happen when a pattern rule fires.
// Only "alert" and "monitor" affect this engine; "block" is a hint
// consumed by an external enforcement layer.
type RuleAction string

const (
	ActionAlert   RuleAction = "alert"
	ActionBlock   RuleAction = "block"
	ActionMonitor RuleAction = "monitor"
)

// IsValid checks if the action is known
func (a RuleAction) IsValid() bool {
	switch a {
	case ActionAlert, ActionBlock, ActionMonitor:
		return true
	default:
		return false
	}
}

// ConditionOperator is the comparison applied by a condition.
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "equals"
	OpContains    ConditionOperator = "contains"
	OpGreaterThan ConditionOperator = "greater_than"
	OpLessThan    ConditionOperator = "less_than"
	OpRegex       ConditionOperator = "regex"
)

// IsValid checks if the operator is known
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OpEquals, OpContains, OpGreaterThan, OpLessThan, OpRegex:
		return true
	default:
		return false
	}
}

// Condition is the portable descriptor form of a single rule condition.
// Regex conditions carry the pattern string here; the correlation engine
// compiles and owns the matcher at registration time.
//
// A condition with both WindowMinutes and RequiredCount set is an
// aggregate condition: it counts matching events in the trailing window
// instead of testing only the current event.
type Condition struct {
	Field         string            `json:"field" yaml:"field" validate:"required"`
	Operator      ConditionOperator `json:"operator" yaml:"operator" validate:"required"`
	Value         string            `json:"value" yaml:"value"`
	IgnoreCase    bool              `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty"`
	WindowMinutes int               `json:"window_minutes,omitempty" yaml:"window_minutes,omitempty" validate:"gte=0"`
	RequiredCount int               `json:"required_count,omitempty" yaml:"required_count,omitempty" validate:"gte=0"`
}

// IsAggregate reports whether the condition counts events over a window.
func (c Condition) IsAggregate() bool {
	return c.WindowMinutes > 0 && c.RequiredCount > 0
}

// PatternRule is a named detection rule. A rule matches an event only if
// all of its conditions match.
type PatternRule struct {
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Description string      `json:"description" yaml:"description"`
	Conditions  []Condition `json:"conditions" yaml:"conditions" validate:"required,min=1,dive"`
	Severity    Severity    `json:"severity" yaml:"severity" validate:"required"`
	Action      RuleAction  `json:"action" yaml:"action" validate:"required"`
}

// SuppressionKey returns the cooldown key for this rule. Rule names are
// normalized so distinct rules never collide and renames stay stable
// across whitespace and case differences.
func (r PatternRule) SuppressionKey() string {
	normalized := strings.ToLower(strings.TrimSpace(r.Name))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	return "pattern_" + normalized
}

// Validate performs structural validation of the rule descriptor.
// Field names are resolved by the correlation engine's accessor table;
// everything else is checked here.
func (r PatternRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewConfigurationError("pattern rule name is required", nil)
	}
	if len(r.Conditions) == 0 {
		return NewConfigurationError(fmt.Sprintf("rule %q has no conditions", r.Name), nil)
	}
	if !r.Severity.IsValid() {
		return NewConfigurationError(fmt.Sprintf("rule %q has invalid severity %q", r.Name, r.Severity), nil)
	}
	if !r.Action.IsValid() {
		return NewConfigurationError(fmt.Sprintf("rule %q has invalid action %q", r.Name, r.Action), nil)
	}
	for i, cond := range r.Conditions {
		if !cond.Operator.IsValid() {
			return NewConfigurationError(fmt.Sprintf("rule %q condition %d has invalid operator %q", r.Name, i, cond.Operator), nil)
		}
		if cond.Field == "" {
			return NewConfigurationError(fmt.Sprintf("rule %q condition %d has no target field", r.Name, i), nil)
		}
		// Window and count come as a pair for aggregate conditions.
		if (cond.WindowMinutes > 0) != (cond.RequiredCount > 0) {
			return NewConfigurationError(fmt.Sprintf("rule %q condition %d must set window_minutes and required_count together", r.Name, i), nil)
		}
	}
	return nil
}

package correlate

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"watchtower/core"
)

// Registry holds the active pattern rules. It ships with the built-in
// rule set and accepts custom rules at runtime; there is no removal API.
type Registry struct {
	mu       sync.RWMutex
	rules    []*core.PatternRule
	matchers *Matchers
	logger   *zap.SugaredLogger
}

// NewRegistry creates a registry seeded with the built-in rules. The
// built-ins are validated on the way in like any other rule, so a broken
// built-in fails construction instead of silently never matching.
func NewRegistry(matchers *Matchers, logger *zap.SugaredLogger) (*Registry, error) {
	r := &Registry{matchers: matchers, logger: logger}
	for _, rule := range BuiltinRules() {
		if err := r.Add(rule); err != nil {
			return nil, fmt.Errorf("registering built-in rule %q: %w", rule.Name, err)
		}
	}
	return r, nil
}

// BuiltinRules returns the detection rules shipped out of the box.
func BuiltinRules() []*core.PatternRule {
	return []*core.PatternRule{
		{
			Name:        "Brute Force Attack",
			Description: "Repeated authentication failures in a short window",
			Severity:    core.SeverityCritical,
			Action:      core.ActionBlock,
			Conditions: []core.Condition{
				{
					Field:         "type",
					Operator:      core.OpEquals,
					Value:         core.EventAuthenticationFailure.String(),
					WindowMinutes: 15,
					RequiredCount: 5,
				},
			},
		},
		{
			Name:        "SQL Injection Campaign",
			Description: "Multiple SQL injection attempts in a short window",
			Severity:    core.SeverityCritical,
			Action:      core.ActionAlert,
			Conditions: []core.Condition{
				{
					Field:         "type",
					Operator:      core.OpEquals,
					Value:         core.EventSQLInjectionAttempt.String(),
					WindowMinutes: 30,
					RequiredCount: 2,
				},
			},
		},
		{
			Name:        "Suspicious User Agent",
			Description: "Request from a known scanner or attack tool",
			Severity:    core.SeverityWarning,
			Action:      core.ActionMonitor,
			Conditions: []core.Condition{
				{
					Field:      "user_agent",
					Operator:   core.OpRegex,
					Value:      "sqlmap|nikto|nessus|nmap|masscan|dirbuster|gobuster|wpscan|acunetix|burpsuite",
					IgnoreCase: true,
				},
			},
		},
		{
			Name:        "High Risk Score",
			Description: "Sustained stream of high-risk events",
			Severity:    core.SeverityCritical,
			Action:      core.ActionAlert,
			Conditions: []core.Condition{
				{
					Field:         "risk_score",
					Operator:      core.OpGreaterThan,
					Value:         "75",
					WindowMinutes: 30,
					RequiredCount: 3,
				},
			},
		},
		{
			Name:        "Rapid Fire Requests",
			Description: "Burst of rate limit violations",
			Severity:    core.SeverityWarning,
			Action:      core.ActionMonitor,
			Conditions: []core.Condition{
				{
					Field:         "type",
					Operator:      core.OpEquals,
					Value:         core.EventRateLimitExceeded.String(),
					WindowMinutes: 5,
					RequiredCount: 10,
				},
			},
		},
	}
}

// Add validates and registers a rule. Regex conditions are compiled here
// so malformed or dangerous patterns are rejected at registration instead
// of failing on the hot path.
func (r *Registry) Add(rule *core.PatternRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	for _, cond := range rule.Conditions {
		if !IsKnownField(cond.Field) {
			return core.NewConfigurationError(
				fmt.Sprintf("rule %q references unknown field %q", rule.Name, cond.Field), nil)
		}
		if cond.Operator == core.OpRegex {
			if _, err := r.matchers.Compile(cond.Value, cond.IgnoreCase); err != nil {
				return core.NewConfigurationError(
					fmt.Sprintf("rule %q has invalid regex condition", rule.Name), err)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rules {
		if existing.Name == rule.Name {
			return core.NewConfigurationError(fmt.Sprintf("rule %q already registered", rule.Name), nil)
		}
	}
	r.rules = append(r.rules, rule)
	r.logger.Infow("Registered pattern rule", "rule", rule.Name, "severity", rule.Severity, "conditions", len(rule.Conditions))
	return nil
}

// Rules returns a snapshot of the registered rules in registration order.
func (r *Registry) Rules() []*core.PatternRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*core.PatternRule(nil), r.rules...)
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

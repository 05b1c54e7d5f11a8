package core

import "fmt"

// ConfigurationError indicates malformed threshold or pattern configuration.
// It is rejected at load/registration time and never surfaces on the
// ingestion path.
type ConfigurationError struct {
	Reason string
	Err    error
}

// NewConfigurationError creates a ConfigurationError
func NewConfigurationError(reason string, err error) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Err: err}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DispatchError indicates a notification channel send failed. It is caught
// and logged with the channel identity; it never propagates to the
// ingestion caller.
type DispatchError struct {
	Channel string
	Err     error
}

// NewDispatchError creates a DispatchError
func NewDispatchError(channel string, err error) *DispatchError {
	return &DispatchError{Channel: channel, Err: err}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to channel %s failed: %v", e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// EvaluationError indicates a condition could not be evaluated: its target
// field is unknown, a regex is invalid, or matching timed out. The outcome
// of a failing condition is governed by the configured fail-open policy.
type EvaluationError struct {
	Rule  string
	Field string
	Err   error
}

// NewEvaluationError creates an EvaluationError
func NewEvaluationError(rule, field string, err error) *EvaluationError {
	return &EvaluationError{Rule: rule, Field: field, Err: err}
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating rule %s field %s: %v", e.Rule, e.Field, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

package correlate

import (
	"fmt"
	"strconv"
	"strings"

	"watchtower/core"
)

// evaluateCondition tests a single condition's operator against one
// event, ignoring the aggregate window. Aggregate counting is the
// engine's job; this is the per-event predicate both paths share.
func (m *Matchers) evaluateCondition(cond core.Condition, event *core.SecurityEvent) (bool, error) {
	value, err := fieldValue(event, cond.Field)
	if err != nil {
		return false, err
	}

	switch cond.Operator {
	case core.OpEquals:
		if cond.IgnoreCase {
			return strings.EqualFold(stringify(value), cond.Value), nil
		}
		return stringify(value) == cond.Value, nil

	case core.OpContains:
		haystack := stringify(value)
		needle := cond.Value
		if cond.IgnoreCase {
			haystack = strings.ToLower(haystack)
			needle = strings.ToLower(needle)
		}
		return strings.Contains(haystack, needle), nil

	case core.OpGreaterThan, core.OpLessThan:
		fieldNum, err := toFloat(value)
		if err != nil {
			return false, err
		}
		condNum, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
		if err != nil {
			return false, fmt.Errorf("non-numeric comparison value %q: %w", cond.Value, err)
		}
		if cond.Operator == core.OpGreaterThan {
			return fieldNum > condNum, nil
		}
		return fieldNum < condNum, nil

	case core.OpRegex:
		return m.Match(cond.Value, stringify(value), cond.IgnoreCase)

	default:
		return false, fmt.Errorf("unknown operator %q", cond.Operator)
	}
}

// stringify renders a field value for string operators.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toFloat coerces a field value for numeric operators.
func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric field value %q: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("field value %v (%T) is not numeric", value, value)
	}
}

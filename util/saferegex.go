// Package util provides shared helpers, currently regex safety validation
// applied before user-supplied patterns reach the matching engine.
package util

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxRegexLength is the default maximum accepted pattern length.
const MaxRegexLength = 500

// maxAlternations bounds the number of | branches in a single pattern.
const maxAlternations = 50

var repetitionRange = regexp.MustCompile(`\{(\d+)(?:,\d*)?\}`)

// RegexValidator rejects regex patterns that are syntactically invalid or
// carry constructs prone to catastrophic backtracking. Validation happens
// once at rule registration; the match-time guard is the engine's
// MatchTimeout.
type RegexValidator struct {
	maxLength int
}

// NewRegexValidator creates a validator with the given length cap. A
// non-positive cap falls back to MaxRegexLength.
func NewRegexValidator(maxLength int) *RegexValidator {
	if maxLength <= 0 {
		maxLength = MaxRegexLength
	}
	return &RegexValidator{maxLength: maxLength}
}

// ValidatePattern checks a pattern for safety before compilation.
func (rv *RegexValidator) ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("regex pattern cannot be empty")
	}
	if len(pattern) > rv.maxLength {
		return fmt.Errorf("regex pattern too long: %d characters (max %d)", len(pattern), rv.maxLength)
	}
	if err := checkNestedQuantifiers(pattern); err != nil {
		return err
	}
	if n := strings.Count(pattern, "|"); n > maxAlternations {
		return fmt.Errorf("too many alternations: %d (max %d)", n, maxAlternations)
	}
	if err := checkRepetitionBounds(pattern); err != nil {
		return err
	}
	if err := checkNesting(pattern); err != nil {
		return err
	}
	return nil
}

// checkNestedQuantifiers rejects adjacent quantifier sequences that can
// cause exponential backtracking.
func checkNestedQuantifiers(pattern string) error {
	dangerous := []string{
		")+*", ")*+", ")+{", ")*{",
		"}+*", "}*+", "}+{", "}*{",
		"++", "**", "*+", "+*",
	}
	for _, d := range dangerous {
		if strings.Contains(pattern, d) {
			return fmt.Errorf("pattern contains nested quantifiers which may cause ReDoS: found %q", d)
		}
	}
	return nil
}

// checkRepetitionBounds rejects repetition ranges of 1000 or more.
func checkRepetitionBounds(pattern string) error {
	for _, match := range repetitionRange.FindAllStringSubmatch(pattern, -1) {
		var count int
		fmt.Sscanf(match[1], "%d", &count)
		if count >= 1000 {
			return fmt.Errorf("excessive repetition: %s (max 999)", match[0])
		}
	}
	return nil
}

// checkNesting enforces balanced parentheses and a group depth of at
// most 3.
func checkNesting(pattern string) error {
	depth := 0
	escaped := false
	for _, ch := range pattern {
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '(':
			depth++
			if depth > 3 {
				return fmt.Errorf("pattern has excessive nesting depth: %d (max 3)", depth)
			}
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("pattern has unmatched closing parenthesis")
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("pattern has unmatched parentheses")
	}
	return nil
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityLow))
	assert.True(t, SeverityWarning.AtLeast(SeverityMedium))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.False(t, Severity("bogus").AtLeast(SeverityLow))
}

func TestSeverity_IsValid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityWarning, SeverityHigh, SeverityCritical} {
		assert.True(t, s.IsValid(), "severity %s should be valid", s)
	}
	assert.False(t, Severity("info").IsValid())
}

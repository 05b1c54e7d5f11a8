package core

// Severity is the ordinal risk classification attached to events and alerts.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	// SeverityWarning sits between medium and high; pattern rules imported
	// from scanner-style tooling commonly use it.
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityOrder maps severities to comparable ranks. Unknown severities
// rank lowest.
var severityOrder = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityWarning:  3,
	SeverityHigh:     4,
	SeverityCritical: 5,
}

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is a known level
func (s Severity) IsValid() bool {
	_, ok := severityOrder[s]
	return ok
}

// AtLeast reports whether s ranks at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return severityOrder[s] >= severityOrder[min]
}

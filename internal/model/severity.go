package model

import "strings"

const (
	SeverityNone     = "None"
	SeverityMild     = "Mild"
	SeverityModerate = "Moderate"
	SeveritySevere   = "Severe"
)

// severityFor grades a positive finding by its confidence. A normal
// classification has no severity.
func severityFor(class string, confidence float32) string {
	if strings.EqualFold(class, "NORMAL") {
		return SeverityNone
	}
	switch {
	case confidence >= 0.90:
		return SeveritySevere
	case confidence >= 0.75:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

package models

import "strings"

// ClassLabel is one of the fixed cohort labels that scope content visibility.
type ClassLabel string

const (
	Class6  ClassLabel = "Class 6"
	Class7  ClassLabel = "Class 7"
	Class8  ClassLabel = "Class 8"
	Class9  ClassLabel = "Class 9"
	Class10 ClassLabel = "Class 10"
	Class11 ClassLabel = "Class 11"
	Class12 ClassLabel = "Class 12"
)

var allClasses = []ClassLabel{Class6, Class7, Class8, Class9, Class10, Class11, Class12}

// AllClasses returns the supported class labels in ascending order.
func AllClasses() []ClassLabel {
	out := make([]ClassLabel, len(allClasses))
	copy(out, allClasses)
	return out
}

// Valid reports whether the label is one of the supported classes.
func (c ClassLabel) Valid() bool {
	switch c {
	case Class6, Class7, Class8, Class9, Class10, Class11, Class12:
		return true
	default:
		return false
	}
}

// ParseClassLabel accepts "Class 8", "class 8" or "8".
func ParseClassLabel(raw string) (ClassLabel, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	for _, c := range allClasses {
		if strings.EqualFold(trimmed, string(c)) || trimmed == strings.TrimPrefix(string(c), "Class ") {
			return c, true
		}
	}
	return "", false
}

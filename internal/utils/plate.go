package utils

import (
	"strings"
	"unicode"
)

// NormalizePlate upper-cases a licence plate and drops spaces and dashes so
// "ab-123 cd" and "AB123CD" compare equal.
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(plate) {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package utils

import (
	"strings"
	"unicode"
)

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}

	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}

	local, domain := parts[0], parts[1]
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".")
}

// Slugify lowercases a display name, replaces whitespace runs with a dot and
// strips everything that is not alphanumeric or a dot. "Ravi  Kumar" -> "ravi.kumar".
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	lastDot := false
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r):
			if !lastDot && b.Len() > 0 {
				b.WriteRune('.')
				lastDot = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.':
			b.WriteRune(r)
			lastDot = r == '.'
		}
	}

	return strings.Trim(b.String(), ".")
}

// StripLeadingNumber drops a leading numeric token from a display name.
// Vendor exports prefix names with a row id, e.g. "4 Saravanan" -> "Saravanan".
func StripLeadingNumber(name string) string {
	trimmed := strings.TrimSpace(name)
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return trimmed
	}

	for _, r := range fields[0] {
		if !unicode.IsDigit(r) {
			return trimmed
		}
	}

	return strings.Join(fields[1:], " ")
}

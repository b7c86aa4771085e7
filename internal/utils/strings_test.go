package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Ravi Kumar":      "ravi.kumar",
		"  Ravi   Kumar ": "ravi.kumar",
		"O'Brien":         "obrien",
		"worker 7":        "worker.7",
		"...":             "",
		"":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestStripLeadingNumber(t *testing.T) {
	assert.Equal(t, "Saravanan", StripLeadingNumber("4 Saravanan"))
	assert.Equal(t, "Ravi Kumar", StripLeadingNumber("12 Ravi Kumar"))
	assert.Equal(t, "Ravi Kumar", StripLeadingNumber("Ravi Kumar"))
	// A bare number has nothing to fall back to.
	assert.Equal(t, "42", StripLeadingNumber("42"))
	// Mixed token is not a row id.
	assert.Equal(t, "4a Saravanan", StripLeadingNumber("4a Saravanan"))
	assert.Equal(t, "trimmed", StripLeadingNumber("  trimmed  "))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("ravi.kumar@worker.local"))
	assert.True(t, IsValidEmail("  ADMIN@Site.Example "))
	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("no-at-sign"))
	assert.False(t, IsValidEmail("two@@ats"))
	assert.False(t, IsValidEmail("user@x"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "admin@site.example", NormalizeEmail("  ADMIN@Site.Example "))
}

package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Dune", "Dune"},
		{"slashes", "Fahrenheit 451/2", "Fahrenheit 4512"},
		{"colons and quotes", `Dune: "Messiah"`, "Dune Messiah"},
		{"newlines collapse", "One\nTwo\tThree", "One Two Three"},
		{"multiple spaces", "A    B", "A B"},
		{"empty", "", "Untitled"},
		{"only invalid", `<>:"/\|?*`, "Untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilenameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 300)
	out := SanitizeFilename(long)
	assert.LessOrEqual(t, len(out), 200)
	assert.NotEmpty(t, out)
}

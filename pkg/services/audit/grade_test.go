package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractGrade(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ordinal grade", "Ambur Municipality Grade I", "Grade I"},
		{"ordinal grade two", "Arakkonam GRADE II Municipality", "Grade II"},
		{"ordinal grade lowercase", "pallavaram grade iii", "Grade III"},
		{"selection grade", "Kumbakonam Selection Grade Municipality", "Selection Grade"},
		{"special grade", "Tambaram SPECIAL GRADE Municipality", "Special Grade"},
		{"corporation", "Chennai Municipal Corporation", "Municipal Corporation"},
		{"corporation without municipal", "Coimbatore City Corporation", "Municipal Corporation"},
		{"plain municipality", "XYZ Municipality", "Municipality (Unclassified)"},
		{"no pattern at all", "Ooty Town Panchayat", "Unclassified"},
		{"empty name", "", "Unclassified"},
		{"whitespace only", "   ", "Unclassified"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractGrade(tc.input))
		})
	}
}

func TestExtractGrade_PriorityOrder(t *testing.T) {
	// An ordinal grade wins over the corporation designation when both occur.
	assert.Equal(t, "Grade I", ExtractGrade("Grade I Corporation"))
	// Selection grade wins over the plain municipality fallback.
	assert.Equal(t, "Selection Grade", ExtractGrade("Selection Grade Municipality"))
}

func TestExtractGrade_TotalAndDeterministic(t *testing.T) {
	names := []string{
		"Chennai Municipal Corporation",
		"XYZ Municipality",
		"Some Village",
		"GRADE IV TOWN",
	}
	for _, name := range names {
		first := ExtractGrade(name)
		assert.NotEmpty(t, first, "grade must be non-empty for %q", name)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, ExtractGrade(name))
		}
	}
}

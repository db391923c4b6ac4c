package audit

import (
	"regexp"
	"strings"
)

// Grade labels for names where no true grade category matches. Kept distinct
// from real grades so cohorts built on them are recognizable as best-effort.
const (
	GradeMunicipalCorporation = "Municipal Corporation"
	GradeGenericMunicipality  = "Municipality (Unclassified)"
	GradeUnclassified         = "Unclassified"
)

// gradeMatcher pairs a name pattern with a label builder. Matchers run in
// priority order and the first hit wins.
type gradeMatcher struct {
	pattern *regexp.Regexp
	label   func(match []string) string
}

var gradeMatchers = []gradeMatcher{
	{
		// "GRADE I" .. "GRADE V" (roman numerals as found in the registry).
		pattern: regexp.MustCompile(`GRADE\s+([IVX]+)`),
		label:   func(m []string) string { return "Grade " + m[1] },
	},
	{
		pattern: regexp.MustCompile(`(SELECTION|SPECIAL)\s+GRADE`),
		label: func(m []string) string {
			return m[1][:1] + strings.ToLower(m[1][1:]) + " Grade"
		},
	},
	{
		pattern: regexp.MustCompile(`CORPORATION`),
		label:   func([]string) string { return GradeMunicipalCorporation },
	},
	{
		pattern: regexp.MustCompile(`MUNICIPALITY`),
		label:   func([]string) string { return GradeGenericMunicipality },
	},
}

// ExtractGrade derives a classification grade from an entity display name.
// It is total: every non-empty name maps to a non-empty label, falling back
// to GradeUnclassified when no pattern applies.
func ExtractGrade(name string) string {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if upper == "" {
		return GradeUnclassified
	}
	for _, m := range gradeMatchers {
		if match := m.pattern.FindStringSubmatch(upper); match != nil {
			return m.label(match)
		}
	}
	return GradeUnclassified
}

package audit

import (
	"fmt"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

// flagged is one cohort member outside its bounds, before finding assembly.
type flagged struct {
	entityID string
	value    float64
	side     domain.BoundSide
}

// evaluateCohort flags members whose value lies strictly outside the bounds;
// values exactly at a bound are in-bounds. Members without a defined metric
// never appear here — they were excluded before grouping.
func evaluateCohort(ids []string, metrics map[string]domain.Metric, b domain.Bounds) []flagged {
	var out []flagged
	for _, id := range ids {
		m := metrics[id]
		if !m.Defined {
			continue
		}
		switch {
		case m.Value < b.Lower:
			out = append(out, flagged{entityID: id, value: m.Value, side: domain.BoundLower})
		case m.Value > b.Upper:
			out = append(out, flagged{entityID: id, value: m.Value, side: domain.BoundUpper})
		}
	}
	return out
}

// buildFinding packages a flagged entity into a Finding carrying every value
// needed to independently re-derive the flag. Pure construction.
func buildFinding(entity domain.Entity, rule domain.Rule, f flagged, b domain.Bounds, cohort string, cohortSize int) domain.Finding {
	crossed := b.Upper
	if f.side == domain.BoundLower {
		crossed = b.Lower
	}

	var detail string
	switch b.Method {
	case domain.MethodIQR:
		detail = fmt.Sprintf(
			"Value %.2f is %s %.2f (IQR method, multiplier=%g, Q1=%.2f, Q3=%.2f, IQR=%.2f, peer group: %s, N=%d)",
			f.value, f.side, crossed, b.Param, b.Q1, b.Q3, b.IQR, cohort, b.N)
	default:
		z := 0.0
		if b.Std > 0 {
			z = (f.value - b.Mean) / b.Std
		}
		detail = fmt.Sprintf(
			"Value %.2f is %s %.2f (Z-score method, z=%.2f, limit=%g, mean=%.2f, std=%.2f, peer group: %s, N=%d)",
			f.value, f.side, crossed, z, b.Param, b.Mean, b.Std, cohort, b.N)
	}
	if rule.Context != "" {
		detail += " | Context: " + rule.Context
	}

	bounds := b
	return domain.Finding{
		EntityID:    entity.ID,
		EntityName:  entity.Name,
		District:    entity.District,
		RuleID:      rule.ID,
		Part:        rule.Part,
		Severity:    rule.Severity,
		CheckType:   rule.Type.String(),
		Description: rule.Description,
		Detail:      detail,
		Value:       f.value,
		Bounds:      &bounds,
		Cohort:      cohort,
		CohortSize:  cohortSize,
		Crossed:     f.side,
	}
}

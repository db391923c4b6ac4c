package audit

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
	"github.com/shahul3595/SFCAudit/pkg/store/dataset"
)

// equalityTolerance gives the slack used for equality comparisons: 1% of the
// expected value, floored at 0.01, so rounded questionnaire figures still
// reconcile.
func equalityTolerance(expected float64) float64 {
	return math.Max(math.Abs(expected)*0.01, 0.01)
}

// checkThreshold validates a value against a rule's threshold spec. The
// boolean reports pass/fail; detail explains a failure. A malformed spec
// passes — a broken rule must not flag every entity.
func checkThreshold(value float64, rule domain.Rule) (bool, string) {
	spec := strings.TrimSpace(rule.Threshold)

	if rule.Operator == domain.OpBetween {
		parts := strings.Split(spec, "|")
		if len(parts) != 2 {
			return true, ""
		}
		lo, loErr := cast.ToFloat64E(strings.TrimSpace(parts[0]))
		hi, hiErr := cast.ToFloat64E(strings.TrimSpace(parts[1]))
		if loErr != nil || hiErr != nil {
			return true, ""
		}
		if value < lo || value > hi {
			return false, fmt.Sprintf("%.2f not in range [%g, %g]", value, lo, hi)
		}
		return true, ""
	}

	threshold, err := cast.ToFloat64E(spec)
	if err != nil {
		return true, ""
	}
	failed, detail := compare(rule.Operator, value, threshold)
	return !failed, detail
}

// compare applies an operator to a pair of values, returning whether the
// comparison failed and a printable reason.
func compare(op domain.Operator, v1, v2 float64) (bool, string) {
	switch op {
	case domain.OpGreater:
		return !(v1 > v2), fmt.Sprintf("%.2f not > %.2f", v1, v2)
	case domain.OpLess:
		return !(v1 < v2), fmt.Sprintf("%.2f not < %.2f", v1, v2)
	case domain.OpGreaterEq:
		return !(v1 >= v2), fmt.Sprintf("%.2f not >= %.2f", v1, v2)
	case domain.OpLessEq:
		return !(v1 <= v2), fmt.Sprintf("%.2f not <= %.2f", v1, v2)
	case domain.OpNotEqual:
		return math.Abs(v1-v2) <= equalityTolerance(v2), fmt.Sprintf("%.2f == %.2f", v1, v2)
	default: // equality
		return math.Abs(v1-v2) > equalityTolerance(v2), fmt.Sprintf("%.2f != %.2f", v1, v2)
	}
}

// notApplicable marks undefined-metric reasons that are expected data
// conditions rather than evaluation errors: those skip the entity silently
// instead of producing an error finding.
func notApplicable(reason string) bool {
	return strings.Contains(reason, "division by zero") ||
		strings.Contains(reason, "initial value is zero") ||
		strings.Contains(reason, "non-numeric") ||
		strings.Contains(reason, "no rows in partition") ||
		strings.Contains(reason, "join failed")
}

// evaluateThresholdRule runs a threshold check for one entity. A nil finding
// with missing=true means the entity contributed nothing.
func (c *Collector) evaluateThresholdRule(rule domain.Rule, entity domain.Entity) (*domain.Finding, bool) {
	m := c.metricFor(rule, entity.ID)
	if !m.Defined {
		if notApplicable(m.Reason) {
			return nil, true
		}
		f := buildErrorFinding(entity, rule, m.Reason)
		return &f, false
	}
	if strings.TrimSpace(rule.Threshold) == "" {
		return nil, false
	}

	passed, detail := checkThreshold(m.Value, rule)
	if passed {
		return nil, false
	}
	source := "column " + firstColumn(rule)
	if rule.Calc != domain.CalcDirect {
		source = rule.Calc.String() + " calculation"
	}
	f := buildCheckFinding(entity, rule, fmt.Sprintf("%s: %s", source, detail), m.Value)
	return &f, false
}

// evaluateConsistencyRule compares two configured values for one entity.
// With three columns and a difference calculation the first column is
// checked against column_2 - column_3.
func (c *Collector) evaluateConsistencyRule(rule domain.Rule, entity domain.Entity) (*domain.Finding, bool) {
	rows := c.source.Rows(entity.ID, rule.PrimaryTable)
	if len(rows) == 0 {
		return nil, true
	}

	var v1, v2 float64
	if rule.Calc == domain.CalcDifference && len(rule.Columns) >= 3 {
		expected, err := columnValue(rule.Columns[0], rows)
		if err != nil {
			return checkInputError(entity, rule, "column 1", err)
		}
		minuend, err := columnValue(rule.Columns[1], rows)
		if err != nil {
			return checkInputError(entity, rule, "column 2", err)
		}
		subtrahend, err := columnValue(rule.Columns[2], rows)
		if err != nil {
			return checkInputError(entity, rule, "column 3", err)
		}
		v1, v2 = expected, minuend-subtrahend
	} else {
		if len(rule.Columns) < 2 {
			return nil, false
		}
		var err error
		v1, err = columnValue(rule.Columns[0], rows)
		if err != nil {
			return checkInputError(entity, rule, "column 1", err)
		}
		v2, err = columnValue(rule.Columns[1], rows)
		if err != nil {
			return checkInputError(entity, rule, "column 2", err)
		}
	}

	if failed, detail := compare(rule.Operator, v1, v2); failed {
		f := buildCheckFinding(entity, rule, "Consistency: "+detail, v1)
		return &f, false
	}
	return nil, false
}

// evaluateCompletenessRule flags entities whose configured columns are
// missing, empty, or uniformly zero.
func (c *Collector) evaluateCompletenessRule(rule domain.Rule, entity domain.Entity) (*domain.Finding, bool) {
	if len(rule.Columns) == 0 {
		return nil, false
	}
	rows := c.source.Rows(entity.ID, rule.PrimaryTable)
	if len(rows) == 0 {
		return nil, true
	}

	var missing []string
	for _, col := range splitColumns(rule.Columns[0]) {
		if columnEmptyOrZero(col, rows) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		f := buildCheckFinding(entity, rule, "Missing/zero: "+strings.Join(missing, ", "), 0)
		return &f, false
	}
	return nil, false
}

// evaluateCrossTableRule reconciles a primary-partition value against a
// reference-partition value joined by the entity ID.
func (c *Collector) evaluateCrossTableRule(rule domain.Rule, entity domain.Entity) (*domain.Finding, bool) {
	if rule.ReferenceTable == "" || len(rule.Columns) < 2 {
		return nil, false
	}
	primary := c.source.Rows(entity.ID, rule.PrimaryTable)
	reference := c.source.Rows(entity.ID, rule.ReferenceTable)
	if len(primary) == 0 || len(reference) == 0 {
		return nil, true
	}

	v1, err := columnValue(rule.Columns[0], primary)
	if err != nil {
		return checkInputError(entity, rule, "primary", err)
	}
	v2, err := columnValue(rule.Columns[1], reference)
	if err != nil {
		return checkInputError(entity, rule, "reference", err)
	}

	if failed, _ := compare(rule.Operator, v1, v2); failed {
		detail := fmt.Sprintf(
			"Cross-table mismatch: primary column %q = %.2f, reference column %q = %.2f",
			rule.Columns[0], v1, rule.Columns[1], v2)
		f := buildCheckFinding(entity, rule, detail, v1)
		return &f, false
	}
	return nil, false
}

func checkInputError(entity domain.Entity, rule domain.Rule, role string, err error) (*domain.Finding, bool) {
	if strings.Contains(err.Error(), "non-numeric") {
		return nil, true
	}
	f := buildErrorFinding(entity, rule, fmt.Sprintf("%s: %v", role, err))
	return &f, false
}

func buildCheckFinding(entity domain.Entity, rule domain.Rule, detail string, value float64) domain.Finding {
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
		Value:       value,
	}
}

func buildErrorFinding(entity domain.Entity, rule domain.Rule, reason string) domain.Finding {
	f := buildCheckFinding(entity, rule, "Unable to evaluate: "+reason, 0)
	f.Severity = domain.SeverityMedium
	return f
}

func firstColumn(rule domain.Rule) string {
	if len(rule.Columns) > 0 {
		return rule.Columns[0]
	}
	return ""
}

func splitColumns(spec string) []string {
	var cols []string
	for _, c := range strings.Split(spec, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

func columnEmptyOrZero(col string, rows []dataset.Row) bool {
	for _, row := range rows {
		raw, ok := row[col]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			// Non-numeric content still counts as filled in.
			return false
		}
		if v != 0 {
			return false
		}
	}
	// Column absent, all blank, or uniformly zero.
	return true
}

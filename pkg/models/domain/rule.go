package domain

import "fmt"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return "Medium"
	}
}

// RuleType identifies the check family a rule belongs to.
type RuleType int

const (
	RuleThreshold RuleType = iota
	RuleConsistency
	RuleCompleteness
	RuleCrossTable
	RuleOutlierIQR
	RuleOutlierZScore
)

func (t RuleType) String() string {
	switch t {
	case RuleThreshold:
		return "threshold"
	case RuleConsistency:
		return "consistency"
	case RuleCompleteness:
		return "completeness"
	case RuleCrossTable:
		return "cross_table"
	case RuleOutlierIQR:
		return "outlier_iqr"
	case RuleOutlierZScore:
		return "outlier_zscore"
	default:
		return fmt.Sprintf("rule_type(%d)", int(t))
	}
}

// Statistical reports whether the rule is evaluated against peer cohorts.
func (t RuleType) Statistical() bool {
	return t == RuleOutlierIQR || t == RuleOutlierZScore
}

// CalcKind is how a rule's metric is derived from its input columns.
type CalcKind int

const (
	CalcDirect CalcKind = iota
	CalcRatio
	CalcPercentage
	CalcSum
	CalcDifference
	CalcGrowthRate
)

func (c CalcKind) String() string {
	switch c {
	case CalcRatio:
		return "ratio"
	case CalcPercentage:
		return "percentage"
	case CalcSum:
		return "sum"
	case CalcDifference:
		return "difference"
	case CalcGrowthRate:
		return "growth_rate"
	default:
		return "direct"
	}
}

// Operator is a comparison used by threshold, consistency and cross-table
// rules.
type Operator int

const (
	OpNone Operator = iota
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
	OpEqual
	OpNotEqual
	OpBetween
)

// GroupMode selects the peer-grouping criterion for a statistical rule.
type GroupMode int

const (
	GroupStatewide GroupMode = iota
	GroupPopulation
	GroupDistrict
	GroupGrade
)

func (m GroupMode) String() string {
	switch m {
	case GroupPopulation:
		return "population_size"
	case GroupDistrict:
		return "district"
	case GroupGrade:
		return "municipality_grade"
	default:
		return "statewide"
	}
}

// Grouping carries a group mode plus its parameters. PopMin/PopMax are only
// meaningful for GroupPopulation and are inclusive.
type Grouping struct {
	Mode   GroupMode
	PopMin float64
	PopMax float64
}

// Rule is a fully resolved check definition. String-keyed dispatch from the
// rule workbook is resolved into the tagged fields here once, at load time.
// Immutable during evaluation.
type Rule struct {
	ID          string
	Part        string
	Description string
	Severity    Severity
	Type        RuleType
	Calc        CalcKind

	PrimaryTable   string
	ReferenceTable string
	// Columns holds the configured column specs (column_1..column_4 of the
	// workbook row); a spec may be a comma-separated list or a numeric
	// constant.
	Columns []string

	// Operator and Threshold apply to the non-statistical families.
	Operator  Operator
	Threshold string

	// Grouping and Param apply to the outlier families. Param is the IQR
	// multiplier or the Z-score limit.
	Grouping Grouping
	Param    float64

	// Context is extra narrative appended to finding details.
	Context string
}

package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

// SheetName is the workbook sheet rule definitions live on.
const SheetName = "ValidationRules"

// Default sensitivity parameters when the workbook leaves them blank.
const (
	DefaultIQRMultiplier = 1.5
	DefaultZScoreLimit   = 2.0
)

// Record is one raw workbook row before resolution. Field names follow the
// workbook column headers.
type Record struct {
	CheckpointID   string `validate:"required"`
	Part           string
	PrimaryTable   string `validate:"required"`
	ReferenceTable string
	MultiPart      string
	ValidationType string `validate:"required"`
	CalcType       string
	Columns        []string
	Operator       string
	Threshold      string
	Severity       string
	Enabled        bool
	Description    string
	PeerGroupBy    string
	PeerPopMin     string
	PeerPopMax     string
	IQRMultiplier  string
	ZScoreLimit    string
	Context        string
}

// Loader reads and resolves rule workbooks. String-keyed dispatch (check
// type, calculation, grouping mode) is resolved here exactly once; the
// engine only ever sees tagged enums.
type Loader struct {
	validate *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// LoadWorkbook reads every enabled rule from the workbook. Rows that fail
// validation or resolution are logged and dropped; a malformed row never
// poisons the rest of the workbook.
func (l *Loader) LoadWorkbook(ctx context.Context, path string) ([]domain.Rule, error) {
	logger := zerolog.Ctx(ctx)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("sheet %q not found in %s: %w", SheetName, path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no rule rows", SheetName)
	}

	index := headerIndex(rows[0])
	var out []domain.Rule
	skipped := 0

	for i, row := range rows[1:] {
		rec := recordFromRow(row, index)
		if !rec.Enabled {
			continue
		}
		if err := l.validate.Struct(rec); err != nil {
			logger.Warn().Err(err).Int("row", i+2).Str("rule", rec.CheckpointID).Msg("rule row failed validation")
			skipped++
			continue
		}
		rule, err := Resolve(rec)
		if err != nil {
			logger.Error().Err(err).Str("rule", rec.CheckpointID).Msg("rule rejected")
			skipped++
			continue
		}
		out = append(out, rule)
	}

	logger.Info().Int("rules", len(out)).Int("rejected", skipped).Str("workbook", path).Msg("rule workbook loaded")
	return out, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return index
}

func recordFromRow(row []string, index map[string]int) Record {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	columns := []string{get("column_1"), get("column_2"), get("column_3"), get("column_4")}
	for len(columns) > 0 && columns[len(columns)-1] == "" {
		columns = columns[:len(columns)-1]
	}

	return Record{
		CheckpointID:   get("checkpoint_id"),
		Part:           get("part"),
		PrimaryTable:   get("primary_table"),
		ReferenceTable: get("reference_table"),
		MultiPart:      get("multi_part"),
		ValidationType: get("validation_type"),
		CalcType:       get("calculation_type"),
		Columns:        columns,
		Operator:       get("operator"),
		Threshold:      get("threshold"),
		Severity:       get("severity"),
		Enabled:        cast.ToBool(get("enabled")),
		Description:    get("description"),
		PeerGroupBy:    get("peer_group_by"),
		PeerPopMin:     get("peer_population_min"),
		PeerPopMax:     get("peer_population_max"),
		IQRMultiplier:  get("iqr_multiplier"),
		ZScoreLimit:    get("stddev_limit"),
		Context:        get("statistical_context"),
	}
}

// tablePrefix strips export prefixes from partition references, e.g.
// mp_270126_p4 -> p4, matching the dataset store's table keys.
var tablePrefix = regexp.MustCompile(`^mp_\d+_`)

// Resolve turns a validated workbook record into an immutable rule
// definition. Unrecognized types, calculations, grouping modes, or missing
// grouping parameters are configuration errors: the rule is rejected, never
// silently downgraded to a statewide check.
func Resolve(rec Record) (domain.Rule, error) {
	ruleType, err := parseType(rec.ValidationType)
	if err != nil {
		return domain.Rule{}, err
	}
	calc, err := parseCalc(rec.CalcType)
	if err != nil {
		return domain.Rule{}, err
	}

	rule := domain.Rule{
		ID:             rec.CheckpointID,
		Part:           rec.Part,
		Description:    rec.Description,
		Severity:       parseSeverity(rec.Severity),
		Type:           ruleType,
		Calc:           calc,
		PrimaryTable:   tablePrefix.ReplaceAllString(rec.PrimaryTable, ""),
		ReferenceTable: tablePrefix.ReplaceAllString(rec.ReferenceTable, ""),
		Columns:        rec.Columns,
		Operator:       parseOperator(rec.Operator, rec.Threshold),
		Threshold:      rec.Threshold,
		Context:        rec.Context,
	}

	if ruleType.Statistical() {
		grouping, err := parseGrouping(rec)
		if err != nil {
			return domain.Rule{}, err
		}
		rule.Grouping = grouping

		if ruleType == domain.RuleOutlierIQR {
			rule.Param = paramOrDefault(rec.IQRMultiplier, DefaultIQRMultiplier)
		} else {
			rule.Param = paramOrDefault(rec.ZScoreLimit, DefaultZScoreLimit)
		}
		if rule.Param <= 0 {
			return domain.Rule{}, fmt.Errorf("rule %s: sensitivity parameter must be positive", rec.CheckpointID)
		}
	}

	if ruleType == domain.RuleCrossTable && rule.ReferenceTable == "" {
		return domain.Rule{}, fmt.Errorf("rule %s: cross_table requires a reference_table", rec.CheckpointID)
	}

	return rule, nil
}

func parseType(raw string) (domain.RuleType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "threshold", "percentage":
		return domain.RuleThreshold, nil
	case "consistency":
		return domain.RuleConsistency, nil
	case "completeness":
		return domain.RuleCompleteness, nil
	case "cross_table":
		return domain.RuleCrossTable, nil
	case "outlier_iqr":
		return domain.RuleOutlierIQR, nil
	case "outlier_zscore":
		return domain.RuleOutlierZScore, nil
	default:
		return 0, fmt.Errorf("unknown validation type %q", raw)
	}
}

func parseCalc(raw string) (domain.CalcKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return domain.CalcDirect, nil
	case "ratio":
		return domain.CalcRatio, nil
	case "percentage", "percentage_of":
		return domain.CalcPercentage, nil
	case "sum":
		return domain.CalcSum, nil
	case "difference":
		return domain.CalcDifference, nil
	case "growth_rate":
		return domain.CalcGrowthRate, nil
	default:
		return 0, fmt.Errorf("unknown calculation type %q", raw)
	}
}

func parseSeverity(raw string) domain.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return domain.SeverityLow
	case "high":
		return domain.SeverityHigh
	case "critical":
		return domain.SeverityCritical
	default:
		return domain.SeverityMedium
	}
}

func parseOperator(raw, threshold string) domain.Operator {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ">", "gt":
		return domain.OpGreater
	case "<", "lt":
		return domain.OpLess
	case ">=", "gte":
		return domain.OpGreaterEq
	case "<=", "lte":
		return domain.OpLessEq
	case "!=", "neq":
		return domain.OpNotEqual
	case "between":
		return domain.OpBetween
	case "=", "==", "eq":
		return domain.OpEqual
	default:
		// A bare "lo|hi" threshold implies a range check.
		if strings.Contains(threshold, "|") {
			return domain.OpBetween
		}
		return domain.OpEqual
	}
}

func parseGrouping(rec Record) (domain.Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(rec.PeerGroupBy)) {
	case "", "none", "statewide":
		return domain.Grouping{Mode: domain.GroupStatewide}, nil
	case "district":
		return domain.Grouping{Mode: domain.GroupDistrict}, nil
	case "municipality_grade", "grade":
		return domain.Grouping{Mode: domain.GroupGrade}, nil
	case "population_size", "population":
		min, minErr := cast.ToFloat64E(rec.PeerPopMin)
		max, maxErr := cast.ToFloat64E(rec.PeerPopMax)
		if minErr != nil || maxErr != nil {
			return domain.Grouping{}, fmt.Errorf("rule %s: population grouping requires numeric min/max bounds", rec.CheckpointID)
		}
		if min > max {
			return domain.Grouping{}, fmt.Errorf("rule %s: population min %g exceeds max %g", rec.CheckpointID, min, max)
		}
		return domain.Grouping{Mode: domain.GroupPopulation, PopMin: min, PopMax: max}, nil
	default:
		return domain.Grouping{}, fmt.Errorf("rule %s: unknown peer group mode %q", rec.CheckpointID, rec.PeerGroupBy)
	}
}

func paramOrDefault(raw string, def float64) float64 {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return def
	}
	return v
}

package domain

import "time"

// SkipReason classifies why a rule produced no result.
type SkipReason string

const (
	SkipInvalidConfig  SkipReason = "invalid_configuration"
	SkipNoViableCohort SkipReason = "no_viable_cohort"
	SkipNoData         SkipReason = "no_data"
)

// SkippedRule records a rule that was attempted but contributed nothing.
type SkippedRule struct {
	RuleID string
	Reason SkipReason
	Detail string
}

// RuleResult is the outcome of evaluating a single rule: its findings plus
// the degradation counters the run summary aggregates.
type RuleResult struct {
	RuleID         string
	Findings       []Finding
	MissingInputs  int
	CohortsSkipped int
	Skipped        *SkippedRule
}

// RunResult is the merged outcome of an audit run across all rules.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time

	EntityCount       int
	RulesAttempted    int
	RulesWithFindings int
	Skipped           []SkippedRule

	Findings   []Finding
	BySeverity map[Severity]int
	// MissingInputs counts undefined metrics per rule so gaps are visible
	// without flooding logs entity by entity.
	MissingInputs map[string]int
}

// Merge folds one rule's result into the run, keeping findings in the order
// rules were merged.
func (r *RunResult) Merge(res RuleResult) {
	if r.BySeverity == nil {
		r.BySeverity = make(map[Severity]int)
	}
	if r.MissingInputs == nil {
		r.MissingInputs = make(map[string]int)
	}

	r.RulesAttempted++
	if res.Skipped != nil {
		r.Skipped = append(r.Skipped, *res.Skipped)
	}
	if len(res.Findings) > 0 {
		r.RulesWithFindings++
	}
	if res.MissingInputs > 0 {
		r.MissingInputs[res.RuleID] = res.MissingInputs
	}
	for _, f := range res.Findings {
		r.Findings = append(r.Findings, f)
		r.BySeverity[f.Severity]++
	}
}

package api

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type Bounds struct {
	Method string  `json:"method"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Param  float64 `json:"param"`
	N      int     `json:"n"`

	Q1  *float64 `json:"q1,omitempty"`
	Q3  *float64 `json:"q3,omitempty"`
	IQR *float64 `json:"iqr,omitempty"`

	Mean *float64 `json:"mean,omitempty"`
	Std  *float64 `json:"std,omitempty"`
}

type Finding struct {
	EntityID    string   `json:"entity_id"`
	EntityName  string   `json:"entity_name"`
	District    string   `json:"district,omitempty"`
	RuleID      string   `json:"rule_id"`
	Part        string   `json:"part,omitempty"`
	Severity    Severity `json:"severity"`
	CheckType   string   `json:"check_type"`
	Description string   `json:"description"`
	Detail      string   `json:"detail"`
	Value       float64  `json:"value"`
	Bounds      *Bounds  `json:"bounds,omitempty"`
	Cohort      string   `json:"peer_group,omitempty"`
	CohortSize  int      `json:"peer_group_size,omitempty"`
	CrossedSide string   `json:"crossed,omitempty"`
}

type SkippedRule struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

type RunResult struct {
	StartedAt         time.Time        `json:"started_at"`
	FinishedAt        time.Time        `json:"finished_at"`
	EntityCount       int              `json:"entity_count"`
	RulesAttempted    int              `json:"rules_attempted"`
	RulesWithFindings int              `json:"rules_with_findings"`
	Skipped           []SkippedRule    `json:"skipped_rules"`
	Findings          []Finding        `json:"findings"`
	BySeverity        map[Severity]int `json:"findings_by_severity"`
	MissingInputs     map[string]int   `json:"missing_inputs_by_rule,omitempty"`
}

type Rule struct {
	ID          string   `json:"id"`
	Part        string   `json:"part,omitempty"`
	Type        string   `json:"type"`
	Calc        string   `json:"calculation"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	PeerGroupBy string   `json:"peer_group_by,omitempty"`
	Param       float64  `json:"param,omitempty"`
}

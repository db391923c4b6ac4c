package adapters

import (
	"github.com/shahul3595/SFCAudit/pkg/models/api"
	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityLow:
		return api.SeverityLow
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityCritical:
		return api.SeverityCritical
	default:
		return api.SeverityMedium
	}
}

func MapBoundsDomainToApi(b *domain.Bounds) *api.Bounds {
	if b == nil {
		return nil
	}
	out := &api.Bounds{
		Method: b.Method.String(),
		Lower:  b.Lower,
		Upper:  b.Upper,
		Param:  b.Param,
		N:      b.N,
	}
	if b.Method == domain.MethodIQR {
		q1, q3, iqr := b.Q1, b.Q3, b.IQR
		out.Q1, out.Q3, out.IQR = &q1, &q3, &iqr
	} else {
		mean, std := b.Mean, b.Std
		out.Mean, out.Std = &mean, &std
	}
	return out
}

func MapFindingDomainToApi(f domain.Finding) api.Finding {
	out := api.Finding{
		EntityID:    f.EntityID,
		EntityName:  f.EntityName,
		District:    f.District,
		RuleID:      f.RuleID,
		Part:        f.Part,
		Severity:    MapSeverityDomainToApi(f.Severity),
		CheckType:   f.CheckType,
		Description: f.Description,
		Detail:      f.Detail,
		Value:       f.Value,
		Bounds:      MapBoundsDomainToApi(f.Bounds),
		Cohort:      f.Cohort,
		CohortSize:  f.CohortSize,
	}
	if f.Bounds != nil {
		out.CrossedSide = f.Crossed.String()
	}
	return out
}

func MapRunResultDomainToApi(r *domain.RunResult) api.RunResult {
	out := api.RunResult{
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		EntityCount:       r.EntityCount,
		RulesAttempted:    r.RulesAttempted,
		RulesWithFindings: r.RulesWithFindings,
		Skipped:           make([]api.SkippedRule, 0, len(r.Skipped)),
		Findings:          make([]api.Finding, 0, len(r.Findings)),
		BySeverity:        make(map[api.Severity]int, len(r.BySeverity)),
		MissingInputs:     r.MissingInputs,
	}
	for _, s := range r.Skipped {
		out.Skipped = append(out.Skipped, api.SkippedRule{
			RuleID: s.RuleID,
			Reason: string(s.Reason),
			Detail: s.Detail,
		})
	}
	for _, f := range r.Findings {
		out.Findings = append(out.Findings, MapFindingDomainToApi(f))
	}
	for sev, n := range r.BySeverity {
		out.BySeverity[MapSeverityDomainToApi(sev)] = n
	}
	return out
}

func MapRuleDomainToApi(r domain.Rule) api.Rule {
	out := api.Rule{
		ID:          r.ID,
		Part:        r.Part,
		Type:        r.Type.String(),
		Calc:        r.Calc.String(),
		Severity:    MapSeverityDomainToApi(r.Severity),
		Description: r.Description,
	}
	if r.Type.Statistical() {
		out.PeerGroupBy = r.Grouping.Mode.String()
		out.Param = r.Param
	}
	return out
}

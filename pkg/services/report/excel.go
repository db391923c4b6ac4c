package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

const (
	summarySheet  = "Summary"
	findingsSheet = "Findings"
)

var findingsHeader = []string{
	"Entity ID", "Entity Name", "District", "Rule ID", "Part", "Check Type",
	"Severity", "Description", "Detail", "Value", "Peer Group", "Group Size",
}

// WriteDashboard renders the run result into an Excel dashboard with a
// summary sheet and a full findings sheet. Formatting only; every number
// comes straight from the run result.
func WriteDashboard(path string, run *domain.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, run); err != nil {
		return err
	}
	if err := writeFindings(f, run); err != nil {
		return err
	}

	// Drop the default sheet and lead with the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to finalize workbook: %w", err)
	}
	idx, err := f.GetSheetIndex(summarySheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write dashboard %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, run *domain.RunResult) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	put := func(label string, value any) {
		cell := fmt.Sprintf("A%d", row)
		_ = f.SetCellValue(summarySheet, cell, label)
		_ = f.SetCellStyle(summarySheet, cell, cell, bold)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), value)
		row++
	}

	put("Audit run", run.StartedAt.Format("2006-01-02 15:04:05"))
	put("Entities", run.EntityCount)
	put("Rules attempted", run.RulesAttempted)
	put("Rules with findings", run.RulesWithFindings)
	put("Rules skipped", len(run.Skipped))
	put("Total findings", len(run.Findings))
	row++

	for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
		if n := run.BySeverity[sev]; n > 0 {
			put(sev.String()+" findings", n)
		}
	}
	row++

	for _, s := range run.Skipped {
		put("Skipped: "+s.RuleID, fmt.Sprintf("%s (%s)", s.Reason, s.Detail))
	}
	for ruleID, n := range run.MissingInputs {
		put("Missing inputs: "+ruleID, n)
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 32)
	_ = f.SetColWidth(summarySheet, "B", "B", 60)
	return nil
}

func writeFindings(f *excelize.File, run *domain.RunResult) error {
	if _, err := f.NewSheet(findingsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
	})
	if err != nil {
		return err
	}
	severityStyles, err := newSeverityStyles(f)
	if err != nil {
		return err
	}

	for i, h := range findingsHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(findingsSheet, cell, h)
		_ = f.SetCellStyle(findingsSheet, cell, cell, headerStyle)
	}

	for i, finding := range run.Findings {
		rowNum := i + 2
		values := []any{
			finding.EntityID, finding.EntityName, finding.District,
			finding.RuleID, finding.Part, finding.CheckType,
			finding.Severity.String(), finding.Description, finding.Detail,
			finding.Value, finding.Cohort, finding.CohortSize,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			_ = f.SetCellValue(findingsSheet, cell, v)
		}
		if style, ok := severityStyles[finding.Severity]; ok {
			cell, _ := excelize.CoordinatesToCellName(7, rowNum)
			_ = f.SetCellStyle(findingsSheet, cell, cell, style)
		}
	}

	_ = f.SetColWidth(findingsSheet, "B", "B", 30)
	_ = f.SetColWidth(findingsSheet, "H", "H", 40)
	_ = f.SetColWidth(findingsSheet, "I", "I", 80)
	_ = f.SetPanes(findingsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return nil
}

func newSeverityStyles(f *excelize.File) (map[domain.Severity]int, error) {
	styles := make(map[domain.Severity]int)

	critical, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FF0000"}},
	})
	if err != nil {
		return nil, err
	}
	styles[domain.SeverityCritical] = critical

	high, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC000"}},
	})
	if err != nil {
		return nil, err
	}
	styles[domain.SeverityHigh] = high

	medium, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
	})
	if err != nil {
		return nil, err
	}
	styles[domain.SeverityMedium] = medium

	return styles, nil
}

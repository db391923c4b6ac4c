package rules

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

var workbookHeader = []string{
	"checkpoint_id", "part", "primary_table", "reference_table", "multi_part",
	"validation_type", "calculation_type", "column_1", "column_2", "column_3",
	"column_4", "operator", "threshold", "severity", "enabled", "description",
	"peer_group_by", "peer_population_min", "peer_population_max",
	"iqr_multiplier", "stddev_limit", "statistical_context",
}

func writeWorkbook(t *testing.T, rows ...[]string) string {
	t.Helper()

	f := excelize.NewFile()
	_, err := f.NewSheet(SheetName)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(SheetName, "A1", &workbookHeader))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(SheetName, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func ruleRow(overrides map[string]string) []string {
	base := map[string]string{
		"checkpoint_id":   "SFC_08_001",
		"part":            "8",
		"primary_table":   "mp_270126_p8_1_1",
		"validation_type": "outlier_iqr",
		"column_1":        "revenue",
		"severity":        "high",
		"enabled":         "TRUE",
		"description":     "Revenue outliers across peers",
		"peer_group_by":   "district",
	}
	for k, v := range overrides {
		base[k] = v
	}
	row := make([]string, len(workbookHeader))
	for i, col := range workbookHeader {
		row[i] = base[col]
	}
	return row
}

func TestLoadWorkbook(t *testing.T) {
	loader := NewLoader()

	t.Run("resolves enabled rows", func(t *testing.T) {
		path := writeWorkbook(t,
			ruleRow(nil),
			ruleRow(map[string]string{
				"checkpoint_id":    "SFC_08_002",
				"validation_type":  "threshold",
				"calculation_type": "ratio",
				"column_1":         "revenue",
				"column_2":         "expenditure",
				"operator":         ">",
				"threshold":        "1.2",
				"peer_group_by":    "",
			}),
		)

		rules, err := loader.LoadWorkbook(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, rules, 2)

		outlier := rules[0]
		assert.Equal(t, "SFC_08_001", outlier.ID)
		assert.Equal(t, domain.RuleOutlierIQR, outlier.Type)
		assert.Equal(t, domain.SeverityHigh, outlier.Severity)
		assert.Equal(t, domain.GroupDistrict, outlier.Grouping.Mode)
		// Export prefix stripped from the partition reference.
		assert.Equal(t, "p8_1_1", outlier.PrimaryTable)
		assert.InDelta(t, DefaultIQRMultiplier, outlier.Param, 1e-9)

		threshold := rules[1]
		assert.Equal(t, domain.RuleThreshold, threshold.Type)
		assert.Equal(t, domain.CalcRatio, threshold.Calc)
		assert.Equal(t, domain.OpGreater, threshold.Operator)
		assert.Equal(t, []string{"revenue", "expenditure"}, threshold.Columns)
	})

	t.Run("skips disabled rows", func(t *testing.T) {
		path := writeWorkbook(t,
			ruleRow(map[string]string{"enabled": "FALSE"}),
			ruleRow(map[string]string{"checkpoint_id": "SFC_08_003"}),
		)
		rules, err := loader.LoadWorkbook(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "SFC_08_003", rules[0].ID)
	})

	t.Run("drops invalid rows without failing the workbook", func(t *testing.T) {
		path := writeWorkbook(t,
			ruleRow(map[string]string{"checkpoint_id": ""}),           // fails validation
			ruleRow(map[string]string{"validation_type": "sanity"}),   // unknown type
			ruleRow(map[string]string{"checkpoint_id": "SFC_08_004"}), // fine
		)
		rules, err := loader.LoadWorkbook(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "SFC_08_004", rules[0].ID)
	})

	t.Run("missing sheet", func(t *testing.T) {
		f := excelize.NewFile()
		path := filepath.Join(t.TempDir(), "empty.xlsx")
		require.NoError(t, f.SaveAs(path))

		_, err := loader.LoadWorkbook(context.Background(), path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadWorkbook(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
		assert.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	base := Record{
		CheckpointID:   "SFC_08_010",
		PrimaryTable:   "p8_1_1",
		ValidationType: "outlier_zscore",
		Columns:        []string{"revenue"},
		Enabled:        true,
	}

	t.Run("zscore defaults", func(t *testing.T) {
		rule, err := Resolve(base)
		require.NoError(t, err)
		assert.Equal(t, domain.RuleOutlierZScore, rule.Type)
		assert.InDelta(t, DefaultZScoreLimit, rule.Param, 1e-9)
		assert.Equal(t, domain.GroupStatewide, rule.Grouping.Mode)
		assert.Equal(t, domain.SeverityMedium, rule.Severity)
	})

	t.Run("population grouping requires bounds", func(t *testing.T) {
		rec := base
		rec.PeerGroupBy = "population_size"
		_, err := Resolve(rec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "population grouping requires numeric")
	})

	t.Run("population bounds parsed", func(t *testing.T) {
		rec := base
		rec.PeerGroupBy = "population_size"
		rec.PeerPopMin = "20000"
		rec.PeerPopMax = "60000"
		rule, err := Resolve(rec)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupPopulation, rule.Grouping.Mode)
		assert.InDelta(t, 20000, rule.Grouping.PopMin, 1e-9)
		assert.InDelta(t, 60000, rule.Grouping.PopMax, 1e-9)
	})

	t.Run("inverted population bounds rejected", func(t *testing.T) {
		rec := base
		rec.PeerGroupBy = "population"
		rec.PeerPopMin = "60000"
		rec.PeerPopMax = "20000"
		_, err := Resolve(rec)
		assert.Error(t, err)
	})

	t.Run("unknown peer group mode rejected", func(t *testing.T) {
		rec := base
		rec.PeerGroupBy = "ward"
		_, err := Resolve(rec)
		assert.Error(t, err)
	})

	t.Run("non-positive sensitivity rejected", func(t *testing.T) {
		rec := base
		rec.ZScoreLimit = "-1"
		_, err := Resolve(rec)
		assert.Error(t, err)
	})

	t.Run("cross table requires reference", func(t *testing.T) {
		rec := base
		rec.ValidationType = "cross_table"
		rec.Columns = []string{"reported", "actual"}
		_, err := Resolve(rec)
		require.Error(t, err)

		rec.ReferenceTable = "mp_270126_p8_2_1"
		rule, err := Resolve(rec)
		require.NoError(t, err)
		assert.Equal(t, "p8_2_1", rule.ReferenceTable)
	})

	t.Run("unknown calculation rejected", func(t *testing.T) {
		rec := base
		rec.ValidationType = "threshold"
		rec.CalcType = "cagr"
		_, err := Resolve(rec)
		assert.Error(t, err)
	})

	t.Run("pipe threshold implies between", func(t *testing.T) {
		rec := base
		rec.ValidationType = "threshold"
		rec.Threshold = "10|90"
		rule, err := Resolve(rec)
		require.NoError(t, err)
		assert.Equal(t, domain.OpBetween, rule.Operator)
	})

	t.Run("operator words", func(t *testing.T) {
		for raw, want := range map[string]domain.Operator{
			"gt": domain.OpGreater, "lte": domain.OpLessEq,
			"!=": domain.OpNotEqual, "==": domain.OpEqual,
			"between": domain.OpBetween,
		} {
			rec := base
			rec.ValidationType = "threshold"
			rec.Operator = raw
			rule, err := Resolve(rec)
			require.NoError(t, err)
			assert.Equal(t, want, rule.Operator, "operator %q", raw)
		}
	})
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shahul3595/SFCAudit/pkg/runtime/terminal/export"
	"github.com/shahul3595/SFCAudit/pkg/services/audit"
	"github.com/shahul3595/SFCAudit/pkg/services/config"
	"github.com/shahul3595/SFCAudit/pkg/services/report"
	"github.com/shahul3595/SFCAudit/pkg/services/rules"
	"github.com/shahul3595/SFCAudit/pkg/store/dataset"
)

type RunCmd struct {
	profilePath string
	workers     int
	noDashboard bool
	reporter    *export.Reporter
}

func NewRunCmd(reporter *export.Reporter) *cobra.Command {
	rc := &RunCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every enabled audit rule over the dataset",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.profilePath, "profile", "", "Path to the audit profile (YAML)")
	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Rule evaluation parallelism (overrides profile)")
	cmd.Flags().BoolVar(&rc.noDashboard, "no-dashboard", false, "Skip writing the Excel dashboard")

	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	profile, err := config.Load(rc.profilePath)
	if err != nil {
		return err
	}
	workers := profile.Workers
	if rc.workers > 0 {
		workers = rc.workers
	}

	store, err := dataset.Load(profile.DataDir, profile.Dataset, logger)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	ruleSet, err := rules.NewLoader().LoadWorkbook(ctx, profile.RulesWorkbook)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if len(ruleSet) == 0 {
		return fmt.Errorf("no enabled rules in %s", profile.RulesWorkbook)
	}

	run, err := audit.NewExecutor(store).Run(ctx, ruleSet, workers)
	if err != nil {
		return err
	}

	if !rc.noDashboard {
		// One timestamped folder per run keeps the output dir from flooding.
		outDir := filepath.Join(profile.OutputDir, "Audit_"+run.StartedAt.Format("20060102_150405"))
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		dashboard := filepath.Join(outDir, "audit_dashboard.xlsx")
		if err := report.WriteDashboard(dashboard, run); err != nil {
			return err
		}
		logger.Info().Str("path", dashboard).Msg("dashboard written")
	}

	return rc.reporter.Handle(run)
}

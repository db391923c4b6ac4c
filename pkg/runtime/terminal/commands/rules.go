package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shahul3595/SFCAudit/pkg/services/config"
	"github.com/shahul3595/SFCAudit/pkg/services/rules"
)

type RulesCmd struct {
	profilePath string
}

func NewRulesCmd() *cobra.Command {
	rc := &RulesCmd{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the enabled rules in the configured workbook",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.profilePath, "profile", "", "Path to the audit profile (YAML)")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (rc *RulesCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	profile, err := config.Load(rc.profilePath)
	if err != nil {
		return err
	}

	ruleSet, err := rules.NewLoader().LoadWorkbook(ctx, profile.RulesWorkbook)
	if err != nil {
		return err
	}

	for _, r := range ruleSet {
		line := fmt.Sprintf("%-12s %-16s %-8s %s", r.ID, r.Type, r.Severity, r.Description)
		if r.Type.Statistical() {
			line += fmt.Sprintf(" [peer: %s, param: %g]", r.Grouping.Mode, r.Param)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d enabled rules\n", len(ruleSet))
	return nil
}

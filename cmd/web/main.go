package main

import (
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	handlers "github.com/shahul3595/SFCAudit/pkg/handlers/audit"
	"github.com/shahul3595/SFCAudit/pkg/server"
	"github.com/shahul3595/SFCAudit/pkg/services/audit"
	"github.com/shahul3595/SFCAudit/pkg/services/config"
	"github.com/shahul3595/SFCAudit/pkg/services/rules"
	"github.com/shahul3595/SFCAudit/pkg/store/dataset"
)

var profilePath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the audit engine",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&profilePath, "profile", "c", "audit.yaml",
		"Path to the audit profile (YAML)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	profile, err := config.Load(profilePath)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	store, err := dataset.Load(profile.DataDir, profile.Dataset, logger)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	ruleSet, err := rules.NewLoader().LoadWorkbook(ctx, profile.RulesWorkbook)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	logger.Info().
		Int("entities", len(store.Entities())).
		Int("rules", len(ruleSet)).
		Msgf("profile `%s` loaded", profilePath)

	handler := handlers.NewHandler(audit.NewExecutor(store), ruleSet)

	addr := net.JoinHostPort(profile.Server.Host, profile.Server.Port)
	api := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Audit: handler,
		},
	})

	return api.Start()
}

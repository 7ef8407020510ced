package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/runtime/app"
	"github.com/de-tools/compliance-atlas/pkg/server"
	"github.com/de-tools/compliance-atlas/pkg/services/config"
	"github.com/de-tools/compliance-atlas/pkg/services/schedule"
	"github.com/de-tools/compliance-atlas/pkg/telemetry"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the compliance auditor API server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the settings YAML file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger := telemetry.NewLogger(os.Stdout, settings.Log.Level, settings.Log.Console)
	ctx := logger.WithContext(cmd.Context())

	a, err := app.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize auditor: %w", err)
	}
	defer a.Close()

	logger.Info().
		Str("store", settings.Store.Backend).
		Strs("excluded_accounts", settings.Audit.ExcludedAccounts).
		Msg("configuration loaded")

	deps := server.Dependencies{
		Store:   a.Store,
		Auditor: a.Auditor,
		Metrics: a.Metrics,
		Logger:  logger,
	}

	if len(settings.Schedule.Accounts) > 0 {
		ctrl := schedule.NewController(a.Auditor, settings.Schedule.Interval)
		defer ctrl.CancelAll(ctx)
		for _, ref := range settings.Schedule.Accounts {
			if err := ctrl.Start(ctx, domain.ParseAccountRef(ref)); err != nil {
				return fmt.Errorf("failed to schedule %s: %w", ref, err)
			}
		}
		logger.Info().
			Strs("accounts", settings.Schedule.Accounts).
			Dur("interval", settings.Schedule.Interval).
			Msg("scheduled audits started")
		deps.Schedules = ctrl
	}

	api := server.NewWebAPI(server.Config{
		Addr:         net.JoinHostPort(settings.Server.Host, settings.Server.Port),
		Dependencies: deps,
	})

	return api.Start()
}

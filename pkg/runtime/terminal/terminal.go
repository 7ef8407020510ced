package terminal

import (
	"context"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/runtime/app"
	"github.com/de-tools/compliance-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/compliance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/compliance-atlas/pkg/services/config"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
	"github.com/de-tools/compliance-atlas/pkg/telemetry"
)

// CLI represents the command-line interface
type CLI struct {
	env        *commands.Env
	logOutput  io.Writer
	configPath string
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	// Output receives reports (default: stdout)
	Output io.Writer
	// LogOutput receives structured logs (default: stderr)
	LogOutput io.Writer
	NewApp    func(ctx context.Context, s *config.Settings) (*app.App, error)
	OpenStore func(ctx context.Context, s *config.Settings) (records.Store, func() error, error)
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.NewApp == nil {
		opts.NewApp = app.New
	}
	if opts.OpenStore == nil {
		opts.OpenStore = openStore
	}

	cli := &CLI{
		env: &commands.Env{
			Reporter:  export.NewReporter(opts.Output),
			NewApp:    opts.NewApp,
			OpenStore: opts.OpenStore,
		},
		logOutput: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "audit-cli",
		Short:             "EMR bootstrap compliance auditor",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setup,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to the settings YAML file")

	cmd.AddCommand(commands.NewAuditCmd(cli.env))
	cmd.AddCommand(commands.NewRecordsCmd(cli.env))
	cmd.AddCommand(commands.NewProfilesCmd())

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(cli.configPath)
	if err != nil {
		return err
	}
	cli.env.Settings = settings

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := telemetry.NewLogger(cli.logOutput, settings.Log.Level, settings.Log.Console)
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}

func openStore(ctx context.Context, s *config.Settings) (records.Store, func() error, error) {
	var cfg aws.Config
	if s.Store.Backend == config.BackendDynamoDB {
		var err error
		cfg, err = config.LoadAWSConfig(ctx, s.AWS)
		if err != nil {
			return nil, nil, err
		}
	}

	st, db, err := app.NewStore(ctx, cfg, s.Store, s.Retry)
	if err != nil {
		return nil, nil, err
	}
	release := func() error { return nil }
	if db != nil {
		release = db.Close
	}
	return st, release, nil
}

package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quocanhngo/deadlinemind/internal/bootstrap"
	"github.com/quocanhngo/deadlinemind/internal/config"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"github.com/quocanhngo/deadlinemind/migrations"
	"github.com/quocanhngo/deadlinemind/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

type options struct {
	failOnErrors bool
	logLevel     string
}

// NewScannerCommand builds the deadlinemind-scan CLI: one expiry scan per
// invocation, for schedulers that run a process instead of calling HTTP.
func NewScannerCommand(ctx context.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "deadlinemind-scan",
		Short:         "Run one vehicle expiry notification scan",
		Long:          "Scans every vehicle, sends due tax and insurance reminders by e-mail and WhatsApp, records them in the notification ledger and prints the run summary as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			summary, err := runScan(ctx, cfg, log)
			if summary != nil {
				if perr := printSummary(cmd, summary); perr != nil {
					return perr
				}
			}
			if err != nil {
				log.Error("❌ Expiry scan failed", zap.Error(err))
				return err
			}
			if opts.failOnErrors && summary.ErrorsEncountered > 0 {
				return &ExitError{Code: 2, Err: fmt.Errorf("scan finished with %d errors", summary.ErrorsEncountered)}
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&opts.failOnErrors, "fail-on-errors", false, "exit with status 2 when the scan reports any error")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(newMigrateCommand(opts))
	return cmd
}

func setup(opts *options) (*config.Config, *zap.Logger, error) {
	cfg := config.Load()
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

func runScan(ctx context.Context, cfg *config.Config, log *zap.Logger) (*model.RunSummary, error) {
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer app.Close()
	return app.Scan.Run(ctx)
}

func printSummary(cmd *cobra.Command, summary *model.RunSummary) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func newMigrateCommand(opts *options) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	run := func(apply func(string, *zap.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.Store.Driver != config.StorePostgres {
				return fmt.Errorf("migrations only apply to the %s data store, DATA_STORE is %s", config.StorePostgres, cfg.Store.Driver)
			}
			return apply(cfg.DB.URL(), log)
		}
	}

	migrate.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(migrations.Run)},
		&cobra.Command{Use: "down", Short: "Revert the last migration", RunE: run(migrations.Rollback)},
	)
	return migrate
}

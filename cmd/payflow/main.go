package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"payflow/internal/app/server"
	"payflow/internal/platform/config"
	"payflow/internal/platform/db"
	"payflow/internal/platform/email"
	"payflow/internal/platform/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "payflow",
		Short:         "Payroll and payslip delivery service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file path (yaml, json or toml)")

	load := func() (config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, err
		}
		logging.New(cfg.LogLevel, cfg.LogFormat)
		return cfg, nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background job worker (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = zap.L().Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := server.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Serve(ctx)
		},
	}
	root.RunE = serve.RunE

	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				database, err := db.Connect(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer func() { _ = database.Close() }()
				if err := db.Migrate(database); err != nil {
					return err
				}
				zap.L().Info("migrations applied", zap.String("dialect", string(database.Dialect)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create the seed admin account if it does not exist",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				cfg.RunSeed = true
				app, err := server.New(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				app.Close()
				return nil
			},
		},
		&cobra.Command{
			Use:   "retry-failed",
			Short: "Retry every pending failed payslip once and print the summary",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				app, err := server.New(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer app.Close()

				summary, err := app.Services.FailedPayslips.RetryAll(cmd.Context())
				if errors.Is(err, email.ErrNotConfigured) {
					return fmt.Errorf("email is not configured: configure SMTP before retrying")
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			},
		},
		&cobra.Command{
			Use:   "failed-payslips",
			Short: "Print every queued failed payslip, pending and resolved",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				app, err := server.New(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer app.Close()

				rows, err := app.Services.FailedPayslips.Store.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, rows)
			},
		},
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

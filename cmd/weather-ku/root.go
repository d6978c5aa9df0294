package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-ku/internal/config"
	"github.com/i474232898/weather-ku/internal/observability"
)

// app carries what every subcommand needs once flags have been parsed.
type app struct {
	cfg    *config.AppConfig
	logger *slog.Logger

	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "weather-ku [FILE]",
		Short: "Serve a date-keyed weather observation table over HTTP",
		Long: `weather-ku loads a seven-line weather observation file into an ordered,
date-keyed in-memory table, serves ranged and projected reads plus batched
inserts, updates and deletes over HTTP, and periodically rewrites the file
from memory. Shutdown drains in-flight requests and performs a final flush.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: json or text (overrides LOG_FORMAT)")

	serve := newServeCmd(a)
	root.AddCommand(serve, newCheckCmd(a), newFetchCmd(a))

	// serve is the default command.
	root.Flags().AddFlagSet(serve.Flags())
	root.RunE = serve.RunE

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}

	logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

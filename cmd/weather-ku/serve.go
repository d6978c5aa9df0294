package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/weather-ku/internal/api/http"
	"github.com/i474232898/weather-ku/internal/observability"
	"github.com/i474232898/weather-ku/internal/scheduler"
	"github.com/i474232898/weather-ku/internal/store"
	"github.com/i474232898/weather-ku/internal/weather"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listenAddr    string
		flushInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [FILE]",
		Short: "Load FILE and serve it over HTTP (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.cfg.DataFile = args[0]
			}
			if listenAddr != "" {
				a.cfg.HTTPAddr = listenAddr
			}
			if flushInterval > 0 {
				a.cfg.FlushInterval = flushInterval
			}
			if err := a.cfg.ValidateServe(); err != nil {
				return err
			}
			return a.serve(cmd.Context(), nil)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides HTTP_ADDR)")
	cmd.Flags().DurationVar(&flushInterval, "flush-interval", 0, "backing file flush interval (overrides FLUSH_INTERVAL)")
	return cmd
}

// serve runs the API until parent is cancelled, a signal arrives or a flush
// fails. A nil ln listens on HTTPAddr once the data file has loaded.
func (a *app) serve(parent context.Context, ln net.Listener) error {
	cfg, logger := a.cfg, a.logger

	files := store.NewFileStore(cfg.DataFile)
	table, err := files.Load()
	if err != nil {
		return err
	}
	if ln == nil {
		if ln, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
			return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
		}
	}
	logger.Info("table loaded", "file", cfg.DataFile, "records", table.Len())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	svc := weather.NewService(store.NewMemoryStore(table), files, logger, metrics, clockwork.NewRealClock())

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fatal := make(chan error, 1)
	sched := scheduler.New(svc, cfg.FlushInterval, logger, func(err error) {
		select {
		case fatal <- err:
		default:
		}
	})
	if err := sched.Start(); err != nil {
		ln.Close()
		return fmt.Errorf("start scheduler: %w", err)
	}

	srv := httpapi.NewApp(svc, httpapi.Options{
		Logger:    logger,
		Gatherer:  reg,
		AccessLog: true,
	})

	logger.Info("weather-ku ready", "addr", ln.Addr().String(), "flush_interval", cfg.FlushInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Listener(ln) })
	g.Go(func() error {
		var fatalErr error
		select {
		case <-gctx.Done():
			logger.Info("shutdown requested")
		case fatalErr = <-fatal:
			logger.Error("stopping after failed flush", "error", fatalErr)
		}

		svc.Drain()
		if err := srv.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			logger.Warn("http shutdown incomplete", "error", err)
		}
		return fatalErr
	})

	waitErr := g.Wait()
	sched.Stop()

	// Always run the final flush, even on error.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	flushErr := svc.Shutdown(shutdownCtx)

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		logger.Error("weather-ku exited with error", "error", waitErr)
		return errors.Join(waitErr, flushErr)
	}
	if flushErr != nil {
		return flushErr
	}
	logger.Info("weather-ku shutdown complete")
	return nil
}

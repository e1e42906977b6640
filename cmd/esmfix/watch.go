package main

import (
	"context"
	"log/slog"
	"time"

	"esmfix/internal/core/walker"
	"esmfix/internal/core/watcher"
	"esmfix/internal/shared/observability"
	"esmfix/internal/shared/util"

	"github.com/spf13/cobra"
)

func newWatchCmd(opts *options) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [flags] <path>...",
		Short: "Fix imports, then keep fixing files as they change",
		Long: `watch runs a full fix over the given paths, then re-runs it on every
batch of changed source files until interrupted. Batches are debounced and
rate limited by the [watch] section of the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, metricsAddr, args)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *options, metricsAddr string, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = metricsAddr
	}

	shutdown, err := startTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report, err := a.walker.Run(ctx, args)
	if err != nil {
		return err
	}
	printSummary(out, report)

	if cfg.Observability.MetricsAddr != "" {
		srv := observability.NewMetricsServer(cfg.Observability.MetricsAddr)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	session := watcher.NewSession(a.walker, util.NewLimiter(cfg.Watch.MaxRunsPerSecond, 1), func(r walker.Report, err error) {
		if err == nil && len(r.Changes) > 0 {
			printSummary(out, r)
		}
	})
	w, err := watcher.NewWatcher(cfg.Watch.Debounce,
		[]string{cfg.Dependencies.Dir},
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		func(paths []string) { session.Handle(ctx, paths) },
	)
	if err != nil {
		return err
	}
	defer w.Close()
	w.SetExtensions(cfg.EntryExtensions)

	if err := w.Watch(args); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", args, "debounce", cfg.Watch.Debounce)

	<-ctx.Done()
	slog.Info("watch stopped")
	return nil
}

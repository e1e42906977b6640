package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"esmfix/internal/core/config"
	domainerrors "esmfix/internal/core/errors"
	"esmfix/internal/core/walker"
	"esmfix/internal/engine/resolver"
	"esmfix/internal/engine/rewriter"
	"esmfix/internal/engine/scanner"
	"esmfix/internal/shared/observability"

	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Config
	walker *walker.Walker
}

func newApp(cfg *config.Config) (*app, error) {
	var sc scanner.Scanner
	switch cfg.Scanner {
	case config.ScannerSyntax:
		sc = scanner.NewSyntaxScanner()
	default:
		sc = scanner.NewPatternScanner()
	}

	deps := resolver.NewDependencyResolver(resolver.DependencyOptions{
		Dir:           cfg.Dependencies.Dir,
		Manifest:      cfg.Dependencies.Manifest,
		EntryFields:   cfg.Dependencies.EntryFields,
		DefaultEntry:  cfg.Dependencies.DefaultEntry,
		BuiltinPrefix: cfg.Dependencies.BuiltinPrefix,
		Builtins:      cfg.Dependencies.Builtins,
	})

	w, err := walker.New(walker.Options{
		EntryExtensions:         cfg.EntryExtensions,
		RewriteTypeImports:      cfg.RewriteTypeImports,
		Style:                   resolver.Style(cfg.Rewrite.Style),
		FollowDependencyEntries: cfg.Dependencies.FollowEntries,
		ExcludeDirs:             cfg.Exclude.Dirs,
		ExcludeFiles:            cfg.Exclude.Files,
		ScannerName:             cfg.Scanner,
	}, sc, resolver.NewFileResolver(), deps, rewriter.New(cfg.DryRun))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid configuration")
	}
	return &app{cfg: cfg, walker: w}, nil
}

// loadConfig layers the config file, ESMFIX_* variables and explicitly set
// flags, in that order. A missing default config file is not an error.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.LoadOptional(opts.configPath, !flags.Changed("config"))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "failed to load config").
			WithContext(domainerrors.CtxPath, opts.configPath)
	}
	config.ApplyEnvOverrides(cfg)

	if flags.Changed("rewrite-type-imports") {
		cfg.RewriteTypeImports = opts.rewriteTypeImports
	}
	if flags.Changed("style") {
		cfg.Rewrite.Style = strings.ToLower(strings.TrimSpace(opts.style))
	}
	if flags.Changed("scanner") {
		cfg.Scanner = strings.ToLower(strings.TrimSpace(opts.scanner))
	}
	if flags.Changed("follow-deps") {
		cfg.Dependencies.FollowEntries = opts.followDeps
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}

	if err := config.Validate(cfg); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid configuration")
	}
	return cfg, nil
}

func startTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	shutdown, err := observability.InitTracing(ctx, cfg.Observability.TracingEndpoint, Version)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}, nil
}

func printSummary(w io.Writer, report walker.Report) {
	for _, c := range report.Changes {
		fmt.Fprintf(w, "%s:%d: %s -> %s\n", c.Path, c.Line, c.From, c.To)
	}
	suffix := ""
	if report.DryRun {
		suffix = " (dry run, nothing written)"
	}
	fmt.Fprintf(w, "done. %d files scanned, %d imports fixed in %s%s\n",
		report.FilesScanned, len(report.Changes), report.Duration.Round(time.Millisecond), suffix)
}

package watcher

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"esmfix/internal/core/walker"
	"esmfix/internal/shared/observability"
	"esmfix/internal/shared/util"
)

// Runner is the part of the walker a session drives.
type Runner interface {
	Run(ctx context.Context, entryPoints []string) (walker.Report, error)
}

// Session turns batches of changed files into traversals. Each batch is a
// fresh traversal with the changed files as entry points; the session's own
// rewrites come back as one more batch that changes nothing.
type Session struct {
	runner  Runner
	limiter *util.Limiter
	onRun   func(walker.Report, error)
}

func NewSession(runner Runner, limiter *util.Limiter, onRun func(walker.Report, error)) *Session {
	if limiter == nil {
		limiter = util.NewLimiter(0, 1)
	}
	return &Session{runner: runner, limiter: limiter, onRun: onRun}
}

// Handle runs one traversal over the paths that still exist. Errors are
// reported to onRun and logged; watch mode keeps going after a failed run.
func (s *Session) Handle(ctx context.Context, paths []string) {
	entries := existingFiles(paths)
	if len(entries) == 0 {
		return
	}
	if !s.limiter.Allow() {
		slog.Debug("watch run throttled", "files", len(entries))
		observability.WatchRunsTotal.WithLabelValues("throttled").Inc()
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
	}

	report, err := s.runner.Run(ctx, entries)
	if err != nil {
		observability.WatchRunsTotal.WithLabelValues("failed").Inc()
		slog.Error("watch run failed", "files", entries, "error", err)
	} else {
		observability.WatchRunsTotal.WithLabelValues("ok").Inc()
		if len(report.Changes) > 0 {
			slog.Info("watch run fixed imports", "run_id", report.RunID, "rewrites", len(report.Changes))
		}
	}
	if s.onRun != nil {
		s.onRun(report, err)
	}
}

func existingFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

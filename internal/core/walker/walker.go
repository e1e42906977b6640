// Package walker drives the traversal: it visits entry points, scans every
// reachable file once and rewrites specifiers that are not directly
// loadable.
package walker

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainerrors "esmfix/internal/core/errors"
	"esmfix/internal/engine/resolver"
	"esmfix/internal/engine/rewriter"
	"esmfix/internal/engine/scanner"
	"esmfix/internal/shared/observability"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	// EntryExtensions selects which files found in directory entry points
	// are scanned; other files are unsupported leaves.
	EntryExtensions    []string
	RewriteTypeImports bool
	Style              resolver.Style
	// FollowDependencyEntries traverses the entry file of every located
	// dependency, including package roots that are never rewritten.
	FollowDependencyEntries bool
	ExcludeDirs             []string
	ExcludeFiles            []string
	// ScannerName labels scan metrics.
	ScannerName string
}

type Walker struct {
	opts         Options
	scanner      scanner.Scanner
	files        *resolver.FileResolver
	deps         *resolver.DependencyResolver
	rewriter     *rewriter.Rewriter
	entryExts    map[string]bool
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func New(opts Options, sc scanner.Scanner, files *resolver.FileResolver, deps *resolver.DependencyResolver, rw *rewriter.Rewriter) (*Walker, error) {
	if sc == nil || files == nil || deps == nil || rw == nil {
		return nil, fmt.Errorf("walker requires a scanner, resolvers and a rewriter")
	}
	if opts.Style == "" {
		opts.Style = resolver.StyleSource
	}
	if opts.ScannerName == "" {
		opts.ScannerName = "custom"
	}

	w := &Walker{
		opts:      opts,
		scanner:   sc,
		files:     files,
		deps:      deps,
		rewriter:  rw,
		entryExts: make(map[string]bool, len(opts.EntryExtensions)),
	}
	for _, ext := range opts.EntryExtensions {
		w.entryExts[strings.ToLower(ext)] = true
	}
	for _, p := range opts.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}
	for _, p := range opts.ExcludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		w.excludeFiles = append(w.excludeFiles, g)
	}
	return w, nil
}

// Run traverses entryPoints with a fresh traversal. It returns once every
// spawned task has finished; the first fatal error cancels the rest.
// Rewrites committed before the failure stay on disk.
func (w *Walker) Run(ctx context.Context, entryPoints []string) (Report, error) {
	start := time.Now()
	roots, err := validateEntryPoints(entryPoints)
	if err != nil {
		return Report{}, err
	}

	tr := newTraversal()
	ctx, span := observability.Tracer.Start(ctx, "walker.Run", trace.WithAttributes(
		attribute.String("run_id", tr.id),
		attribute.Int("entry_points", len(roots)),
	))
	defer span.End()

	slog.Debug("traversal started", "run_id", tr.id, "entry_points", roots)

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		g.Go(func() error {
			return w.visitEntry(gctx, g, tr, root, true)
		})
	}
	err = g.Wait()

	report := tr.snapshot()
	report.Duration = time.Since(start)
	report.DryRun = w.rewriter.DryRun()
	observability.RunDuration.Observe(report.Duration.Seconds())
	if err != nil {
		span.RecordError(err)
		return report, err
	}
	slog.Debug("traversal finished",
		"run_id", tr.id,
		"files", report.FilesScanned,
		"rewrites", len(report.Changes),
		"duration", report.Duration,
	)
	return report, nil
}

// validateEntryPoints fails before any file is touched when the list is
// empty or names paths that do not exist.
func validateEntryPoints(entryPoints []string) ([]string, error) {
	if len(entryPoints) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "missing entry point in argument")
	}

	var missing []string
	roots := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		if _, err := os.Stat(ep); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				missing = append(missing, fmt.Sprintf("%q", ep))
				continue
			}
			return nil, domainerrors.FromFS(err, "stat", ep)
		}
		abs, err := filepath.Abs(ep)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "resolve entry point").
				WithContext(domainerrors.CtxPath, ep)
		}
		roots = append(roots, abs)
	}
	if len(missing) > 0 {
		return nil, domainerrors.New(domainerrors.CodeNotFound,
			fmt.Sprintf("entryPoint %s does not exist", strings.Join(missing, ", ")))
	}
	return roots, nil
}

func (w *Walker) visitEntry(ctx context.Context, g *errgroup.Group, tr *Traversal, path string, explicit bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			slog.Info("skip dangling entry", "path", path)
			tr.recordSkip()
			return nil
		}
		return domainerrors.FromFS(err, "stat", path)
	}

	switch {
	case info.Mode().IsRegular():
		if !w.entryExts[strings.ToLower(filepath.Ext(path))] {
			// e.g. package.json, .gitignore
			slog.Debug("skip non-script file", "path", path)
			tr.recordSkip()
			return nil
		}
		return w.visitFile(ctx, tr, path)

	case info.IsDir():
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return domainerrors.FromFS(err, "resolve symlinks", path)
		}
		if !tr.claimDir(realPath) {
			return nil
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return domainerrors.FromFS(err, "read dir", path)
		}
		for _, entry := range entries {
			name := entry.Name()
			if name == w.deps.DependencyDir() || w.excluded(entry) {
				continue
			}
			child := filepath.Join(path, name)
			g.Go(func() error {
				return w.visitEntry(ctx, g, tr, child, false)
			})
		}
		return nil

	default:
		// e.g. socket file
		slog.Info("skip unsupported file", "path", path, "mode", info.Mode().String())
		tr.recordSkip()
		return nil
	}
}

func (w *Walker) excluded(entry fs.DirEntry) bool {
	patterns := w.excludeFiles
	if entry.IsDir() {
		patterns = w.excludeDirs
	}
	for _, g := range patterns {
		if g.Match(entry.Name()) {
			return true
		}
	}
	return false
}

// visitFile scans path once per traversal. Occurrences are handled in
// order because each rewrite re-reads the file written by the previous one;
// shift carries the length change of earlier rewrites so later offsets
// still point at their statements.
func (w *Walker) visitFile(ctx context.Context, tr *Traversal, path string) error {
	// Claim by real path: two names for one file must not be rewritten
	// concurrently.
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return domainerrors.FromFS(err, "resolve symlinks", path)
	}
	if !tr.claimFile(realPath, path) {
		return nil
	}
	ctx, span := observability.Tracer.Start(ctx, "walker.visitFile", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	slog.Debug("scan file", "run_id", tr.id, "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return domainerrors.FromFS(err, "read", path)
	}

	start := time.Now()
	occs, err := w.scanner.Scan(path, data)
	observability.ScanDuration.WithLabelValues(w.opts.ScannerName).Observe(time.Since(start).Seconds())
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "scan failed").
			WithContext(domainerrors.CtxPath, path)
	}
	observability.FilesScannedTotal.Inc()

	shift := 0
	for _, occ := range occs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if occ.TypeOnly && !w.opts.RewriteTypeImports {
			continue
		}
		occ.Offset += shift
		delta, err := w.visitOccurrence(ctx, tr, path, occ)
		if err != nil {
			span.RecordError(err)
			return err
		}
		shift += delta
	}
	return nil
}

// visitOccurrence returns the length change its rewrite made to path.
func (w *Walker) visitOccurrence(ctx context.Context, tr *Traversal, path string, occ scanner.Occurrence) (int, error) {
	spec := resolver.Classify(path, occ.Specifier)
	if spec.Kind == resolver.KindBare {
		return w.visitDependency(ctx, tr, path, occ)
	}

	res, err := w.files.Resolve(spec.Path)
	if err != nil {
		observability.ResolutionsTotal.WithLabelValues(string(spec.Kind), "failed").Inc()
		return 0, withOccurrence(err, path, occ)
	}
	observability.ResolutionsTotal.WithLabelValues(string(spec.Kind), res.Step.String()).Inc()

	delta := 0
	newSpec := resolver.ExplicitSpecifier(occ.Specifier, res, w.opts.Style)
	if newSpec != occ.Specifier {
		if delta, err = w.rewrite(tr, path, occ, newSpec); err != nil {
			return 0, err
		}
	}
	return delta, w.visitFile(ctx, tr, res.Path)
}

func (w *Walker) visitDependency(ctx context.Context, tr *Traversal, path string, occ scanner.Occurrence) (int, error) {
	dep, err := w.deps.Resolve(path, occ.Specifier)
	if err != nil {
		observability.ResolutionsTotal.WithLabelValues(string(resolver.KindBare), "failed").Inc()
		return 0, withOccurrence(err, path, occ)
	}

	if dep.Skipped() {
		observability.ResolutionsTotal.WithLabelValues(string(resolver.KindBare), string(dep.Skip)).Inc()
		if dep.Skip == resolver.SkipPackageRoot && w.opts.FollowDependencyEntries {
			return 0, w.followPackageRoot(ctx, tr, path, occ.Specifier)
		}
		return 0, nil
	}
	observability.ResolutionsTotal.WithLabelValues(string(resolver.KindBare), "located").Inc()

	delta := 0
	if dep.Rewrite != "" {
		if delta, err = w.rewrite(tr, path, occ, dep.Rewrite); err != nil {
			return 0, err
		}
	}
	if w.opts.FollowDependencyEntries {
		return delta, w.followEntry(ctx, tr, dep.Entry)
	}
	return delta, nil
}

// followPackageRoot locates a package imported by its bare name. Such names
// are never rewritten and a missing one is assumed to be provided by the
// runtime.
func (w *Walker) followPackageRoot(ctx context.Context, tr *Traversal, path, name string) error {
	root, ok, err := w.deps.Locate(path, name)
	if err != nil {
		return err
	}
	if !ok {
		slog.Debug("dependency not installed, assuming loadable", "path", path, "specifier", name)
		return nil
	}
	entry, err := w.deps.EntryFile(root)
	if err != nil {
		return err
	}
	return w.followEntry(ctx, tr, entry)
}

func (w *Walker) followEntry(ctx context.Context, tr *Traversal, entry string) error {
	res, err := w.files.Resolve(entry)
	if err != nil {
		if domainerrors.IsCode(err, domainerrors.CodeNotFound) {
			slog.Warn("dependency entry file not found", "entry", entry)
			return nil
		}
		return err
	}
	return w.visitFile(ctx, tr, res.Path)
}

// rewrite applies newSpec and returns how much longer path became. A dry
// run leaves the file untouched, so later offsets need no shift.
func (w *Walker) rewrite(tr *Traversal, path string, occ scanner.Occurrence, newSpec string) (int, error) {
	next, err := w.rewriter.Apply(path, occ, newSpec)
	if err != nil {
		return 0, err
	}
	slog.Info("fix import", "path", path, "line", occ.Line, "from", occ.Specifier, "to", newSpec)
	tr.recordChange(Change{Path: path, Line: occ.Line, From: occ.Specifier, To: newSpec})
	if w.rewriter.DryRun() {
		return 0, nil
	}
	return len(next.Statement) - len(occ.Statement), nil
}

func withOccurrence(err error, path string, occ scanner.Occurrence) error {
	err = domainerrors.AddContext(err, domainerrors.CtxPath, path)
	err = domainerrors.AddContext(err, domainerrors.CtxSpecifier, occ.Specifier)
	return domainerrors.AddContext(err, domainerrors.CtxStatement, occ.Statement)
}

// Package rewriter applies specifier rewrites to files on disk.
package rewriter

import (
	"log/slog"
	"os"
	"strings"

	domainerrors "esmfix/internal/core/errors"
	"esmfix/internal/engine/scanner"
	"esmfix/internal/shared/observability"
)

// Rewriter replaces a statement's specifier in the file that contains it.
// Every call re-reads the file so consecutive rewrites of one file observe
// each other.
type Rewriter struct {
	dryRun bool
}

func New(dryRun bool) *Rewriter {
	return &Rewriter{dryRun: dryRun}
}

func (r *Rewriter) DryRun() bool {
	return r.dryRun
}

// Apply rewrites the first copy of occ.Statement at or after occ.Offset so
// it names newSpec, and returns the rewritten occurrence. Callers that apply
// several rewrites to one file shift later offsets by the length change of
// earlier ones.
func (r *Rewriter) Apply(path string, occ scanner.Occurrence, newSpec string) (scanner.Occurrence, error) {
	next := occ.WithSpecifier(newSpec)
	if next.Statement == occ.Statement {
		return occ, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return occ, domainerrors.FromFS(err, "stat", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return occ, domainerrors.FromFS(err, "read", path)
	}
	code := string(data)
	at := -1
	if occ.Offset >= 0 && occ.Offset <= len(code) {
		if i := strings.Index(code[occ.Offset:], occ.Statement); i >= 0 {
			at = occ.Offset + i
		}
	}
	if at < 0 {
		return occ, domainerrors.New(domainerrors.CodeConflict, "statement no longer present in file").
			WithContext(domainerrors.CtxPath, path).
			WithContext(domainerrors.CtxStatement, occ.Statement)
	}
	next.Offset = at

	slog.Debug("rewrite import",
		"path", path,
		"line", occ.Line,
		"from", occ.Specifier,
		"to", newSpec,
		"dry_run", r.dryRun,
	)
	observability.RewritesTotal.WithLabelValues(string(occ.Kind)).Inc()
	if r.dryRun {
		return next, nil
	}

	code = code[:at] + next.Statement + code[at+len(occ.Statement):]
	if err := os.WriteFile(path, []byte(code), info.Mode().Perm()); err != nil {
		return occ, domainerrors.FromFS(err, "write", path)
	}
	return next, nil
}

package walker

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	domainerrors "esmfix/internal/core/errors"
	"esmfix/internal/engine/resolver"
	"esmfix/internal/engine/rewriter"
	"esmfix/internal/engine/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalker(t *testing.T, opts Options) *Walker {
	t.Helper()
	if len(opts.EntryExtensions) == 0 {
		opts.EntryExtensions = []string{".js", ".ts"}
	}
	w, err := New(opts,
		scanner.NewPatternScanner(),
		resolver.NewFileResolver(),
		resolver.NewDependencyResolver(resolver.DependencyOptions{BuiltinPrefix: "node:", Builtins: []string{"fs/promises"}}),
		rewriter.New(false),
	)
	require.NoError(t, err)
	return w
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	require.NoError(t, filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		out[path] = read(t, path)
		return nil
	}))
	return out
}

func TestRun_RewritesRelativeImport(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.ts"), "import x from './m'\n\nconsole.log(x) // './m'\n")
	write(t, filepath.Join(root, "m.ts"), "export default 1\n")

	report, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a})
	require.NoError(t, err)

	assert.Equal(t, "import x from './m.ts'\n\nconsole.log(x) // './m'\n", read(t, a))
	require.Len(t, report.Changes, 1)
	assert.Equal(t, Change{Path: a, Line: 1, From: "./m", To: "./m.ts"}, report.Changes[0])
	assert.Equal(t, 2, report.FilesScanned)
	assert.NotEmpty(t, report.RunID)
}

func TestRun_EmitStyle(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.ts"), "import m from './m'\nexport * from './dir'\nimport j from './j.js'\n")
	write(t, filepath.Join(root, "m.ts"), "")
	write(t, filepath.Join(root, "dir", "index.ts"), "")
	write(t, filepath.Join(root, "j.ts"), "")

	_, err := newTestWalker(t, Options{Style: resolver.StyleEmit}).Run(context.Background(), []string{a})
	require.NoError(t, err)

	assert.Equal(t, "import m from './m.js'\nexport * from './dir/index.js'\nimport j from './j.js'\n", read(t, a))
}

func TestRun_Idempotent(t *testing.T) {
	for _, style := range []resolver.Style{resolver.StyleSource, resolver.StyleEmit} {
		t.Run(string(style), func(t *testing.T) {
			root := t.TempDir()
			write(t, filepath.Join(root, "src", "main.ts"), "import a from './a'\nimport { b } from \"../lib/b\"\nexport * from './c.js'\nimport './side'\n")
			write(t, filepath.Join(root, "src", "a.tsx"), "import b from '../lib/b'\n")
			write(t, filepath.Join(root, "lib", "b", "index.js"), "export const b = 1\n")
			write(t, filepath.Join(root, "src", "c.ts"), "")
			write(t, filepath.Join(root, "src", "side.js"), "")

			w := newTestWalker(t, Options{Style: style})
			_, err := w.Run(context.Background(), []string{filepath.Join(root, "src")})
			require.NoError(t, err)
			first := snapshotTree(t, root)

			report, err := w.Run(context.Background(), []string{filepath.Join(root, "src")})
			require.NoError(t, err)
			assert.Empty(t, report.Changes)
			assert.Equal(t, first, snapshotTree(t, root))
		})
	}
}

func TestRun_CommentedDuplicateIsNotRewritten(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.ts"), "// import m from './m'\nimport m from './m'\n")
	write(t, filepath.Join(root, "m.ts"), "")

	w := newTestWalker(t, Options{})
	report, err := w.Run(context.Background(), []string{a})
	require.NoError(t, err)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, 2, report.Changes[0].Line)
	assert.Equal(t, "// import m from './m'\nimport m from './m.ts'\n", read(t, a))

	report, err = w.Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.Empty(t, report.Changes)
	assert.Equal(t, "// import m from './m'\nimport m from './m.ts'\n", read(t, a))
}

func TestRun_RewritesAfterEarlierGrowth(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.ts"),
		"import x from './x'\n// import y from './y'\nimport y from './y'\nimport z from './x'\n")
	write(t, filepath.Join(root, "x.ts"), "")
	write(t, filepath.Join(root, "y.ts"), "")

	report, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.Len(t, report.Changes, 3)
	assert.Equal(t,
		"import x from './x.ts'\n// import y from './y'\nimport y from './y.ts'\nimport z from './x.ts'\n",
		read(t, a))
}

func TestRun_DryRunReportsWithoutWriting(t *testing.T) {
	root := t.TempDir()
	src := "import a from './m'\nimport b from './m'\n"
	a := write(t, filepath.Join(root, "a.js"), src)
	write(t, filepath.Join(root, "m.js"), "")

	w, err := New(Options{EntryExtensions: []string{".js"}},
		scanner.NewPatternScanner(),
		resolver.NewFileResolver(),
		resolver.NewDependencyResolver(resolver.DependencyOptions{}),
		rewriter.New(true),
	)
	require.NoError(t, err)

	report, err := w.Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	require.Len(t, report.Changes, 2)
	assert.Equal(t, 2, report.Changes[1].Line)
	assert.Equal(t, src, read(t, a))
}

func TestRun_CycleSafety(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.js"), "import b from './b'\nexport default 1\n")
	b := write(t, filepath.Join(root, "b.js"), "import a from './a.js'\nexport default 2\n")

	report, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a, root})
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesScanned)
	files := []string{a, b}
	sort.Strings(files)
	assert.Equal(t, files, report.Files)
	assert.Equal(t, "import b from './b.js'\nexport default 1\n", read(t, a))
}

func TestRun_DirectoryEntryPoint(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "package.json"), `{"name": "app"}`)
	write(t, filepath.Join(root, "README.md"), "import x from './nowhere'\n")
	lib := write(t, filepath.Join(root, "src", "lib.js"), "export * from './util'\n")
	write(t, filepath.Join(root, "src", "util.js"), "")
	write(t, filepath.Join(root, "src", "view.jsx"), "import broken from './nowhere'\n")
	write(t, filepath.Join(root, "node_modules", "dep", "index.js"), "import broken from './nowhere'\n")
	write(t, filepath.Join(root, "dist", "out.js"), "import broken from './nowhere'\n")

	w := newTestWalker(t, Options{ExcludeDirs: []string{"dist"}})
	report, err := w.Run(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Equal(t, "export * from './util.js'\n", read(t, lib))
	assert.Equal(t, 2, report.FilesScanned)
	assert.Equal(t, 3, report.Skipped)
}

func TestRun_UnsupportedLeaf(t *testing.T) {
	root := t.TempDir()
	manifest := write(t, filepath.Join(root, "package.json"), `{"main": "./index"}`)

	report, err := newTestWalker(t, Options{}).Run(context.Background(), []string{manifest})
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesScanned)
	assert.Empty(t, report.Changes)
	assert.Equal(t, `{"main": "./index"}`, read(t, manifest))
}

func TestRun_SocketIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets")
	}
	dir, err := os.MkdirTemp("", "sock")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	ln, err := net.Listen("unix", filepath.Join(dir, "s.sock"))
	if err != nil {
		t.Skipf("cannot create unix socket: %v", err)
	}
	defer ln.Close()

	report, err := newTestWalker(t, Options{}).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
}

func TestRun_TypeOnlyImports(t *testing.T) {
	root := t.TempDir()
	src := "import type { T } from './types'\nimport v from './value'\n"
	write(t, filepath.Join(root, "types.ts"), "")
	write(t, filepath.Join(root, "value.ts"), "")

	a := write(t, filepath.Join(root, "a.ts"), src)
	_, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.Equal(t, "import type { T } from './types'\nimport v from './value.ts'\n", read(t, a))

	write(t, a, src)
	_, err = newTestWalker(t, Options{RewriteTypeImports: true}).Run(context.Background(), []string{a})
	require.NoError(t, err)
	assert.Equal(t, "import type { T } from './types.ts'\nimport v from './value.ts'\n", read(t, a))
}

func TestRun_UnresolvableImportIsFatal(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.js"), "import ok from './ok'\nimport gone from './gone'\n")
	write(t, filepath.Join(root, "ok.js"), "")

	_, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "./gone")
	assert.Contains(t, err.Error(), a)

	// Rewrites made before the failure are kept.
	assert.Equal(t, "import ok from './ok.js'\nimport gone from './gone'\n", read(t, a))
}

func TestRun_EntryPointValidation(t *testing.T) {
	w := newTestWalker(t, Options{})

	_, err := w.Run(context.Background(), nil)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))

	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.js"), "import gone from './gone'\n")
	_, err = w.Run(context.Background(), []string{a, filepath.Join(root, "missing.js")})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "missing.js")
	// Nothing was touched.
	assert.Equal(t, "import gone from './gone'\n", read(t, a))
}

func TestRun_BareDependencies(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "src", "a.js"), "import fs from 'fs/promises'\nimport x from 'node:path/posix'\nimport react from 'react'\nimport util from 'lib/util'\nimport sub from 'lib/sub'\n")
	write(t, filepath.Join(root, "node_modules", "lib", "util.js"), "import broken from './nowhere'\n")
	write(t, filepath.Join(root, "node_modules", "lib", "sub", "index.js"), "")

	report, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a})
	require.NoError(t, err)

	assert.Equal(t, "import fs from 'fs/promises'\nimport x from 'node:path/posix'\nimport react from 'react'\nimport util from 'lib/util.js'\nimport sub from 'lib/sub'\n", read(t, a))
	// Dependency internals are not traversed by default.
	assert.Equal(t, 1, report.FilesScanned)
}

func TestRun_MissingDependencyIsFatal(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.js"), "import x from 'nothing/here'\n")

	_, err := newTestWalker(t, Options{}).Run(context.Background(), []string{a})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeDependencyNotFound))
	assert.Contains(t, err.Error(), "nothing/here")
}

func TestRun_FollowDependencyEntries(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "app", "src", "a.js"), "import x from 'pkg'\nimport y from 'ghost'\n")
	write(t, filepath.Join(root, "node_modules", "pkg", "package.json"), `{"main": "lib/entry.js"}`)
	entry := write(t, filepath.Join(root, "node_modules", "pkg", "lib", "entry.js"), "export * from './impl'\n")
	impl := write(t, filepath.Join(root, "node_modules", "pkg", "lib", "impl.js"), "")

	report, err := newTestWalker(t, Options{FollowDependencyEntries: true}).Run(context.Background(), []string{a})
	require.NoError(t, err)

	assert.Equal(t, "import x from 'pkg'\nimport y from 'ghost'\n", read(t, a))
	assert.Contains(t, report.Files, entry)
	assert.Contains(t, report.Files, impl)
	assert.Equal(t, "export * from './impl.js'\n", read(t, entry))
}

func TestRun_Cancelled(t *testing.T) {
	root := t.TempDir()
	a := write(t, filepath.Join(root, "a.js"), "import b from './b'\n")
	write(t, filepath.Join(root, "b.js"), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestWalker(t, Options{}).Run(ctx, []string{a})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "import b from './b'\n", read(t, a))
}

func TestNew_InvalidExclude(t *testing.T) {
	_, err := New(Options{ExcludeDirs: []string{"["}},
		scanner.NewPatternScanner(),
		resolver.NewFileResolver(),
		resolver.NewDependencyResolver(resolver.DependencyOptions{}),
		rewriter.New(false),
	)
	assert.Error(t, err)
}

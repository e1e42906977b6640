package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
entry_extensions = ["js", ".TS", ".jsx"]
rewrite_type_imports = true
scanner = "syntax"

[rewrite]
style = "emit"

[dependencies]
dir = "vendor_modules"
follow_entries = true
builtins = ["fs/promises"]

[exclude]
dirs = [".git", "dist"]
files = ["*.d.ts"]

[watch]
debounce = "1s"
max_runs_per_second = 5.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{".js", ".ts", ".jsx"}, cfg.EntryExtensions)
	assert.True(t, cfg.RewriteTypeImports)
	assert.Equal(t, ScannerSyntax, cfg.Scanner)
	assert.Equal(t, StyleEmit, cfg.Rewrite.Style)
	assert.Equal(t, "vendor_modules", cfg.Dependencies.Dir)
	assert.True(t, cfg.Dependencies.FollowEntries)
	assert.Equal(t, []string{"fs/promises"}, cfg.Dependencies.Builtins)
	assert.Equal(t, "package.json", cfg.Dependencies.Manifest)
	assert.Equal(t, []string{"module", "main"}, cfg.Dependencies.EntryFields)
	assert.Equal(t, []string{".git", "dist"}, cfg.Exclude.Dirs)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 5.0, cfg.Watch.MaxRunsPerSecond)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{".js", ".ts"}, cfg.EntryExtensions)
	assert.False(t, cfg.RewriteTypeImports)
	assert.Equal(t, ScannerPattern, cfg.Scanner)
	assert.Equal(t, StyleSource, cfg.Rewrite.Style)
	assert.Equal(t, "node_modules", cfg.Dependencies.Dir)
	assert.Equal(t, "index.js", cfg.Dependencies.DefaultEntry)
	assert.Equal(t, "node:", cfg.Dependencies.BuiltinPrefix)
	assert.Contains(t, cfg.Dependencies.Builtins, "fs/promises")
	assert.False(t, cfg.Dependencies.FollowEntries)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	require.NoError(t, Validate(cfg))
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, err := LoadOptional(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOptional(missing, false)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `scanner = `},
		{"unknown scanner", `scanner = "ast"`},
		{"unknown style", "[rewrite]\nstyle = \"guess\""},
		{"nested dependency dir", "[dependencies]\ndir = \"a/node_modules\""},
		{"manifest path", "[dependencies]\nmanifest = \"meta/package.json\""},
		{"bad glob", "[exclude]\ndirs = [\"[\"]"},
		{"version", `version = 3`},
		{"negative debounce", "[watch]\ndebounce = \"-1s\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ESMFIX_REWRITE_STYLE", " EMIT ")
	t.Setenv("ESMFIX_DEPENDENCIES_FOLLOW_ENTRIES", "true")
	t.Setenv("ESMFIX_ENTRY_EXTENSIONS", "js,tsx")
	t.Setenv("ESMFIX_WATCH_DEBOUNCE", "2s")
	t.Setenv("ESMFIX_WATCH_MAX_RUNS_PER_SECOND", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, StyleEmit, cfg.Rewrite.Style)
	assert.True(t, cfg.Dependencies.FollowEntries)
	assert.Equal(t, []string{".js", ".tsx"}, cfg.EntryExtensions)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2.0, cfg.Watch.MaxRunsPerSecond)
	require.NoError(t, Validate(cfg))
}

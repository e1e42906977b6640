package config

import (
	"time"
)

const DefaultFile = "esmfix.toml"

type Config struct {
	Version            int           `toml:"version"`
	EntryExtensions    []string      `toml:"entry_extensions"`
	RewriteTypeImports bool          `toml:"rewrite_type_imports"`
	Scanner            string        `toml:"scanner"`
	DryRun             bool          `toml:"dry_run"`
	Rewrite            Rewrite       `toml:"rewrite"`
	Dependencies       Dependencies  `toml:"dependencies"`
	Exclude            Exclude       `toml:"exclude"`
	Watch              Watch         `toml:"watch"`
	Observability      Observability `toml:"observability"`
}

// Rewrite controls the text a resolved specifier is rewritten to.
type Rewrite struct {
	// Style is "source" (name the file found on disk) or "emit" (name the
	// script file the typed source compiles to).
	Style string `toml:"style"`
}

type Dependencies struct {
	Dir           string   `toml:"dir"`
	Manifest      string   `toml:"manifest"`
	EntryFields   []string `toml:"entry_fields"`
	DefaultEntry  string   `toml:"default_entry"`
	BuiltinPrefix string   `toml:"builtin_prefix"`
	Builtins      []string `toml:"builtins"`
	FollowEntries bool     `toml:"follow_entries"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
}

type Observability struct {
	MetricsAddr     string `toml:"metrics_addr"`
	TracingEndpoint string `toml:"tracing_endpoint"`
}

const (
	ScannerPattern = "pattern"
	ScannerSyntax  = "syntax"

	StyleSource = "source"
	StyleEmit   = "emit"
)

// Builtin module paths that carry a sub-path but belong to the host runtime.
var defaultBuiltins = []string{
	"assert/strict",
	"dns/promises",
	"fs/promises",
	"inspector/promises",
	"path/posix",
	"path/win32",
	"readline/promises",
	"stream/consumers",
	"stream/promises",
	"stream/web",
	"timers/promises",
	"util/types",
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOptional loads path, falling back to Default when the file does not
// exist and missingOK is set.
func LoadOptional(path string, missingOK bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if missingOK && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.EntryExtensions) == 0 {
		cfg.EntryExtensions = []string{".js", ".ts"}
	}
	if strings.TrimSpace(cfg.Scanner) == "" {
		cfg.Scanner = ScannerPattern
	}
	if strings.TrimSpace(cfg.Rewrite.Style) == "" {
		cfg.Rewrite.Style = StyleSource
	}

	deps := &cfg.Dependencies
	if strings.TrimSpace(deps.Dir) == "" {
		deps.Dir = "node_modules"
	}
	if strings.TrimSpace(deps.Manifest) == "" {
		deps.Manifest = "package.json"
	}
	if len(deps.EntryFields) == 0 {
		deps.EntryFields = []string{"module", "main"}
	}
	if strings.TrimSpace(deps.DefaultEntry) == "" {
		deps.DefaultEntry = "index.js"
	}
	if strings.TrimSpace(deps.BuiltinPrefix) == "" {
		deps.BuiltinPrefix = "node:"
	}
	if deps.Builtins == nil {
		deps.Builtins = append([]string(nil), defaultBuiltins...)
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		cfg.Watch.MaxRunsPerSecond = 2
	}
}

func normalize(cfg *Config) {
	cfg.Scanner = strings.ToLower(strings.TrimSpace(cfg.Scanner))
	cfg.Rewrite.Style = strings.ToLower(strings.TrimSpace(cfg.Rewrite.Style))

	exts := make([]string, 0, len(cfg.EntryExtensions))
	for _, ext := range cfg.EntryExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.EntryExtensions = exts

	cfg.Dependencies.Dir = strings.TrimSpace(cfg.Dependencies.Dir)
	cfg.Dependencies.Manifest = strings.TrimSpace(cfg.Dependencies.Manifest)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.TracingEndpoint = strings.TrimSpace(cfg.Observability.TracingEndpoint)
}

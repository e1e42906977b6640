package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks a loaded or flag-adjusted configuration.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateScanner(cfg); err != nil {
		return err
	}
	if err := validateRewrite(cfg); err != nil {
		return err
	}
	if err := validateDependencies(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScanner(cfg *Config) error {
	switch cfg.Scanner {
	case ScannerPattern, ScannerSyntax:
		return nil
	}
	return fmt.Errorf("scanner must be one of: %s, %s (got %q)", ScannerPattern, ScannerSyntax, cfg.Scanner)
}

func validateRewrite(cfg *Config) error {
	switch cfg.Rewrite.Style {
	case StyleSource, StyleEmit:
		return nil
	}
	return fmt.Errorf("rewrite.style must be one of: %s, %s (got %q)", StyleSource, StyleEmit, cfg.Rewrite.Style)
}

func validateDependencies(cfg *Config) error {
	deps := cfg.Dependencies
	if deps.Dir == "" || strings.ContainsAny(deps.Dir, `/\`) {
		return fmt.Errorf("dependencies.dir must be a single directory name, got %q", deps.Dir)
	}
	if deps.Manifest == "" || filepath.Base(deps.Manifest) != deps.Manifest {
		return fmt.Errorf("dependencies.manifest must be a file name, got %q", deps.Manifest)
	}
	for i, field := range deps.EntryFields {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("dependencies.entry_fields[%d] must not be empty", i)
		}
	}
	if strings.TrimSpace(deps.DefaultEntry) == "" {
		return fmt.Errorf("dependencies.default_entry must not be empty")
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	return nil
}

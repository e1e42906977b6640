package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ESMFIX_[SECTION]_[KEY] (e.g., ESMFIX_REWRITE_STYLE).
// Callers run Validate afterwards.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Scanner, "ESMFIX_SCANNER")
	setEnvBool(&cfg.RewriteTypeImports, "ESMFIX_REWRITE_TYPE_IMPORTS")
	setEnvBool(&cfg.DryRun, "ESMFIX_DRY_RUN")
	setEnvList(&cfg.EntryExtensions, "ESMFIX_ENTRY_EXTENSIONS")

	// Rewrite
	setEnvString(&cfg.Rewrite.Style, "ESMFIX_REWRITE_STYLE")

	// Dependencies
	setEnvString(&cfg.Dependencies.Dir, "ESMFIX_DEPENDENCIES_DIR")
	setEnvBool(&cfg.Dependencies.FollowEntries, "ESMFIX_DEPENDENCIES_FOLLOW_ENTRIES")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ESMFIX_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "ESMFIX_WATCH_MAX_RUNS_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "ESMFIX_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.TracingEndpoint, "ESMFIX_OBSERVABILITY_TRACING_ENDPOINT")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

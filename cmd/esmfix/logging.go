package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatPretty = "pretty"
)

// setupLogging installs the default slog logger. Engine packages only log
// through slog, so the handler choice stays here.
func setupLogging(w io.Writer, format string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", logFormatText:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case logFormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case logFormatPretty:
		prettyLevel := log.InfoLevel
		if verbose {
			prettyLevel = log.DebugLevel
		}
		handler = log.NewWithOptions(w, log.Options{
			Level:           prettyLevel,
			ReportTimestamp: true,
			Prefix:          "esmfix",
		})
	default:
		return fmt.Errorf("unknown log format %q (want %s, %s or %s)", format, logFormatText, logFormatJSON, logFormatPretty)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

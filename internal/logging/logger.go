// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// New returns a structured pterm logger writing to w at the named level
// ("trace", "debug", "info", "warn", "error" or "off"). Unknown names mean info.
func New(w io.Writer, level string) *pterm.Logger {
	return pterm.DefaultLogger.
		WithWriter(w).
		WithLevel(ParseLevel(level)).
		WithTime(true)
}

// NewJSON is like New but emits one JSON object per line, for `portal serve`
// running under a process supervisor.
func NewJSON(w io.Writer, level string) *pterm.Logger {
	return New(w, level).WithFormatter(pterm.LogFormatterJSON)
}

// Discard returns a logger that drops everything. Tests use it as the default.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard).WithLevel(pterm.LogLevelDisabled)
}

// ParseLevel maps a config level name to a pterm level.
func ParseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "disabled", "none":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

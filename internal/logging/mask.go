// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the portal's structured logger and helpers for
// keeping credentials out of log lines and error messages.
package logging

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rePassword = regexp.MustCompile(`(?i)("?password"?\s*[=:]\s*"?)([^\s;",}]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reURLCreds = regexp.MustCompile(`(?i)(://)([^:/@]+):([^@/]+)(@)`)
	reJSONTok  = regexp.MustCompile(`(?i)("(?:access_token|refresh_token|token)"\s*:\s*")([^"]+)(")`)
)

// Mask replaces sensitive values in the input string with "*".
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reURLCreds.ReplaceAllString(out, "$1*:*$4")
	out = reJSONTok.ReplaceAllString(out, "$1***$3")
	for _, k := range []string{"PORTAL_TOKEN", "ACCESS_TOKEN"} {
		out = strings.ReplaceAll(out, k+"=", k+"=***")
	}
	return out
}

// Fingerprint returns a short, non-reversible hint of a token for log lines,
// e.g. "eyJh…(212)". Empty tokens render as "none".
func Fingerprint(token string) string {
	if token == "" {
		return "none"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "…(" + strconv.Itoa(len(token)) + ")"
}

// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures into user-facing explanations.
// Classification is separate from rendering so the portal's web pages and the
// CLI can share it: Classify picks a Category, Explain gives title and hints,
// and Print renders them with pterm.
package httperrors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/logging"
)

// Category is the user-facing class of a failure.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryTimeout
	CategoryDNS
	CategoryRefused
	CategoryTLS
	CategoryServer
	CategorySessionExpired
)

// Classify picks the category that best explains err.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryGeneric
	case perrors.Is(err, perrors.AuthRejected):
		return CategorySessionExpired
	case isTimeoutError(err):
		return CategoryTimeout
	case isDNSError(err):
		return CategoryDNS
	case isConnectionRefusedError(err):
		return CategoryRefused
	case isSSLError(err):
		return CategoryTLS
	case isServerError(err.Error()):
		return CategoryServer
	}
	return CategoryGeneric
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks if the error indicates a server-side problem (5xx errors).
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	for _, marker := range []string{" 500 ", " 502 ", " 503 ", " 504 ", "internal server error", "bad gateway", "service unavailable", "gateway timeout"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Explain returns a one-line title and troubleshooting hints for a category.
// host names the backend in the hints.
func Explain(c Category, host string) (string, []string) {
	switch c {
	case CategoryTimeout:
		return "The Parent Portal took too long to respond", []string{
			"Slow or unstable internet connection",
			"The portal is under heavy load, try again in a few moments",
		}
	case CategoryDNS:
		return "Cannot resolve " + host, []string{
			"Check that your internet connection is working",
			"Check for DNS-level blocking (school or corporate network, parental controls)",
		}
	case CategoryRefused:
		return "Connection to " + host + " was refused", []string{
			"The portal may be temporarily down",
			"Check the base_url in your portal config",
		}
	case CategoryTLS:
		return "Secure connection to " + host + " failed", []string{
			"Check your system date and time",
			"A network proxy may be interfering with HTTPS",
		}
	case CategoryServer:
		return "The Parent Portal reported an internal error", []string{
			"This is not a problem with your setup",
			"Please try again in a few minutes",
		}
	case CategorySessionExpired:
		return "Your session has ended", []string{
			"Run 'portal login' to sign in again",
		}
	}
	return "Cannot reach the Parent Portal at " + host, []string{
		"Check your internet connection",
		"Check firewall settings that might block HTTPS requests",
	}
}

// Print renders err for the terminal with pterm. action describes what was
// being attempted ("verifying your session").
func Print(err error, action, baseURL string) {
	if err == nil {
		return
	}
	title, hints := Explain(Classify(err), ExtractHostFromURL(baseURL))
	pterm.Error.Printf("%s while %s\n", title, action)
	for _, h := range hints {
		pterm.Println("  • " + h)
	}
	pterm.Debug.Println(truncate(logging.PresentError("Technical details", err), 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "the server"
	}
	return u.Host
}

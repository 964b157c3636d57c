// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package apiguard wraps outbound backend calls. It attaches the session token
// to calls that did not bring their own and, when the backend rejects that
// token, reports the rejection exactly once however many calls failed with it.
package apiguard

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"parentportal/cli/internal/logging"
)

// TokenSource yields the current session token.
type TokenSource interface {
	Token() (string, bool)
}

// RejectFunc is told that the backend rejected token. It reports whether that
// caused a logout transition. auth.Service.Expire has this shape.
type RejectFunc func(token string) bool

// Guard is shared by the HTTP transport and the gRPC interceptor.
type Guard struct {
	tokens   TokenSource
	onReject RejectFunc
	lang     string
	log      *pterm.Logger
	flight   singleflight.Group

	mu        sync.Mutex
	loggedOut string // last token whose rejection ended the session
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger used for rejection events.
func WithLogger(l *pterm.Logger) Option { return func(g *Guard) { g.log = l } }

// WithLanguage sets the Accept-Language sent with every call.
func WithLanguage(tag language.Tag) Option {
	return func(g *Guard) {
		if tag != language.Und {
			g.lang = tag.String()
		}
	}
}

// New returns a Guard reading tokens from tokens and reporting rejections to onReject.
func New(tokens TokenSource, onReject RejectFunc, opts ...Option) *Guard {
	if tokens == nil || onReject == nil {
		panic("apiguard: New needs a token source and a reject hook")
	}
	g := &Guard{tokens: tokens, onReject: onReject, log: logging.Discard()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// reject collapses concurrent rejections of the same token into one call to
// onReject. Once a rejection has ended the session, late reports for that
// token are dropped without calling onReject again.
func (g *Guard) reject(token, via string) {
	if g.alreadyLoggedOut(token) {
		return
	}
	v, _, shared := g.flight.Do(token, func() (any, error) {
		if g.alreadyLoggedOut(token) {
			return false, nil
		}
		fired := g.onReject(token)
		if fired {
			g.mu.Lock()
			g.loggedOut = token
			g.mu.Unlock()
		}
		return fired, nil
	})
	if fired, _ := v.(bool); fired && !shared {
		g.log.Warn("backend rejected session, logging out", g.log.Args(
			"via", via,
			"token", logging.Fingerprint(token),
		))
	}
}

func (g *Guard) alreadyLoggedOut(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedOut == token
}

// Transport returns an http.RoundTripper guarding next (http.DefaultTransport when nil).
func (g *Guard) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{g: g, next: next}
}

type transport struct {
	g    *Guard
	next http.RoundTripper
}

// RoundTrip only guards requests it attached the token to. Requests that carry
// their own Authorization header (verify, logout) are passed through untouched.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	if t.g.lang != "" && req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", t.g.lang)
	}

	var attached string
	if req.Header.Get("Authorization") == "" {
		if tok, ok := t.g.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
			attached = tok
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if attached != "" && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		t.g.reject(attached, "http")
	}
	return resp, nil
}

// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tokenstore owns the portal's session token.
//
// The token is written through to a durable kv.Store so the session survives a
// restart, and mirrored in memory so route guards can ask HasToken on every
// request without touching the OS keychain. When the durable store fails, the
// Store degrades to memory-only for the rest of the process: the session still
// works but will not survive a restart. Storage failures are logged, never
// returned.
package tokenstore

import (
	stderrors "errors"
	"sync"

	"github.com/pterm/pterm"

	"parentportal/cli/internal/kv"
	"parentportal/cli/internal/logging"
)

// Key is the kv key the token is stored under.
const Key = "auth_token"

// Store holds at most one session token.
type Store struct {
	mu       sync.Mutex
	durable  kv.Store
	mem      *kv.Memory
	loaded   bool
	degraded bool
	log      *pterm.Logger
}

// New returns a Store writing through to durable. A nil durable store means
// memory-only from the start.
func New(durable kv.Store, log *pterm.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		durable:  durable,
		mem:      kv.NewMemory(),
		degraded: durable == nil,
		log:      log,
	}
}

// HasToken reports whether a token is present.
func (s *Store) HasToken() bool {
	_, ok := s.Token()
	return ok
}

// Token returns the current token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	tok, err := s.mem.Get(Key)
	if err != nil || tok == "" {
		return "", false
	}
	return tok, true
}

// SetToken replaces the current token. An empty token clears the store.
func (s *Store) SetToken(token string) {
	if token == "" {
		s.ClearToken()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.mem.Set(Key, token)
	s.loaded = true
	if s.degraded {
		return
	}
	if err := s.durable.Set(Key, token); err != nil {
		s.degradeLocked("set", err)
	}
}

// ClearToken removes the token. Clearing an empty store is a no-op.
func (s *Store) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.mem.Remove(Key)
	s.loaded = true
	if s.degraded {
		return
	}
	if err := s.durable.Remove(Key); err != nil && !stderrors.Is(err, kv.ErrNotFound) {
		s.degradeLocked("remove", err)
	}
}

// Degraded reports whether the store fell back to memory-only operation.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// loadLocked pulls the persisted token into memory once per process.
func (s *Store) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.degraded {
		return
	}

	tok, err := s.durable.Get(Key)
	switch {
	case err == nil:
		if tok != "" {
			_ = s.mem.Set(Key, tok)
		}
	case stderrors.Is(err, kv.ErrNotFound):
	default:
		s.degradeLocked("get", err)
	}
}

func (s *Store) degradeLocked(op string, err error) {
	s.degraded = true
	s.log.Warn("token storage unavailable, session will not survive restart",
		s.log.Args("op", op, "error", logging.Mask(err.Error())))
}

// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth holds the portal's authentication state and the operations that
// move it between states.
//
// State is an explicitly constructed container; nothing in this package is a
// process-wide singleton. It owns the Token Store it was built with and every
// transition updates both in one critical section, so the token and the
// snapshot never disagree. Service drives the transitions against the backend.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/pterm/pterm"

	"parentportal/cli/internal/backend"
	"parentportal/cli/internal/logging"
)

// Status is the position of the session in the auth state machine.
type Status int

const (
	StatusUnknown Status = iota
	StatusVerifying
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusVerifying:
		return "verifying"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of the auth state.
type Snapshot struct {
	User            *backend.UserProfile
	Status          Status
	IsInitialized   bool
	IsLoading       bool
	IsAuthenticated bool
	// Generation increases whenever a transition invalidates in-flight calls.
	Generation uint64
}

// TokenStore is the token contract the state container depends on.
// *tokenstore.Store satisfies it.
type TokenStore interface {
	HasToken() bool
	Token() (string, bool)
	SetToken(token string)
	ClearToken()
}

var (
	// ErrClosed is returned once the state container has been closed.
	ErrClosed = errors.New("auth: state closed")
	// ErrSuperseded is returned when a call's result arrived after a newer
	// transition (logout, expiry, close) and was discarded.
	ErrSuperseded = errors.New("auth: result superseded")
	// ErrAlreadyAuthenticated is returned by Login while a session is active.
	ErrAlreadyAuthenticated = errors.New("auth: already logged in")
	// ErrBusy is returned by Login while verification or another login is running.
	ErrBusy = errors.New("auth: another auth operation is in progress")
)

// State is the auth state container.
type State struct {
	mu       sync.Mutex
	tokens   TokenStore
	log      *pterm.Logger
	snap     Snapshot
	closed   bool
	initDone chan struct{}
	done     chan struct{}
	subs     map[int]chan Snapshot
	nextSub  int
}

// NewState returns a container in StatusUnknown backed by tokens.
func NewState(tokens TokenStore, log *pterm.Logger) *State {
	if tokens == nil {
		panic("auth: NewState needs a token store")
	}
	if log == nil {
		log = logging.Discard()
	}
	return &State{
		tokens:   tokens,
		log:      log,
		initDone: make(chan struct{}),
		done:     make(chan struct{}),
		subs:     make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// HasToken reports whether the token store holds a token.
func (s *State) HasToken() bool { return s.tokens.HasToken() }

// Token returns the current session token.
func (s *State) Token() (string, bool) { return s.tokens.Token() }

// Subscribe returns a channel that receives the latest snapshot after every
// transition. Slow readers only see the most recent one. The channel is closed
// by cancel or Close.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// WaitInitialized blocks until the first verification attempt has resolved.
func (s *State) WaitInitialized(ctx context.Context) (Snapshot, error) {
	select {
	case <-s.initDone:
		return s.Snapshot(), nil
	case <-s.done:
		return s.Snapshot(), ErrClosed
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// Close detaches the container from its consumers. Results of calls still in
// flight are dropped when they arrive. Close is idempotent.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.snap.Generation++
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	close(s.done)
}

// publishLocked fans the snapshot out to subscribers. Must hold s.mu.
func (s *State) publishLocked() {
	s.snap.IsAuthenticated = s.snap.Status == StatusAuthenticated
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.snap
	}
}

func (s *State) markInitializedLocked() {
	if s.snap.IsInitialized {
		return
	}
	s.snap.IsInitialized = true
	close(s.initDone)
}

func (s *State) ignored(transition string) {
	s.log.Debug("auth transition ignored", s.log.Args(
		"transition", transition,
		"status", s.snap.Status.String(),
		"closed", s.closed,
	))
}

// beginBoot starts the boot cycle. It returns the generation and token to
// verify, or ok=false when no network call is needed.
func (s *State) beginBoot() (gen uint64, token string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.snap.Status != StatusUnknown {
		return 0, "", false
	}
	tok, has := s.tokens.Token()
	if !has {
		s.snap.Status = StatusUnauthenticated
		s.markInitializedLocked()
		s.publishLocked()
		return 0, "", false
	}
	s.snap.Status = StatusVerifying
	s.snap.IsLoading = true
	s.snap.Generation++
	s.publishLocked()
	return s.snap.Generation, tok, true
}

// finishVerify applies a boot verification result. Any failure clears the token.
func (s *State) finishVerify(gen uint64, user *backend.UserProfile, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.snap.Generation || s.snap.Status != StatusVerifying {
		s.ignored("verify result")
		return false
	}
	s.snap.IsLoading = false
	if err == nil && user != nil {
		u := *user
		s.snap.User = &u
		s.snap.Status = StatusAuthenticated
	} else {
		s.tokens.ClearToken()
		s.snap.User = nil
		s.snap.Status = StatusUnauthenticated
	}
	s.markInitializedLocked()
	s.publishLocked()
	return true
}

func (s *State) beginLogin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return 0, ErrClosed
	case s.snap.Status == StatusAuthenticated:
		return 0, ErrAlreadyAuthenticated
	case s.snap.Status == StatusVerifying, s.snap.IsLoading:
		return 0, ErrBusy
	}
	s.snap.IsLoading = true
	s.publishLocked()
	return s.snap.Generation, nil
}

// finishLogin applies a login result. Failure changes nothing but the loading flag.
func (s *State) finishLogin(gen uint64, sess *backend.Session, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.snap.Generation {
		s.ignored("login result")
		return false
	}
	s.snap.IsLoading = false
	if err == nil {
		u := sess.User
		s.tokens.SetToken(sess.Token)
		s.snap.User = &u
		s.snap.Status = StatusAuthenticated
		s.markInitializedLocked()
	}
	s.publishLocked()
	return true
}

// logout clears the session and returns the token that was active, if any.
// Calling it on an already logged-out state changes nothing.
func (s *State) logout() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", false
	}
	tok, had := s.tokens.Token()
	if !had && s.snap.Status == StatusUnauthenticated && !s.snap.IsLoading {
		return "", false
	}
	s.clearLocked()
	return tok, had
}

// expire is the transition for a server-side rejection of token. It only acts
// on an authenticated session that still holds that token.
func (s *State) expire(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.snap.Status != StatusAuthenticated {
		s.ignored("expire")
		return false
	}
	if cur, ok := s.tokens.Token(); !ok || cur != token {
		s.ignored("expire")
		return false
	}
	s.clearLocked()
	return true
}

func (s *State) clearLocked() {
	s.tokens.ClearToken()
	s.snap.Generation++
	s.snap.User = nil
	s.snap.Status = StatusUnauthenticated
	s.snap.IsLoading = false
	s.markInitializedLocked()
	s.publishLocked()
}

// refreshUser replaces the profile of an authenticated session holding token.
func (s *State) refreshUser(token string, user backend.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.snap.Status != StatusAuthenticated {
		return
	}
	if cur, ok := s.tokens.Token(); !ok || cur != token {
		return
	}
	s.snap.User = &user
	s.publishLocked()
}

// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"

	"github.com/pterm/pterm"

	"parentportal/cli/internal/backend"
	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/logging"
)

// Service centralizes authentication operations against the backend and the
// state container.
type Service struct {
	state *State
	be    backend.API
	log   *pterm.Logger
}

// NewService binds a state container to a backend.
func NewService(state *State, be backend.API, log *pterm.Logger) *Service {
	if state == nil || be == nil {
		panic("auth: NewService needs a state and a backend")
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{state: state, be: be, log: log}
}

// State returns the container the service drives.
func (s *Service) State() *State { return s.state }

// Login exchanges credentials for a session. Invalid input is rejected before
// any network call. A failed login leaves the state unchanged.
func (s *Service) Login(ctx context.Context, creds backend.Credentials) (*backend.UserProfile, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	gen, err := s.state.beginLogin()
	if err != nil {
		return nil, err
	}

	sess, err := s.be.Login(ctx, creds)
	if err == nil && sess.Token == "" {
		err = errors.New("login: backend returned no token")
	}
	if err == nil {
		sess.User = withClaims(sess.User, sess.Token)
	}

	if !s.state.finishLogin(gen, sess, err) {
		if err != nil {
			return nil, err
		}
		return nil, ErrSuperseded
	}
	if err != nil {
		s.log.Info("login failed", s.log.Args("kind", string(perrors.KindOf(err))))
		return nil, err
	}
	s.log.Info("logged in", s.log.Args("user", sess.User.ID, "token", logging.Fingerprint(sess.Token)))
	u := sess.User
	return &u, nil
}

// Logout ends the session. Local state is cleared first so the user is logged
// out even when the backend is unreachable; the remote call is best-effort.
// Calling Logout on a logged-out state does nothing.
func (s *Service) Logout(ctx context.Context) {
	tok, had := s.state.logout()
	if !had {
		return
	}
	s.log.Info("logged out", s.log.Args("token", logging.Fingerprint(tok)))
	if err := s.be.Logout(ctx, tok); err != nil {
		s.log.Debug("remote logout failed", s.log.Args("error", logging.Mask(err.Error())))
	}
}

// Expire is called by the API client guard when the backend rejected token.
// It reports whether a transition happened; a stale or repeated report is a no-op.
func (s *Service) Expire(token string) bool {
	if !s.state.expire(token) {
		return false
	}
	s.log.Info("session rejected by backend, logged out", s.log.Args("token", logging.Fingerprint(token)))
	return true
}

// Verify checks the stored token with the backend. An explicit rejection ends
// the session; a network failure leaves it untouched.
func (s *Service) Verify(ctx context.Context) (*backend.UserProfile, error) {
	tok, ok := s.state.Token()
	if !ok {
		return nil, perrors.New(perrors.AuthRejected, "no stored session")
	}
	user, err := s.be.Verify(ctx, tok)
	if err != nil {
		if perrors.Is(err, perrors.AuthRejected) {
			s.Expire(tok)
		}
		return nil, err
	}
	u := withClaims(*user, tok)
	s.state.refreshUser(tok, u)
	return &u, nil
}

// Register creates an account. It never changes auth state.
func (s *Service) Register(ctx context.Context, reg backend.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	return s.be.Register(ctx, reg)
}

// ForgotPassword requests a reset link. It never changes auth state.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if err := backend.ValidateEmail(email); err != nil {
		return err
	}
	return s.be.ForgotPassword(ctx, email)
}

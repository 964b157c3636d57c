// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"

	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/logging"
)

// Bootstrap resolves the initial auth state and returns the resulting snapshot.
//
// Without a stored token it goes straight to StatusUnauthenticated and makes no
// network call. With one it verifies it; any failure, network errors included,
// clears the token. Verification is attempted once per boot with no retry.
// Calling Bootstrap again once the state is initialized, or while a
// verification is running, is a no-op.
//
// If ctx is canceled or the state is closed before the backend answers, the
// answer is dropped and the state is left as it was. A ctx deadline is a
// failed verification like any other network error.
func (s *Service) Bootstrap(ctx context.Context) Snapshot {
	gen, tok, ok := s.state.beginBoot()
	if !ok {
		return s.state.Snapshot()
	}
	s.log.Debug("verifying stored session", s.log.Args("token", logging.Fingerprint(tok)))

	user, err := s.be.Verify(ctx, tok)
	if errors.Is(ctx.Err(), context.Canceled) {
		s.log.Debug("session verification abandoned", s.log.Args("reason", ctx.Err().Error()))
		return s.state.Snapshot()
	}
	if err != nil && perrors.KindOf(err) == "" && errors.Is(err, context.DeadlineExceeded) {
		err = perrors.Wrap(perrors.NetworkError, "verify", err)
	}
	if err == nil {
		u := withClaims(*user, tok)
		user = &u
	} else {
		s.log.Info("stored session is no longer usable", s.log.Args(
			"kind", string(perrors.KindOf(err)),
			"error", logging.Mask(err.Error()),
		))
	}
	s.state.finishVerify(gen, user, err)
	return s.state.Snapshot()
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parentportal/cli/internal/backend"
	perrors "parentportal/cli/internal/errors"
)

func TestBootstrapWithoutTokenMakesNoNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newService(api, "")

	snap := svc.Bootstrap(context.Background())

	require.Equal(t, StatusUnauthenticated, snap.Status)
	require.True(t, snap.IsInitialized)
	require.False(t, snap.IsAuthenticated)
	require.False(t, snap.IsLoading)
	require.Nil(t, snap.User)
	verify, login, logout := api.calls()
	require.Zero(t, verify+login+logout)
}

func TestBootstrapVerifiesStoredToken(t *testing.T) {
	api := &fakeAPI{verifyUser: &backend.UserProfile{ID: "u1"}}
	svc, ts := newService(api, "abc")

	snap := svc.Bootstrap(context.Background())

	require.Equal(t, StatusAuthenticated, snap.Status)
	require.True(t, snap.IsAuthenticated)
	require.True(t, snap.IsInitialized)
	require.Equal(t, &backend.UserProfile{ID: "u1"}, snap.User)
	tok, ok := ts.Token()
	require.True(t, ok)
	require.Equal(t, "abc", tok)
}

func TestBootstrapFailureClearsToken(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "rejected", err: perrors.New(perrors.AuthRejected, "verify: expired")},
		{name: "network", err: perrors.Wrap(perrors.NetworkError, "verify", context.DeadlineExceeded)},
		{name: "unclassified", err: &backend.StatusError{Op: "verify", Code: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{verifyErr: tt.err}
			svc, ts := newService(api, "abc")

			snap := svc.Bootstrap(context.Background())

			require.Equal(t, StatusUnauthenticated, snap.Status)
			require.True(t, snap.IsInitialized)
			require.False(t, snap.IsAuthenticated)
			require.False(t, ts.HasToken())
			verify, _, _ := api.calls()
			require.Equal(t, 1, verify, "no retry on failure")
		})
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	api := &fakeAPI{verifyUser: &backend.UserProfile{ID: "u1"}}
	svc, _ := newService(api, "abc")

	first := svc.Bootstrap(context.Background())
	second := svc.Bootstrap(context.Background())

	require.Equal(t, first, second)
	verify, _, _ := api.calls()
	require.Equal(t, 1, verify)
}

func TestBootstrapFillsIDFromTokenSubject(t *testing.T) {
	tok := signedToken(t, "u42", time.Now().Add(time.Hour))
	api := &fakeAPI{verifyUser: &backend.UserProfile{Email: "p@school.test"}}
	svc, _ := newService(api, tok)

	snap := svc.Bootstrap(context.Background())

	require.True(t, snap.IsAuthenticated)
	require.Equal(t, "u42", snap.User.ID)
	require.Equal(t, "p@school.test", snap.User.Email)
}

func TestVerifyingIsObservableUntilResult(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		verifyUser: &backend.UserProfile{ID: "u1"},
		verifyGate: gate,
		verifyIn:   make(chan struct{}, 1),
	}
	svc, _ := newService(api, "abc")

	done := make(chan Snapshot)
	go func() { done <- svc.Bootstrap(context.Background()) }()
	<-api.verifyIn

	snap := svc.State().Snapshot()
	require.Equal(t, StatusVerifying, snap.Status)
	require.True(t, snap.IsLoading)
	require.False(t, snap.IsInitialized)

	// A second bootstrap while verifying does not start another call.
	require.Equal(t, StatusVerifying, svc.Bootstrap(context.Background()).Status)

	close(gate)
	require.Equal(t, StatusAuthenticated, (<-done).Status)
	verify, _, _ := api.calls()
	require.Equal(t, 1, verify)
}

func TestStaleVerifyResultIsDroppedAfterLogout(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		verifyUser: &backend.UserProfile{ID: "u1"},
		verifyGate: gate,
		verifyIn:   make(chan struct{}, 1),
	}
	svc, ts := newService(api, "abc")

	done := make(chan Snapshot)
	go func() { done <- svc.Bootstrap(context.Background()) }()
	<-api.verifyIn

	svc.Logout(context.Background())
	close(gate)
	snap := <-done

	require.Equal(t, StatusUnauthenticated, snap.Status)
	require.True(t, snap.IsInitialized)
	require.Nil(t, snap.User)
	require.False(t, ts.HasToken())
}

func TestVerifyResultIsDroppedAfterClose(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		verifyUser: &backend.UserProfile{ID: "u1"},
		verifyGate: gate,
		verifyIn:   make(chan struct{}, 1),
	}
	svc, ts := newService(api, "abc")

	done := make(chan Snapshot)
	go func() { done <- svc.Bootstrap(context.Background()) }()
	<-api.verifyIn

	svc.State().Close()
	close(gate)
	snap := <-done

	require.Equal(t, StatusVerifying, snap.Status)
	require.False(t, snap.IsInitialized)
	require.True(t, ts.HasToken(), "dropped result must not touch the token")
}

func TestCanceledBootstrapDropsResult(t *testing.T) {
	api := &fakeAPI{
		verifyUser: &backend.UserProfile{ID: "u1"},
		verifyGate: make(chan struct{}),
		verifyIn:   make(chan struct{}, 1),
	}
	svc, ts := newService(api, "abc")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Snapshot)
	go func() { done <- svc.Bootstrap(ctx) }()
	<-api.verifyIn
	cancel()
	snap := <-done

	require.Equal(t, StatusVerifying, snap.Status)
	require.True(t, ts.HasToken())
}

func TestBootstrapTimeoutClearsToken(t *testing.T) {
	api := &fakeAPI{
		verifyUser: &backend.UserProfile{ID: "u1"},
		verifyGate: make(chan struct{}),
	}
	svc, ts := newService(api, "abc")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap := svc.Bootstrap(ctx)

	require.Equal(t, StatusUnauthenticated, snap.Status)
	require.True(t, snap.IsInitialized)
	require.False(t, snap.IsLoading)
	require.False(t, ts.HasToken())

	// The session is settled, so login is available again.
	api.loginSess = &backend.Session{Token: "t2", User: backend.UserProfile{ID: "u2"}}
	u, err := svc.Login(context.Background(), validCreds)
	require.NoError(t, err)
	require.Equal(t, "u2", u.ID)
}

func TestLoginWhileVerifyingIsBusy(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		verifyUser: &backend.UserProfile{ID: "u1"},
		verifyGate: gate,
		verifyIn:   make(chan struct{}, 1),
		loginSess:  &backend.Session{Token: "t2", User: backend.UserProfile{ID: "u2"}},
	}
	svc, _ := newService(api, "abc")

	done := make(chan Snapshot)
	go func() { done <- svc.Bootstrap(context.Background()) }()
	<-api.verifyIn

	_, err := svc.Login(context.Background(), backend.Credentials{Email: "parent@school.test", Password: "hunter22"})
	require.ErrorIs(t, err, ErrBusy)
	_, login, _ := api.calls()
	require.Equal(t, 0, login)

	close(gate)
	require.Equal(t, "u1", (<-done).User.ID)
}

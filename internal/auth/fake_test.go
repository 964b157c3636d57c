package auth

import (
	"context"
	"sync"

	"parentportal/cli/internal/backend"
	"parentportal/cli/internal/kv"
	"parentportal/cli/internal/logging"
	"parentportal/cli/internal/tokenstore"
)

// fakeAPI is a backend.API that records calls. verifyGate, when set, blocks
// Verify until it is closed or receives a value.
type fakeAPI struct {
	mu sync.Mutex

	verifyCalls int
	loginCalls  int
	logoutCalls int
	logoutToks  []string

	verifyUser *backend.UserProfile
	verifyErr  error
	verifyGate chan struct{}
	verifyIn   chan struct{}

	loginSess *backend.Session
	loginErr  error
	logoutErr error

	registerErr error
	forgotErr   error
}

func (f *fakeAPI) Login(_ context.Context, _ backend.Credentials) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	s := *f.loginSess
	return &s, nil
}

func (f *fakeAPI) Verify(ctx context.Context, _ string) (*backend.UserProfile, error) {
	f.mu.Lock()
	f.verifyCalls++
	gate, in := f.verifyGate, f.verifyIn
	user, err := f.verifyUser, f.verifyErr
	f.mu.Unlock()

	if in != nil {
		in <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	u := *user
	return &u, nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	f.logoutToks = append(f.logoutToks, token)
	return f.logoutErr
}

func (f *fakeAPI) Register(context.Context, backend.Registration) error { return f.registerErr }
func (f *fakeAPI) ForgotPassword(context.Context, string) error         { return f.forgotErr }

func (f *fakeAPI) List(context.Context, string) ([]map[string]any, error) { return nil, nil }
func (f *fakeAPI) GetVersion(context.Context) (string, error)            { return "test", nil }

func (f *fakeAPI) calls() (verify, login, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls, f.loginCalls, f.logoutCalls
}

func newTokens(token string) *tokenstore.Store {
	ts := tokenstore.New(kv.NewMemory(), logging.Discard())
	if token != "" {
		ts.SetToken(token)
	}
	return ts
}

func newService(api *fakeAPI, token string) (*Service, *tokenstore.Store) {
	ts := newTokens(token)
	return NewService(NewState(ts, nil), api, nil), ts
}

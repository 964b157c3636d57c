package apiguard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"parentportal/cli/internal/auth"
	"parentportal/cli/internal/backend"
	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/kv"
	"parentportal/cli/internal/logging"
	"parentportal/cli/internal/manifest"
	"parentportal/cli/internal/tokenstore"
)

type staticTokens string

func (s staticTokens) Token() (string, bool) { return string(s), s != "" }

func TestTransportAttachesHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	g := New(staticTokens("abc"), func(string) bool { return false }, WithLanguage(language.French))
	client := &http.Client{Transport: g.Transport(nil)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "Bearer abc", got.Get("Authorization"))
	require.Equal(t, "fr", got.Get("Accept-Language"))
	require.Len(t, got.Get("X-Request-ID"), 36)
}

func TestExplicitTokenIsNotGuarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var calls atomic.Int32
	g := New(staticTokens("abc"), func(string) bool { calls.Add(1); return true })
	client := &http.Client{Transport: g.Transport(nil)}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("Authorization", "Bearer explicit")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, calls.Load())
}

func TestAnonymousRequestIsNotGuarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var calls atomic.Int32
	g := New(staticTokens(""), func(string) bool { calls.Add(1); return true })
	resp, err := (&http.Client{Transport: g.Transport(nil)}).Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Zero(t, calls.Load())
}

// Two concurrent calls rejected with the same token produce one logout.
func TestLateRejectionOfLoggedOutTokenIsDropped(t *testing.T) {
	var calls atomic.Int32
	fire := true
	g := New(staticTokens("abc"), func(string) bool { calls.Add(1); return fire })

	g.reject("abc", "http")
	g.reject("abc", "http")
	require.Equal(t, int32(1), calls.Load())

	// A new session's token is guarded again.
	g.reject("def", "http")
	require.Equal(t, int32(2), calls.Load())

	// A rejection that did not end the session is not remembered.
	fire = false
	g.reject("ghi", "http")
	g.reject("ghi", "http")
	require.Equal(t, int32(4), calls.Load())
}

func TestConcurrentRejectionsLogOutOnce(t *testing.T) {
	const inflight = 2
	var arrived sync.WaitGroup
	arrived.Add(inflight)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived.Done()
		arrived.Wait()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := tokenstore.New(kv.NewMemory(), logging.Discard())
	ts.SetToken("abc")
	state := auth.NewState(ts, nil)

	var svc *auth.Service
	var transitions, hooks atomic.Int32
	g := New(state, func(tok string) bool {
		hooks.Add(1)
		fired := svc.Expire(tok)
		if fired {
			transitions.Add(1)
		}
		return fired
	})

	api := backend.NewHTTP(srv.URL, manifest.DefaultHTTPEndpoints(), &http.Client{Transport: g.Transport(nil)})
	verifier := &okVerify{API: api}
	svc = auth.NewService(state, verifier, nil)
	require.True(t, svc.Bootstrap(context.Background()).IsAuthenticated)

	updates, cancel := state.Subscribe()
	defer cancel()

	errs := make(chan error, inflight)
	for i := 0; i < inflight; i++ {
		go func() {
			_, err := api.List(context.Background(), "contracts")
			errs <- err
		}()
	}
	for i := 0; i < inflight; i++ {
		require.True(t, perrors.Is(<-errs, perrors.AuthRejected))
	}

	require.Equal(t, int32(1), transitions.Load())
	require.GreaterOrEqual(t, hooks.Load(), int32(1))
	require.False(t, ts.HasToken())

	snap := <-updates
	require.Equal(t, auth.StatusUnauthenticated, snap.Status)
	require.Equal(t, auth.StatusUnauthenticated, state.Snapshot().Status)
}

// okVerify accepts any token so the test can start from an authenticated session.
type okVerify struct{ backend.API }

func (okVerify) Verify(context.Context, string) (*backend.UserProfile, error) {
	return &backend.UserProfile{ID: "u1"}, nil
}

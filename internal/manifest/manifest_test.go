package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEndpointsFetchesAndCaches(t *testing.T) {
	cache := NewCache()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != Path {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":1,"http":{"verify":"/api/v3/me"}}`))
	}))
	defer srv.Close()

	for i := 0; i < 2; i++ {
		eps, err := GetEndpoints(context.Background(), cache, srv.Client(), srv.URL, HTTPEndpoints{Logout: "/custom/logout"})
		require.NoError(t, err)
		require.Equal(t, "/api/v3/me", eps.Verify)
		require.Equal(t, "/custom/logout", eps.Logout)
		require.Equal(t, "/api/auth/login", eps.Login)
	}
	require.EqualValues(t, 1, hits.Load())

	// Without a cache every call fetches.
	_, err := GetEndpoints(context.Background(), nil, srv.Client(), srv.URL, HTTPEndpoints{})
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())

	cache.Clear()
	require.Nil(t, cache.Get(srv.URL))
}

func TestGetEndpointsFallsBackOnError(t *testing.T) {
	cache := NewCache()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	eps, err := GetEndpoints(context.Background(), cache, srv.Client(), srv.URL, HTTPEndpoints{})
	require.Error(t, err)
	require.Equal(t, DefaultHTTPEndpoints(), eps)
	require.Nil(t, cache.Get(srv.URL), "failures are not cached")
}

func TestManifestWithoutVersionIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"http":{}}`))
	}))
	defer srv.Close()

	_, err := fetchFromServer(context.Background(), srv.Client(), srv.URL)
	require.ErrorContains(t, err, "missing version")
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"parentportal/cli/internal/auth"
	"parentportal/cli/internal/config"
	"parentportal/cli/internal/kv"
	"parentportal/cli/internal/manifest"
	"parentportal/cli/internal/tokenstore"
)

func remote(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case manifest.Path:
			_ = json.NewEncoder(w).Encode(map[string]any{"version": 2, "http": map[string]string{"verify": "/v2/me"}})
		case "/v2/me":
			if r.Header.Get("Authorization") != "Bearer abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "u1"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func memoryConfig(baseURL string) config.Config {
	c := config.Default()
	c.BaseURL = baseURL
	c.Storage.Backend = config.StorageMemory
	return c
}

func TestNewWiresBootstrapThroughManifest(t *testing.T) {
	srv := remote(t)
	cfg := memoryConfig(srv.URL)
	cfg.RemoteManifest = true

	store := kv.NewMemory()
	require.NoError(t, store.Set(tokenstore.Key, "abc"))

	a, err := New(context.Background(), Options{Config: cfg, Store: store, LogWriter: &bytes.Buffer{}})
	require.NoError(t, err)
	defer a.Close()

	snap := a.Auth.Bootstrap(context.Background())
	require.Equal(t, auth.StatusAuthenticated, snap.Status)
	require.Equal(t, "u1", snap.User.ID)
	require.NotNil(t, a.Manifests.Get(srv.URL))
}

func TestSharedManifestCacheSkipsFetch(t *testing.T) {
	srv := remote(t)
	cfg := memoryConfig(srv.URL)
	cfg.RemoteManifest = true

	// A cached manifest pointing verify elsewhere wins over the server's copy.
	cache := manifest.NewCache()
	cache.Set(srv.URL, &manifest.Manifest{Version: 1, HTTP: manifest.HTTPEndpoints{Verify: "/gone"}})

	store := kv.NewMemory()
	require.NoError(t, store.Set(tokenstore.Key, "abc"))

	a, err := New(context.Background(), Options{Config: cfg, Store: store, LogWriter: &bytes.Buffer{}, Manifests: cache})
	require.NoError(t, err)
	defer a.Close()

	snap := a.Auth.Bootstrap(context.Background())
	require.Equal(t, auth.StatusUnauthenticated, snap.Status)
}

func TestFileStorageFallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	cfg := memoryConfig("https://portal.school.test")
	cfg.Storage = config.StorageConfig{Backend: config.StorageFile, Path: filepath.Join(blocker, "tokens.db")}

	var logs bytes.Buffer
	a, err := New(context.Background(), Options{Config: cfg, LogWriter: &logs, JSONLogs: true})
	require.NoError(t, err)
	defer a.Close()

	require.Contains(t, logs.String(), "memory only")
	a.Tokens.SetToken("t")
	require.True(t, a.Tokens.HasToken())
}

func TestFileStoragePersistsAcrossApps(t *testing.T) {
	cfg := memoryConfig("https://portal.school.test")
	cfg.Storage = config.StorageConfig{Backend: config.StorageFile, Path: filepath.Join(t.TempDir(), "tokens.db")}

	a, err := New(context.Background(), Options{Config: cfg, LogWriter: &bytes.Buffer{}})
	require.NoError(t, err)
	a.Tokens.SetToken("persisted")
	require.NoError(t, a.Close())

	b, err := New(context.Background(), Options{Config: cfg, LogWriter: &bytes.Buffer{}})
	require.NoError(t, err)
	defer b.Close()
	tok, ok := b.Tokens.Token()
	require.True(t, ok)
	require.Equal(t, "persisted", tok)
}

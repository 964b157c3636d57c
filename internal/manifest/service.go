package manifest

import (
	"context"
	"net/http"
)

// GetEndpoints returns the endpoints published by the backend at baseURL,
// served from cache when it already holds them. Paths missing from the
// manifest are filled from fallback, then from the built-in defaults.
func GetEndpoints(ctx context.Context, cache *Cache, client *http.Client, baseURL string, fallback HTTPEndpoints) (HTTPEndpoints, error) {
	if cached := cache.Get(baseURL); cached != nil {
		return merge(cached.HTTP, fallback), nil
	}

	m, err := fetchFromServer(ctx, client, baseURL)
	if err != nil {
		return fallback.WithDefaults(), err
	}

	cache.Set(baseURL, m)
	return merge(m.HTTP, fallback), nil
}

func merge(remote, fallback HTTPEndpoints) HTTPEndpoints {
	fallback = fallback.WithDefaults()
	if remote.Login == "" {
		remote.Login = fallback.Login
	}
	if remote.Verify == "" {
		remote.Verify = fallback.Verify
	}
	if remote.Logout == "" {
		remote.Logout = fallback.Logout
	}
	if remote.Register == "" {
		remote.Register = fallback.Register
	}
	if remote.ForgotPassword == "" {
		remote.ForgotPassword = fallback.ForgotPassword
	}
	if remote.Version == "" {
		remote.Version = fallback.Version
	}
	if remote.Data == "" {
		remote.Data = fallback.Data
	}
	return remote
}

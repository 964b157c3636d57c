package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/manifest"
)

// HTTP implements API over the portal's REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://portal.example.org")
	baseURL string
	// endpoints contains the URL paths for the API endpoints
	endpoints manifest.HTTPEndpoints
	// client is the underlying HTTP client; its transport is usually the API client guard
	client *http.Client
}

var _ API = (*HTTP)(nil)

// NewHTTP creates an HTTP API client. A nil client gets a plain client with
// a 10-second timeout.
func NewHTTP(baseURL string, endpoints manifest.HTTPEndpoints, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints.WithDefaults(),
		client:    client,
	}
}

func (h *HTTP) setStandardHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "parentportal-cli/1.0")
}

// newRequest builds a request against path with an optional JSON body and
// an optional explicit bearer token.
func (h *HTTP) newRequest(ctx context.Context, method, path string, body any, token string) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	h.setStandardHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends req and returns the response body for 2xx statuses. Everything
// else is classified into the error taxonomy.
func (h *HTTP) do(op string, req *http.Request) (*http.Response, []byte, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, nil, perrors.Wrap(perrors.NetworkError, op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, nil, perrors.Wrap(perrors.NetworkError, op, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, b, nil
	}
	return resp, b, statusError(op, resp.StatusCode, b)
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(op string, status int, body []byte) error {
	msg := serverMessage(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return perrors.New(perrors.AuthRejected, fmt.Sprintf("%s: %s", op, msg))
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return perrors.Invalid(fmt.Sprintf("%s: %s", op, msg), serverFields(body))
	}
	return &StatusError{Op: op, Code: status, Body: strings.TrimSpace(string(body))}
}

// StatusError is a non-2xx response that does not fit the error taxonomy,
// typically a 404 or a 5xx.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.Code, e.Body)
}

// serverMessage extracts a human message from common error envelopes.
func serverMessage(body []byte) string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, k := range []string{"message", "error", "detail"} {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// serverFields extracts per-field messages from {"errors": {"field": "msg" | ["msg"]}}.
func serverFields(body []byte) map[string]string {
	var raw struct {
		Errors map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || len(raw.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw.Errors))
	for k, v := range raw.Errors {
		switch vv := v.(type) {
		case string:
			out[k] = vv
		case []any:
			if len(vv) > 0 {
				out[k] = fmt.Sprint(vv[0])
			}
		}
	}
	return out
}

// GetVersion calls GET /api/version and returns the version string when available.
// No authentication required.
func (h *HTTP) GetVersion(ctx context.Context) (string, error) {
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoints.Version, nil, "")
	if err != nil {
		return "", err
	}
	_, body, err := h.do("version", req)
	if err != nil {
		if perrors.Is(err, perrors.NetworkError) {
			return "", err
		}
		return "unknown", nil
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

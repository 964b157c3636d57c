package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	perrors "parentportal/cli/internal/errors"
)

// Login posts credentials to the login endpoint.
// The token may come back in the body ({"token": ...}, {"access_token": ...},
// {"data": {"token": ...}}) or in an Authorization/X-Auth-Token header.
func (h *HTTP) Login(ctx context.Context, creds Credentials) (*Session, error) {
	req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.Login, creds, "")
	if err != nil {
		return nil, err
	}
	resp, body, err := h.do("login", req)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("login: unreadable response: %w", err)
		}
	}

	token := findBearerTokenInHeaders(resp.Header)
	if token == "" {
		token = extractToken(raw)
	}
	if token == "" {
		return nil, perrors.New(perrors.AuthRejected, "login: no token in response")
	}
	return &Session{Token: token, User: decodeProfile(raw)}, nil
}

// Verify calls GET on the verify endpoint with the given token and returns
// the profile it describes.
func (h *HTTP) Verify(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, perrors.New(perrors.AuthRejected, "verify: no token")
	}
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoints.Verify, nil, token)
	if err != nil {
		return nil, err
	}
	_, body, err := h.do("verify", req)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("verify: unreadable response: %w", err)
	}
	p := decodeProfile(raw)
	return &p, nil
}

// Logout invalidates token on the backend. A 401 means the token was already
// dead, which is what the caller wanted.
func (h *HTTP) Logout(ctx context.Context, token string) error {
	req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.Logout, nil, token)
	if err != nil {
		return err
	}
	_, _, err = h.do("logout", req)
	if perrors.Is(err, perrors.AuthRejected) {
		return nil
	}
	return err
}

// Register posts the sign-up form.
func (h *HTTP) Register(ctx context.Context, reg Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.Register, reg, "")
	if err != nil {
		return err
	}
	_, _, err = h.do("register", req)
	return err
}

// ForgotPassword asks the backend to email a reset link. Unknown addresses
// are reported as success by the backend, so a 404 is too.
func (h *HTTP) ForgotPassword(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	req, err := h.newRequest(ctx, http.MethodPost, h.endpoints.ForgotPassword, map[string]string{"email": email}, "")
	if err != nil {
		return err
	}
	_, _, err = h.do("forgot-password", req)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil
	}
	return err
}

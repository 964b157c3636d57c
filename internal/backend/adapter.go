// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the client for the remote Parent Portal API.
// It defines the API contract the auth core depends on and two transports for
// it: JSON over HTTP and unary gRPC calls carrying structpb messages.
//
// Every failure is classified into the internal/errors taxonomy:
// NetworkError when no response arrived, AuthRejected when the server denied
// the credential, ValidationError when it rejected the input.
package backend

import (
	"context"
	"net/mail"
	"strings"

	perrors "parentportal/cli/internal/errors"
)

// API defines backend operations the portal depends on.
// Implementations may call real HTTP/gRPC endpoints or provide fakes for tests.
type API interface {
	// Login exchanges credentials for a session token and the user's profile.
	Login(ctx context.Context, creds Credentials) (*Session, error)
	// Verify validates token with the backend and returns the associated profile.
	Verify(ctx context.Context, token string) (*UserProfile, error)
	// Logout invalidates token on the backend.
	Logout(ctx context.Context, token string) error
	// Register creates a new parent account. It does not log in.
	Register(ctx context.Context, reg Registration) error
	// ForgotPassword asks the backend to send a reset link to email.
	ForgotPassword(ctx context.Context, email string) error
	// List returns the items of a portal resource such as "contracts".
	// The session token is attached by the API client guard, not by callers.
	List(ctx context.Context, resource string) ([]map[string]any, error)
	// GetVersion returns the backend version string. No authentication required.
	GetVersion(ctx context.Context) (string, error)
}

// UserProfile is the minimal identity snapshot returned by login and verify.
type UserProfile struct {
	ID    string   `json:"id"`
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// DisplayName returns the best human-readable identifier for the user.
func (u UserProfile) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// Session is the result of a successful login.
type Session struct {
	Token string
	User  UserProfile
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the form before anything is sent to the backend.
func (c Credentials) Validate() error {
	fields := map[string]string{}
	validateEmail(fields, c.Email)
	if c.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return perrors.Invalid("invalid login form", fields)
	}
	return nil
}

// Registration are the sign-up form fields.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MinPasswordLength is enforced client-side on registration only; login
// accepts whatever the backend accepts.
const MinPasswordLength = 8

// Validate checks the form before anything is sent to the backend.
func (r Registration) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		fields["name"] = "required"
	}
	validateEmail(fields, r.Email)
	if len(r.Password) < MinPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return perrors.Invalid("invalid registration form", fields)
	}
	return nil
}

// ValidateEmail checks a single email field, as used by the forgot-password form.
func ValidateEmail(email string) error {
	fields := map[string]string{}
	validateEmail(fields, email)
	if len(fields) > 0 {
		return perrors.Invalid("invalid email", fields)
	}
	return nil
}

func validateEmail(fields map[string]string, email string) {
	if strings.TrimSpace(email) == "" {
		fields["email"] = "required"
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "not a valid email address"
	}
}

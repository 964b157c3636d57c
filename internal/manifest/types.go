// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest handles backend endpoint configuration.
// Paths have built-in defaults, can be overridden in config, and can optionally
// be fetched from the backend's portal-endpoints.json.
package manifest

// Manifest represents the endpoint configuration published by the backend.
type Manifest struct {
	Version int           `json:"version"`
	HTTP    HTTPEndpoints `json:"http"`
}

// HTTPEndpoints contains REST API endpoint paths.
type HTTPEndpoints struct {
	Login          string `json:"login"`           // e.g., "/api/auth/login"
	Verify         string `json:"verify"`          // e.g., "/api/auth/me"
	Logout         string `json:"logout"`          // e.g., "/api/auth/logout"
	Register       string `json:"register"`        // e.g., "/api/auth/register"
	ForgotPassword string `json:"forgot_password"` // e.g., "/api/auth/forgot-password"
	Version        string `json:"version"`         // e.g., "/api/version"
	Data           string `json:"data"`            // prefix for resource lists, e.g., "/api"
}

// DefaultHTTPEndpoints returns the paths used by the stock Parent Portal API.
func DefaultHTTPEndpoints() HTTPEndpoints {
	return HTTPEndpoints{
		Login:          "/api/auth/login",
		Verify:         "/api/auth/me",
		Logout:         "/api/auth/logout",
		Register:       "/api/auth/register",
		ForgotPassword: "/api/auth/forgot-password",
		Version:        "/api/version",
		Data:           "/api",
	}
}

// WithDefaults fills every empty path from DefaultHTTPEndpoints.
func (e HTTPEndpoints) WithDefaults() HTTPEndpoints {
	d := DefaultHTTPEndpoints()
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Verify == "" {
		e.Verify = d.Verify
	}
	if e.Logout == "" {
		e.Logout = d.Logout
	}
	if e.Register == "" {
		e.Register = d.Register
	}
	if e.ForgotPassword == "" {
		e.ForgotPassword = d.ForgotPassword
	}
	if e.Version == "" {
		e.Version = d.Version
	}
	if e.Data == "" {
		e.Data = d.Data
	}
	return e
}

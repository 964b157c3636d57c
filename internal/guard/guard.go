// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package guard decides whether a portal route renders, redirects or shows the
// loading screen. Evaluate is a pure function of the route kind, the current
// location, token presence and the auth snapshot; the HTTP plumbing around it
// lives in router.go and middleware.go.
package guard

import (
	"net/url"
	"strings"

	"parentportal/cli/internal/auth"
)

// Kind selects the guard variant for a route.
type Kind int

const (
	// AuthenticatedOnly routes need a session token.
	AuthenticatedOnly Kind = iota
	// PublicOnly routes (login, register, forgot password) are hidden from
	// authenticated users.
	PublicOnly
)

func (k Kind) String() string {
	if k == PublicOnly {
		return "public-only"
	}
	return "authenticated-only"
}

// Well-known portal paths.
const (
	LoginPath = "/login"
	HomePath  = "/"
	// FromParam carries the originating location through the login page.
	FromParam = "from"
)

// Action is what the caller should do with the route.
type Action int

const (
	Render Action = iota
	Redirect
	Loading
)

func (a Action) String() string {
	switch a {
	case Redirect:
		return "redirect"
	case Loading:
		return "loading"
	default:
		return "render"
	}
}

// Input is everything a guard looks at.
type Input struct {
	// Location is the request URI of the route being entered.
	Location string
	HasToken bool
	Snapshot auth.Snapshot
}

// Decision is the outcome of Evaluate. To and From are set for Redirect only.
type Decision struct {
	Action Action
	To     string
	From   string
}

// Evaluate applies the guard of the given kind.
//
// AuthenticatedOnly redirects to the login page when there is no token and
// keeps the origin in From. With a token whose verification has not resolved
// yet it asks for the loading screen, so protected content never flashes
// before the session is known.
//
// PublicOnly redirects an authenticated session home.
func Evaluate(kind Kind, in Input) Decision {
	switch kind {
	case PublicOnly:
		if in.Snapshot.Status == auth.StatusAuthenticated {
			return Decision{Action: Redirect, To: HomePath}
		}
		return Decision{Action: Render}
	default:
		if !in.HasToken {
			return Decision{Action: Redirect, To: LoginPath, From: in.Location}
		}
		switch in.Snapshot.Status {
		case auth.StatusUnknown, auth.StatusVerifying:
			return Decision{Action: Loading}
		}
		return Decision{Action: Render}
	}
}

// LoginURL returns the login page address remembering from.
func LoginURL(from string) string {
	from = SafeReturn(from)
	if from == HomePath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{FromParam: {from}}.Encode()
}

// SafeReturn sanitizes a post-login return location. Anything that is not a
// local absolute path, or that points back into the login page, becomes home.
func SafeReturn(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return HomePath
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return HomePath
	}
	if u.Path == LoginPath {
		return HomePath
	}
	return from
}

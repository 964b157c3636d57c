// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc"

	"parentportal/cli/internal/manifest"
)

// Options selects and configures a transport for New.
type Options struct {
	// Transport is "http" or "grpc".
	Transport string
	BaseURL   string
	Endpoints manifest.HTTPEndpoints
	// HTTPClient is used by the http transport; its Transport is normally
	// the API client guard.
	HTTPClient *http.Client
	// GRPCConn is used by the grpc transport; it is normally dialled with the
	// guard's unary interceptor.
	GRPCConn grpc.ClientConnInterface
}

// New creates a backend API implementation for the configured transport.
func New(opts Options) (API, error) {
	switch opts.Transport {
	case "", "http":
		return NewHTTP(opts.BaseURL, opts.Endpoints, opts.HTTPClient), nil
	case "grpc":
		if opts.GRPCConn == nil {
			return nil, errors.New("backend: grpc transport needs a connection")
		}
		return NewGRPC(opts.GRPCConn), nil
	default:
		return nil, fmt.Errorf("backend: unknown transport %q", opts.Transport)
	}
}

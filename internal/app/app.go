// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app assembles the portal's dependencies from configuration. Commands
// build one App and pass its parts down; nothing here is global.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pterm/pterm"
	"google.golang.org/grpc"

	"parentportal/cli/internal/apiguard"
	"parentportal/cli/internal/auth"
	"parentportal/cli/internal/backend"
	"parentportal/cli/internal/config"
	"parentportal/cli/internal/keychain"
	"parentportal/cli/internal/kv"
	"parentportal/cli/internal/kv/bolt"
	"parentportal/cli/internal/logging"
	"parentportal/cli/internal/manifest"
	"parentportal/cli/internal/tokenstore"
)

// Options control how New builds an App.
type Options struct {
	Config config.Config
	// LogWriter receives structured logs; nil means stderr.
	LogWriter io.Writer
	// JSONLogs switches the logger to one JSON object per line.
	JSONLogs bool
	// Store overrides the configured durable storage. Tests use it.
	Store kv.Store
	// Manifests is shared by Apps built in the same process. Nil means a
	// fresh cache.
	Manifests *manifest.Cache
}

// App holds the wired components.
type App struct {
	Config     config.Config
	Log        *pterm.Logger
	Tokens     *tokenstore.Store
	State      *auth.State
	Auth       *auth.Service
	API        backend.API
	Guard      *apiguard.Guard
	HTTPClient *http.Client
	Manifests  *manifest.Cache

	closers []func() error
}

// New wires config, storage, the token store, the API client guard, the
// backend transport and the auth service together.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	log := logging.New(w, cfg.LogLevel)
	if opts.JSONLogs {
		log = logging.NewJSON(w, cfg.LogLevel)
	}

	a := &App{Config: cfg, Log: log, Manifests: opts.Manifests}
	if a.Manifests == nil {
		a.Manifests = manifest.NewCache()
	}

	store := opts.Store
	if store == nil {
		store = a.openStore()
	}
	a.Tokens = tokenstore.New(store, log)
	a.State = auth.NewState(a.Tokens, log)

	var svc *auth.Service
	a.Guard = apiguard.New(a.State, func(tok string) bool { return svc.Expire(tok) },
		apiguard.WithLogger(log),
		apiguard.WithLanguage(cfg.LanguageTag()),
	)
	a.HTTPClient = &http.Client{Timeout: cfg.Timeout(), Transport: a.Guard.Transport(nil)}

	api, err := a.newBackend(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.API = api
	svc = auth.NewService(a.State, api, log)
	a.Auth = svc
	return a, nil
}

// Close releases storage and connections and detaches the auth state.
func (a *App) Close() error {
	if a.State != nil {
		a.State.Close()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// openStore opens the configured backend, falling back to process memory.
func (a *App) openStore() kv.Store {
	switch a.Config.Storage.Backend {
	case config.StorageKeychain:
		m, err := keychain.New()
		if err == nil {
			return m
		}
		a.storageFallback(err)
	case config.StorageFile:
		path, err := a.Config.TokenDBPath()
		if err == nil {
			var s *bolt.Store
			if s, err = bolt.Open(path); err == nil {
				a.closers = append(a.closers, s.Close)
				return s
			}
		}
		a.storageFallback(err)
	}
	return kv.NewMemory()
}

func (a *App) storageFallback(err error) {
	a.Log.Warn("session storage unavailable, keeping the session in memory only", a.Log.Args(
		"backend", a.Config.Storage.Backend,
		"error", logging.Mask(err.Error()),
	))
}

func (a *App) newBackend(ctx context.Context) (backend.API, error) {
	cfg := a.Config
	opts := backend.Options{
		Transport:  cfg.Transport,
		BaseURL:    cfg.BaseURL,
		Endpoints:  cfg.Endpoints,
		HTTPClient: a.HTTPClient,
	}

	switch cfg.Transport {
	case config.TransportGRPC:
		conn, err := backend.DialGRPC(cfg.GRPCAddr, cfg.GRPCInsecure,
			grpc.WithUnaryInterceptor(a.Guard.UnaryClientInterceptor()))
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.GRPCAddr, err)
		}
		a.closers = append(a.closers, conn.Close)
		opts.GRPCConn = conn
	default:
		if cfg.RemoteManifest {
			plain := &http.Client{Timeout: cfg.Timeout()}
			eps, err := manifest.GetEndpoints(ctx, a.Manifests, plain, cfg.BaseURL, cfg.Endpoints)
			if err != nil {
				a.Log.Warn("endpoint manifest unavailable, using configured endpoints", a.Log.Args("error", logging.Mask(err.Error())))
			}
			opts.Endpoints = eps
		}
	}
	return backend.New(opts)
}

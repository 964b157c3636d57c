// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package portal serves the Parent Portal web client on a local address.
//
// Public-only screens (login, register, forgot password) and protected screens
// (home and the data lists) are mounted behind the matching route guard. The
// /api subtree is forwarded to the remote portal API through the API client
// guard, so a rejected session seen there logs the whole portal out.
package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pterm/pterm"

	"parentportal/cli/internal/auth"
	"parentportal/cli/internal/backend"
	"parentportal/cli/internal/guard"
	"parentportal/cli/internal/logging"
)

// Options are the dependencies of a Server.
type Options struct {
	Service *auth.Service
	Backend backend.API
	// BaseURL is the remote portal API the /api subtree forwards to.
	// Empty disables the proxy.
	BaseURL string
	// Transport is used by the /api proxy; normally the API client guard.
	Transport http.RoundTripper
	Language  string
	Logger    *pterm.Logger
	// Listen is the serve address; its host joins the loopback names in the
	// Host allow-list. AllowedHosts adds further names.
	Listen       string
	AllowedHosts []string
}

// Server is the local portal.
type Server struct {
	svc   *auth.Service
	be    backend.API
	proxy http.Handler
	lang  string
	hosts map[string]bool
	log   *pterm.Logger
}

// New builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Service == nil || opts.Backend == nil {
		return nil, errors.New("portal: service and backend are required")
	}
	s := &Server{
		svc:   opts.Service,
		be:    opts.Backend,
		lang:  opts.Language,
		hosts: hostAllowList(opts.Listen, opts.AllowedHosts),
		log:   opts.Logger,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.lang == "" {
		s.lang = "en"
	}
	if opts.BaseURL != "" {
		p, err := newAPIProxy(opts.BaseURL, opts.Transport)
		if err != nil {
			return nil, err
		}
		s.proxy = p
	}
	return s, nil
}

// Router returns the portal's routes.
func (s *Server) Router() chi.Router {
	st := s.svc.State()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.checkHost)
	r.Use(s.rejectCrossSite)
	r.Use(s.csrf)

	r.Get("/healthz", s.health)

	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(guard.PublicOnly, st))
		r.Get(guard.LoginPath, s.loginForm)
		r.Post(guard.LoginPath, s.loginSubmit)
		r.Get("/register", s.registerForm)
		r.Post("/register", s.registerSubmit)
		r.Get("/forgot-password", s.forgotForm)
		r.Post("/forgot-password", s.forgotSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(guard.AuthenticatedOnly, st))
		r.Get(guard.HomePath, s.home)
		r.Get("/{resource}", s.list)
		if s.proxy != nil {
			r.Handle("/api/*", s.proxy)
		}
	})

	r.Post("/logout", s.logout)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request", s.log.Args(
			"method", r.Method,
			"path", logging.Mask(r.URL.RequestURI()),
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		))
	})
}

// newAPIProxy forwards /api/* to target with the caller's credentials and
// CSRF token stripped; the transport attaches the portal session instead.
func newAPIProxy(target string, transport http.RoundTripper) (http.Handler, error) {
	u, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("portal: invalid base url " + target)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del(csrfHeaderName)
		},
		Transport: transport,
	}, nil
}

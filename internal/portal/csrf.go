package portal

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	csrfCookieName = "portal_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfFieldName  = "csrf_token"
)

type csrfKey struct{}

// loopbackHosts are always accepted in the Host header.
var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

// hostAllowList builds the set of host names the portal answers to: the
// loopback names, the listen host and any extra names.
func hostAllowList(listen string, extra []string) map[string]bool {
	allowed := make(map[string]bool, len(loopbackHosts)+len(extra)+1)
	for _, h := range loopbackHosts {
		allowed[h] = true
	}
	if host, _, err := net.SplitHostPort(listen); err == nil && host != "" {
		allowed[strings.ToLower(host)] = true
	}
	for _, h := range extra {
		allowed[strings.ToLower(h)] = true
	}
	return allowed
}

// checkHost rejects requests addressed to a host name outside the allow-list.
// A page served from a rebound DNS name reaches the portal with that name in
// Host and is refused here.
func (s *Server) checkHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.hosts[hostname(r.Host)] {
			s.log.Warn("request for unknown host refused", s.log.Args("host", r.Host, "path", r.URL.Path))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rejectCrossSite refuses requests a browser marks as coming from another
// site, whatever the method.
func (s *Server) rejectCrossSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if crossSite(r) {
			s.log.Warn("cross-site request refused", s.log.Args(
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
				"fetch_site", r.Header.Get("Sec-Fetch-Site"),
			))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func crossSite(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
	default:
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

// csrf enforces double-submit cookie protection. Every response carries the
// token cookie; mutating requests must echo it in the X-CSRF-Token header
// or, for portal forms, in the csrf_token field.
func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(csrfCookieName); err == nil {
			token = c.Value
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(submittedCSRF(r))) != 1 {
				s.log.Warn("csrf check failed", s.log.Args("method", r.Method, "path", r.URL.Path))
				http.Error(w, "invalid CSRF token", http.StatusForbidden)
				return
			}
		}

		if token == "" {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false,
				SameSite: http.SameSiteStrictMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
	})
}

// submittedCSRF reads the echoed token. Form bodies under /api are forwarded
// untouched, so only the header counts there.
func submittedCSRF(r *http.Request) string {
	if v := r.Header.Get(csrfHeaderName); v != "" {
		return v
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return ""
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") && !strings.HasPrefix(ct, "multipart/form-data") {
		return ""
	}
	return r.PostFormValue(csrfFieldName)
}

func csrfToken(r *http.Request) string {
	v, _ := r.Context().Value(csrfKey{}).(string)
	return v
}

func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		hostport = h
	}
	return strings.ToLower(strings.Trim(hostport, "[]"))
}

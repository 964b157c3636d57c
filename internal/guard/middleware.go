package guard

import (
	"encoding/json"
	"net/http"
	"strings"

	"parentportal/cli/internal/auth"
)

// Source provides the inputs of Evaluate. *auth.State satisfies it.
type Source interface {
	HasToken() bool
	Snapshot() auth.Snapshot
}

// Middleware guards every route below it, chi style.
// JSON clients get 401 and 503 bodies instead of redirects and the loading page.
func Middleware(kind Kind, src Source) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := HTTPRouter{W: w, R: r}
			d := Evaluate(kind, Input{
				Location: rt.Location(),
				HasToken: src.HasToken(),
				Snapshot: src.Snapshot(),
			})

			if wantsJSON(r) && d.Action != Render {
				writeJSONDecision(w, d)
				return
			}
			Apply(rt, d,
				func() { next.ServeHTTP(w, r) },
				func() { WriteLoading(w) },
			)
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSONDecision(w http.ResponseWriter, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	switch d.Action {
	case Loading:
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "verifying"})
	default:
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required", "login": LoginURL(d.From)})
	}
}

const loadingPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="1">
<title>Parent Portal</title>
<style>
html,body{margin:0;height:100%}
.cover{position:fixed;inset:0;display:flex;align-items:center;justify-content:center;background:#fff}
.spinner{width:48px;height:48px;border:5px solid #ddd;border-top-color:#3b6fd8;border-radius:50%;animation:spin 1s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}
</style>
</head>
<body><div class="cover" role="status" aria-label="Loading"><div class="spinner"></div></div></body>
</html>
`

// WriteLoading serves the full-page loading indicator. The page refreshes
// itself until the session is resolved.
func WriteLoading(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(loadingPage))
}

package guard

import (
	"net/http"
)

// NavigateOptions tune a navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing one.
	Replace bool
	// From is recorded as the origin so the target can send the user back.
	From string
}

// Router is the navigation capability guards consume.
type Router interface {
	Location() string
	Navigate(path string, opts NavigateOptions)
}

// HTTPRouter adapts one request/response pair to Router. Navigate answers
// with a redirect.
type HTTPRouter struct {
	W http.ResponseWriter
	R *http.Request
}

var _ Router = HTTPRouter{}

func (h HTTPRouter) Location() string { return h.R.URL.RequestURI() }

// Navigate redirects with 303 when replacing (after a form post) and 302 otherwise.
func (h HTTPRouter) Navigate(path string, opts NavigateOptions) {
	if path == LoginPath && opts.From != "" {
		path = LoginURL(opts.From)
	}
	code := http.StatusFound
	if opts.Replace {
		code = http.StatusSeeOther
	}
	http.Redirect(h.W, h.R, path, code)
}

// Apply carries out d on rt. render is called for Render; loading for Loading.
func Apply(rt Router, d Decision, render, loading func()) {
	switch d.Action {
	case Redirect:
		rt.Navigate(d.To, NavigateOptions{Replace: true, From: d.From})
	case Loading:
		loading()
	default:
		render()
	}
}

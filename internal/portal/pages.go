package portal

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"parentportal/cli/internal/backend"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// field is one form input with its current value and error.
type field struct {
	Name, Label, Type, Value, Error string
}

// page is the data every template receives.
type page struct {
	Lang   string
	CSRF   string
	Title  string
	User   *backend.UserProfile
	Notice string
	Error  string
	From   string

	Values map[string]string
	Errors map[string]string

	Resources []string
	Columns   []string
	Rows      [][]string
	Hints     []string
}

var fieldMeta = map[string]field{
	"name":     {Name: "name", Label: "Name", Type: "text"},
	"email":    {Name: "email", Label: "Email", Type: "email"},
	"password": {Name: "password", Label: "Password", Type: "password"},
}

// Field is called from templates to build a form input.
func (p page) Field(name string) field {
	f := fieldMeta[name]
	if name != "password" {
		f.Value = p.Values[name]
	}
	f.Error = p.Errors[name]
	return f
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if p.Lang == "" {
		p.Lang = s.lang
	}
	p.CSRF = csrfToken(r)
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		s.log.Error("render page", s.log.Args("page", name, "error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

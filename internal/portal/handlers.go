package portal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parentportal/cli/internal/auth"
	"parentportal/cli/internal/backend"
	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/guard"
	"parentportal/cli/internal/httperrors"
	"parentportal/cli/internal/logging"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	snap := s.svc.State().Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":        snap.Status.String(),
		"initialized":   snap.IsInitialized,
		"authenticated": snap.IsAuthenticated,
	})
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Log in", From: guard.SafeReturn(r.URL.Query().Get(guard.FromParam))}
	if r.URL.Query().Get("registered") != "" {
		p.Notice = "Your account was created. You can log in now."
	}
	s.render(w, r, http.StatusOK, "login", p)
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	creds := backend.Credentials{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	from := guard.SafeReturn(r.PostFormValue(guard.FromParam))

	_, err := s.svc.Login(r.Context(), creds)
	if err == nil || errors.Is(err, auth.ErrAlreadyAuthenticated) {
		guard.HTTPRouter{W: w, R: r}.Navigate(from, guard.NavigateOptions{Replace: true})
		return
	}

	p := page{
		Title:  "Log in",
		From:   from,
		Values: map[string]string{"email": creds.Email},
	}
	status := s.formError(&p, err)
	if perrors.Is(err, perrors.AuthRejected) {
		p.Error = "Email or password is incorrect."
	}
	s.render(w, r, status, "login", p)
}

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", page{Title: "Create an account"})
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	reg := backend.Registration{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := s.svc.Register(r.Context(), reg); err != nil {
		p := page{
			Title:  "Create an account",
			Values: map[string]string{"name": reg.Name, "email": reg.Email},
		}
		s.render(w, r, s.formError(&p, err), "register", p)
		return
	}
	guard.HTTPRouter{W: w, R: r}.Navigate(guard.LoginPath+"?registered=1", guard.NavigateOptions{Replace: true})
}

func (s *Server) forgotForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot", page{Title: "Reset your password"})
}

func (s *Server) forgotSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	p := page{Title: "Reset your password", Values: map[string]string{"email": email}}
	if err := s.svc.ForgotPassword(r.Context(), email); err != nil {
		s.render(w, r, s.formError(&p, err), "forgot", p)
		return
	}
	p.Notice = "If an account exists for that address, a reset link is on its way."
	s.render(w, r, http.StatusOK, "forgot", p)
}

// formError fills p from err and returns the status to answer with.
func (s *Server) formError(p *page, err error) int {
	switch {
	case perrors.Is(err, perrors.ValidationError):
		p.Errors = perrors.FieldsOf(err)
		p.Error = "Please check the highlighted fields."
		return http.StatusUnprocessableEntity
	case perrors.Is(err, perrors.AuthRejected):
		p.Error = "The portal refused the request."
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrBusy):
		p.Error = "Still checking your session, please try again."
		return http.StatusConflict
	}
	title, _ := httperrors.Explain(httperrors.Classify(err), "the portal")
	p.Error = title + "."
	s.log.Warn("portal request failed", s.log.Args("kind", string(perrors.KindOf(err)), "error", logging.Mask(err.Error())))
	return http.StatusBadGateway
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.State().Snapshot()
	s.render(w, r, http.StatusOK, "home", page{
		Title:     "Parent Portal",
		User:      snap.User,
		Resources: backend.Resources,
	})
}

var resourceTitles = map[string]string{
	"service-requests": "Service requests",
	"contracts":        "Contracts",
	"customers":        "Customers",
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	if !backend.IsResource(resource) {
		http.NotFound(w, r)
		return
	}
	items, err := s.be.List(r.Context(), resource)
	if err != nil {
		if perrors.Is(err, perrors.AuthRejected) {
			// The API client guard has already ended the session.
			guard.HTTPRouter{W: w, R: r}.Navigate(guard.LoginPath, guard.NavigateOptions{Replace: true, From: r.URL.RequestURI()})
			return
		}
		title, hints := httperrors.Explain(httperrors.Classify(err), "the portal")
		s.render(w, r, http.StatusBadGateway, "problem", page{
			Title: title,
			User:  s.svc.State().Snapshot().User,
			Hints: hints,
		})
		return
	}
	cols, rows := backend.Tabulate(items)
	s.render(w, r, http.StatusOK, "list", page{
		Title:   resourceTitles[resource],
		User:    s.svc.State().Snapshot().User,
		Columns: cols,
		Rows:    rows,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.svc.Logout(r.Context())
	guard.HTTPRouter{W: w, R: r}.Navigate(guard.LoginPath, guard.NavigateOptions{Replace: true})
}

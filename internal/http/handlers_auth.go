package http

import (
	"errors"
	"net/http"

	"expenso/internal/auth"
	"expenso/internal/log"
)

type loginView struct {
	Page
	LoginName string
	Error     string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Resolve(w, r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{Page: s.page(r, "Log in", "")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	username := sanitizeInput(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	id, err := s.sessions.Login(r.Context(), w, username, password)
	if err != nil {
		view := loginView{Page: s.page(r, "Log in", ""), LoginName: username}
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrInvalidCredentials) {
			view.Error = "Invalid username or password."
			log.FromContext(r.Context()).WarnContext(r.Context(), "Login failed", log.FieldUsername, username)
		} else {
			view.Error = genericErrorMessage
			status = http.StatusInternalServerError
			log.FromContext(r.Context()).Failure(r.Context(), "Login error", err)
		}
		s.render(w, r, status, "login.html", view)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Login succeeded", log.FieldUserID, id.UserID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w, r)
	redirectWithNotice(w, r, "/login", NoticeLoggedOut)
}

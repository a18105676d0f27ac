package http

import (
	"bytes"
	"net/http"

	"expenso/internal/auth"
	"expenso/internal/log"
)

// render executes the named template into a buffer so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).Failure(r.Context(), "Template execution failed", err, "template", name)
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// page builds the layout data for the current request.
func (s *Server) page(r *http.Request, title, active string) Page {
	p := Page{Title: title, Active: active, Notice: noticeFromQuery(r)}
	if id, ok := auth.FromContext(r.Context()); ok {
		p.Username = id.Username
	}
	return p
}

// identity returns the authenticated user. Routes behind the session
// middleware always have one.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

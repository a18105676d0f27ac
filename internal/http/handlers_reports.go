package http

import (
	"net/http"

	"expenso/internal/log"
)

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	p := parseReportParams(r)
	rep, err := s.report(r.Context(), identity(r).UserID, p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Report rendered",
		log.FieldReportType, string(rep.Type),
		log.FieldYear, rep.Year)

	view := s.reportView(rep)
	view.Page = s.page(r, "Reports", "reports")
	s.render(w, r, http.StatusOK, "reports.html", view)
}

func (s *Server) handleAPIReports(w http.ResponseWriter, r *http.Request) {
	rep, err := s.report(r.Context(), identity(r).UserID, parseReportParams(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportJSON(rep))
}

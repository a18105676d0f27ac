package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	view := s.dashboardView(sum)
	view.Page = s.page(r, "Dashboard", "dashboard")
	s.render(w, r, http.StatusOK, "dashboard.html", view)
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardJSON(sum))
}

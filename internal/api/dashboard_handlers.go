package api

import (
	"net/http"

	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
)

// handleDashboardStats returns the headline counts for the actor's
// scope.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.services.Dashboard.Stats(r.Context(), actorFrom(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, stats, s.logger)
}

// handleDashboardActivity returns the newest records of each kind in
// the actor's scope.
func (s *Server) handleDashboardActivity(w http.ResponseWriter, r *http.Request) {
	feed, err := s.services.Dashboard.Activity(r.Context(), actorFrom(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, feed, s.logger)
}

// handleDashboardUserStats returns per-user resource counts for admins.
func (s *Server) handleDashboardUserStats(w http.ResponseWriter, r *http.Request) {
	rows, err := s.services.Dashboard.UserStats(r.Context(), actorFrom(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, rows, s.logger)
}

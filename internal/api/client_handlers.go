package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// handleVerifyInvitation inspects an invitation token without consuming
// it and returns the bound account's public summary.
func (s *Server) handleVerifyInvitation(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services.Invites.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, summary, s.logger)
}

// handleRedeemInvitation consumes an invitation token, creating the
// client user and returning a session credential.
func (s *Server) handleRedeemInvitation(w http.ResponseWriter, r *http.Request) {
	var req service.RedeemRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	session, err := s.services.Invites.Redeem(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.JSON(w, http.StatusCreated, session, s.logger)
}

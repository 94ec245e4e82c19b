package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// handleCreateAccount creates a new SEO account.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAccountRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	account, err := s.services.Accounts.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusCreated, "seo account created", "seoAccount", account, s.logger)
}

// handleListAccounts returns a page of SEO accounts in the actor's
// scope.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := service.ListAccountsQuery{
		Status: r.URL.Query().Get("status"),
		Niche:  r.URL.Query().Get("niche"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}

	accounts, meta, err := s.services.Accounts.List(r.Context(), actorFrom(r.Context()), q)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, accounts, meta, s.logger)
}

// handleListAccountsByAgency returns the accounts owned by or assigned
// to an agency.
func (s *Server) handleListAccountsByAgency(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	agencyID := chi.URLParam(r, "agencyId")

	accounts, meta, err := s.services.Accounts.ListByAgency(r.Context(), actorFrom(r.Context()), agencyID, page, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, accounts, meta, s.logger)
}

// handleGetAccount returns one SEO account.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.services.Accounts.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, account, s.logger)
}

// handleUpdateAccount applies a patch to an SEO account.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateAccountRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	account, err := s.services.Accounts.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusOK, "seo account updated", "seoAccount", account, s.logger)
}

// handleDeleteAccount removes an SEO account.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Accounts.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK, "seo account deleted", s.logger)
}

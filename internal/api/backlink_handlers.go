package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// handleCreateBacklink creates a new backlink.
func (s *Server) handleCreateBacklink(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBacklinkRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	link, err := s.services.Backlinks.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusCreated, "backlink created", "backlink", link, s.logger)
}

// handleListBacklinks returns a page of backlinks in the actor's scope.
func (s *Server) handleListBacklinks(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := service.ListBacklinksQuery{
		Status:       r.URL.Query().Get("status"),
		LinkType:     r.URL.Query().Get("linkType"),
		SeoAccountID: r.URL.Query().Get("seoAccountId"),
		Search:       r.URL.Query().Get("search"),
		Page:         page,
		Limit:        limit,
	}

	links, meta, err := s.services.Backlinks.List(r.Context(), actorFrom(r.Context()), q)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, links, meta, s.logger)
}

// handleListBacklinksByAccount returns a page of one account's
// backlinks.
func (s *Server) handleListBacklinksByAccount(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := service.ListBacklinksQuery{
		Status:   r.URL.Query().Get("status"),
		LinkType: r.URL.Query().Get("linkType"),
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		Limit:    limit,
	}

	links, meta, err := s.services.Backlinks.ListByAccount(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "seoAccountId"), q)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, links, meta, s.logger)
}

// handleBacklinkSummary returns the aggregated backlink summary for one
// account.
func (s *Server) handleBacklinkSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services.Backlinks.Summary(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "seoAccountId"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, summary, s.logger)
}

// handleGetBacklink returns one backlink.
func (s *Server) handleGetBacklink(w http.ResponseWriter, r *http.Request) {
	link, err := s.services.Backlinks.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, link, s.logger)
}

// handleUpdateBacklink applies a patch to a backlink.
func (s *Server) handleUpdateBacklink(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBacklinkRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	link, err := s.services.Backlinks.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusOK, "backlink updated", "backlink", link, s.logger)
}

// handleDeleteBacklink removes a backlink.
func (s *Server) handleDeleteBacklink(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Backlinks.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK, "backlink deleted", s.logger)
}

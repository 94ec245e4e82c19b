package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// handleGetProfile returns the authenticated user's own record.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Users.GetProfile(r.Context(), actorFrom(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}

// handleUpdateProfile updates the authenticated user's own record.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := s.services.Users.UpdateProfile(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusOK, "profile updated", "user", user, s.logger)
}

// handleCreateUser creates a user on behalf of an admin.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := s.services.Users.CreateUser(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusCreated, "user created", "user", user, s.logger)
}

// handleListUsers returns a page of users for an admin.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := service.ListUsersQuery{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}

	users, meta, err := s.services.Users.ListUsers(r.Context(), actorFrom(r.Context()), q)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, users, meta, s.logger)
}

// handleGetUser returns one user for an admin.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Users.GetUser(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}

// handleUpdateUser applies admin changes to a user.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := s.services.Users.UpdateUser(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusOK, "user updated", "user", user, s.logger)
}

// handleDeleteUser removes a user on behalf of an admin.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Users.DeleteUser(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK, "user deleted", s.logger)
}

// handleListAgencyClients returns the client users of an agency.
func (s *Server) handleListAgencyClients(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	ownerID := r.URL.Query().Get("ownerId")

	clients, meta, err := s.services.Users.ListAgencyClients(r.Context(), actorFrom(r.Context()), ownerID, page, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, clients, meta, s.logger)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// handleCreatePost creates a new blog post.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePostRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	post, err := s.services.Posts.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusCreated, "blog post created", "blogPost", post, s.logger)
}

// handleListPosts returns a page of blog posts in the actor's scope.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := service.ListPostsQuery{
		Status:       r.URL.Query().Get("status"),
		SeoAccountID: r.URL.Query().Get("seoAccountId"),
		Search:       r.URL.Query().Get("search"),
		Page:         page,
		Limit:        limit,
	}

	posts, meta, err := s.services.Posts.List(r.Context(), actorFrom(r.Context()), q)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.List(w, posts, meta, s.logger)
}

// handleGetPost returns one blog post.
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.services.Posts.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, post, s.logger)
}

// handleUpdatePost applies a patch to a blog post.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePostRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	post, err := s.services.Posts.Update(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusOK, "blog post updated", "blogPost", post, s.logger)
}

// handleDeletePost removes a blog post.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Posts.Delete(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK, "blog post deleted", s.logger)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
	"github.com/rankdeskapp/rankdesk-server/internal/service"
)

// handleRegister creates an unverified user and sends a verification
// email.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := s.services.Auth.Register(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusCreated,
		"registration successful, please verify your email address",
		"user", user, s.logger)
}

// handleVerifyEmail redeems an email verification token.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := s.services.Auth.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Mutation(w, http.StatusOK, "email verified", "user", user, s.logger)
}

// handleLogin authenticates a user and returns a session credential.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	session, err := s.services.Auth.Login(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, session, s.logger)
}

// handleForgotPassword starts the password reset flow. The answer never
// reveals whether the address belongs to a user.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.services.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK,
		"if that email address belongs to an account, a reset link is on its way", s.logger)
}

// handleResetPassword redeems a reset token and sets a new password.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.services.Auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Message(w, http.StatusOK, "password reset", s.logger)
}

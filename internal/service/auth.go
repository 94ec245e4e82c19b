package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/id"
	"github.com/rankdeskapp/rankdesk-server/internal/mail"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// AuthService handles registration, email verification, login, and the
// password reset flow.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	sender       mail.Sender
	publicURL    string
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st *store.Store, tokenService *auth.TokenService, sender mail.Sender, cfg config.ServerConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        st,
		tokenService: tokenService,
		sender:       sender,
		publicURL:    cfg.PublicURL,
		logger:       logger,
	}
}

// RegisterRequest contains self-registration data.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Role     string `json:"role" validate:"omitempty,oneof=agency client"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the session credential and the user it belongs to.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// Register creates an unverified user and emails a verification link.
// Self-registration defaults to the agency role; admin and owner roles
// are only assignable through admin user creation.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleAgency
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Verified:     false,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		// Account creation stands; the user can request another email.
		s.logger.Warn("Failed to send verification email",
			"user_id", user.ID,
			"error", err,
		)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user.Public(), nil
}

// VerifyEmail redeems a verification token and marks the user verified.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue string) (*domain.User, error) {
	token, err := s.consumeToken(tokenValue, domain.TokenKindEmailVerification)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(token.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Verified = true
	user.Touch()
	if err := s.store.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.store.DeleteToken(token.ID); err != nil {
		s.logger.Warn("Failed to delete redeemed token", "token_id", token.ID, "error", err)
	}

	s.logger.Info("Email verified", "user_id", user.ID)
	return user.Public(), nil
}

// Login authenticates a user and issues a session credential.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if !user.Verified {
		return nil, domainerrors.Forbidden("email address not verified")
	}

	return s.issueSession(user)
}

// ForgotPassword issues a reset token and emails a reset link when the
// address belongs to a user. The caller always gets the same answer
// either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domainerrors.Validation("email is required")
	}

	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.createToken(domain.TokenKindPasswordReset, user.Email, user.ID, "", domain.PasswordResetTTL)
	if err != nil {
		return err
	}

	msg, err := mail.PasswordResetMessage(user.Email, mail.PasswordResetData{
		Name:      user.Name,
		ResetURL:  fmt.Sprintf("%s/reset-password/%s", s.publicURL, token.Value),
		ExpiresIn: "1 hour",
	})
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	s.logger.Info("Password reset requested", "user_id", user.ID)
	return nil
}

// ResetPasswordRequest carries the new password for a reset token.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=1024"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ResetPassword redeems a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenValue string, req ResetPasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	token, err := s.consumeToken(tokenValue, domain.TokenKindPasswordReset)
	if err != nil {
		return err
	}

	user, err := s.store.GetUser(token.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("get user: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = passwordHash
	user.Touch()
	if err := s.store.UpdateUser(user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := s.store.DeleteToken(token.ID); err != nil {
		s.logger.Warn("Failed to delete redeemed token", "token_id", token.ID, "error", err)
	}

	s.logger.Info("Password reset", "user_id", user.ID)
	return nil
}

// VerifyAccessToken validates a session credential and returns the actor
// it identifies. Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(tokenString string) (access.Actor, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return access.Actor{}, domainerrors.Unauthorized("invalid or expired token")
	}

	return access.Actor{
		ID:           claims.UserID,
		Role:         domain.Role(claims.Role),
		OwnerID:      claims.OwnerID,
		IsTeamMember: claims.IsTeamMember,
	}, nil
}

// issueSession builds an AuthResponse for the user.
func (s *AuthService) issueSession(user *domain.User) (*AuthResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	return &AuthResponse{
		User:        user.Public(),
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(s.tokenService.AccessTokenDuration()),
	}, nil
}

// createToken persists a new opaque token of the given kind.
func (s *AuthService) createToken(kind domain.TokenKind, email, userID, accountID string, ttl time.Duration) (*domain.Token, error) {
	value, err := auth.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	tokenID, err := id.Generate("tok")
	if err != nil {
		return nil, fmt.Errorf("generate token ID: %w", err)
	}

	token := &domain.Token{
		Value:        value,
		Kind:         kind,
		Email:        email,
		UserID:       userID,
		SeoAccountID: accountID,
		ExpiresAt:    time.Now().Add(ttl),
	}
	token.ID = tokenID
	token.InitTimestamps()

	if err := s.store.CreateToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// consumeToken looks up a token of the expected kind and checks expiry.
// Expired tokens are deleted on the spot.
func (s *AuthService) consumeToken(value string, kind domain.TokenKind) (*domain.Token, error) {
	token, err := s.store.GetTokenByValue(value)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, domainerrors.NotFound("token not found")
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	if token.Kind != kind {
		return nil, domainerrors.NotFound("token not found")
	}

	if token.IsExpired(time.Now()) {
		if err := s.store.DeleteToken(token.ID); err != nil {
			s.logger.Warn("Failed to delete expired token", "token_id", token.ID, "error", err)
		}
		return nil, domainerrors.TokenExpired("token has expired")
	}

	return token, nil
}

// sendVerificationEmail issues a verification token and mails the link.
func (s *AuthService) sendVerificationEmail(ctx context.Context, user *domain.User) error {
	token, err := s.createToken(domain.TokenKindEmailVerification, user.Email, user.ID, "", domain.EmailVerificationTTL)
	if err != nil {
		return err
	}

	msg, err := mail.VerificationMessage(user.Email, mail.VerificationData{
		Name:      user.Name,
		VerifyURL: fmt.Sprintf("%s/verify-email/%s", s.publicURL, token.Value),
		ExpiresIn: "1 hour",
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, msg)
}

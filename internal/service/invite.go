package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/id"
	"github.com/rankdeskapp/rankdesk-server/internal/mail"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// InviteService runs the client invitation flow: issue a token when an
// SEO account names a contact email, let the holder inspect it, and
// redeem it into a verified client user bound to the account.
type InviteService struct {
	store       *store.Store
	authService *AuthService
	sender      mail.Sender
	publicURL   string
	logger      *slog.Logger
}

// NewInviteService creates a new invitation service.
func NewInviteService(st *store.Store, authService *AuthService, sender mail.Sender, cfg config.ServerConfig, logger *slog.Logger) *InviteService {
	return &InviteService{
		store:       st,
		authService: authService,
		sender:      sender,
		publicURL:   cfg.PublicURL,
		logger:      logger,
	}
}

// Issue creates a 7-day invitation token for the account's contact email
// and mails the redemption link. A mail failure is reported to the
// caller through the logs only; the token stays valid.
func (s *InviteService) Issue(ctx context.Context, account *domain.SeoAccount) error {
	if account.ContactEmail == "" {
		return nil
	}

	value, err := auth.GenerateOpaqueToken()
	if err != nil {
		return err
	}
	tokenID, err := id.Generate("tok")
	if err != nil {
		return fmt.Errorf("generate token ID: %w", err)
	}

	token := &domain.Token{
		Value:        value,
		Kind:         domain.TokenKindClientInvitation,
		Email:        account.ContactEmail,
		SeoAccountID: account.ID,
		ExpiresAt:    time.Now().Add(domain.ClientInvitationTTL),
	}
	token.ID = tokenID
	token.InitTimestamps()

	if err := s.store.CreateToken(token); err != nil {
		return err
	}

	msg, err := mail.InvitationMessage(account.ContactEmail, mail.InvitationData{
		AccountName: account.Name,
		Domain:      account.Domain,
		RedeemURL:   fmt.Sprintf("%s/clients/register/%s", s.publicURL, token.Value),
		ExpiresIn:   "7 days",
	})
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("Failed to send invitation email",
			"account_id", account.ID,
			"error", err,
		)
	}

	s.logger.Info("Client invitation issued", "account_id", account.ID)
	return nil
}

// Verify inspects an invitation token without consuming it. Valid tokens
// return the bound account's public summary; expired tokens are deleted
// on the spot. Verification mutates nothing else, so repeating it before
// expiry returns the same summary.
func (s *InviteService) Verify(ctx context.Context, tokenValue string) (*domain.PublicSummary, error) {
	token, err := s.store.GetTokenByValue(tokenValue)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, domainerrors.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	if token.Kind != domain.TokenKindClientInvitation {
		return nil, domainerrors.NotFound("invitation not found")
	}

	if token.IsExpired(time.Now()) {
		if err := s.store.DeleteToken(token.ID); err != nil {
			s.logger.Warn("Failed to delete expired invitation", "token_id", token.ID, "error", err)
		}
		return nil, domainerrors.TokenExpired("invitation has expired")
	}

	account, err := s.store.GetAccount(token.SeoAccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	summary := account.Summary()
	return &summary, nil
}

// RedeemRequest carries the new client user's fields.
type RedeemRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=1024"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Redeem consumes an invitation token: it creates a verified client
// user, links the account's client reference, and destroys the token in
// one store transaction, then issues a session credential.
func (s *InviteService) Redeem(ctx context.Context, tokenValue string, req RedeemRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	token, err := s.store.GetTokenByValue(tokenValue)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, domainerrors.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	if token.Kind != domain.TokenKindClientInvitation {
		return nil, domainerrors.NotFound("invitation not found")
	}
	if token.IsExpired(time.Now()) {
		if err := s.store.DeleteToken(token.ID); err != nil {
			s.logger.Warn("Failed to delete expired invitation", "token_id", token.ID, "error", err)
		}
		return nil, domainerrors.TokenExpired("invitation has expired")
	}

	account, err := s.store.GetAccount(token.SeoAccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
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
		Role:         domain.RoleClient,
		OwnerID:      account.OwnerID,
		Verified:     true,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.RedeemClientInvitation(token, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			return nil, domainerrors.Conflict("email already in use")
		case errors.Is(err, store.ErrTokenNotFound):
			return nil, domainerrors.NotFound("invitation not found")
		case errors.Is(err, store.ErrAccountNotFound):
			return nil, domainerrors.NotFound("invitation not found")
		default:
			return nil, fmt.Errorf("redeem invitation: %w", err)
		}
	}

	s.logger.Info("Client invitation redeemed",
		"account_id", account.ID,
		"user_id", user.ID,
	)

	return s.authService.issueSession(user)
}

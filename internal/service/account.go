package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/id"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// AccountService is the gateway for SEO accounts: scoped listings,
// ownership-checked mutations, and the invitation side effect on create.
type AccountService struct {
	store         *store.Store
	inviteService *InviteService
	logger        *slog.Logger
}

// NewAccountService creates a new SEO account service.
func NewAccountService(st *store.Store, inviteService *InviteService, logger *slog.Logger) *AccountService {
	return &AccountService{store: st, inviteService: inviteService, logger: logger}
}

// CreateAccountRequest carries SEO account creation data.
type CreateAccountRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Domain           string `json:"domain" validate:"required,fqdn"`
	Niche            string `json:"niche" validate:"omitempty,max=100"`
	Status           string `json:"status" validate:"omitempty,oneof=active paused archived"`
	ContactEmail     string `json:"contactEmail" validate:"omitempty,email"`
	AssignedAgencyID string `json:"assignedAgencyId"`
}

// Create validates and persists a new SEO account. Agency actors become
// the owner; admins may create unowned accounts. A contact email
// triggers a client invitation; invitation or mail trouble never rolls
// the account back.
func (s *AccountService) Create(ctx context.Context, actor access.Actor, req CreateAccountRequest) (*domain.SeoAccount, error) {
	if actor.Anonymous() {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if actor.Role == domain.RoleClient || actor.Role == domain.RoleViewing {
		return nil, domainerrors.Forbidden("insufficient permissions")
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	status := domain.AccountStatus(req.Status)
	if status == "" {
		status = domain.AccountStatusActive
	}

	accountID, err := id.Generate("acct")
	if err != nil {
		return nil, fmt.Errorf("generate account ID: %w", err)
	}

	account := &domain.SeoAccount{
		Name:             req.Name,
		Domain:           domain.NormalizeDomain(req.Domain),
		Niche:            req.Niche,
		Status:           status,
		ContactEmail:     req.ContactEmail,
		AssignedAgencyID: req.AssignedAgencyID,
	}
	account.ID = accountID
	account.InitTimestamps()

	if actor.Role == domain.RoleAgency {
		account.OwnerID = actor.ID
	}

	if err := s.store.CreateAccount(account); err != nil {
		if errors.Is(err, store.ErrDomainTaken) {
			return nil, domainerrors.Conflict("domain already registered")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	if account.ContactEmail != "" {
		if err := s.inviteService.Issue(ctx, account); err != nil {
			s.logger.Warn("Failed to issue client invitation",
				"account_id", account.ID,
				"error", err,
			)
		}
	}

	s.logger.Info("SEO account created", "account_id", account.ID, "domain", account.Domain)
	return account, nil
}

// ListAccountsQuery narrows an account listing.
type ListAccountsQuery struct {
	Status string
	Niche  string
	Search string
	Page   int
	Limit  int
}

// List returns the page of accounts in the actor's scope.
func (s *AccountService) List(ctx context.Context, actor access.Actor, q ListAccountsQuery) ([]*domain.SeoAccount, store.Pagination, error) {
	scope, err := accountScope(s.store, actor)
	if err != nil {
		return nil, store.Pagination{}, err
	}

	filter := store.AccountFilter{
		Status: domain.AccountStatus(q.Status),
		Niche:  q.Niche,
		Search: q.Search,
	}
	return s.store.ListAccounts(scope, filter, store.Params{Page: q.Page, Limit: q.Limit})
}

// ListByAgency returns the accounts owned by or assigned to an agency.
// Admins may ask about any agency; agencies only about themselves.
func (s *AccountService) ListByAgency(ctx context.Context, actor access.Actor, agencyID string, page, limit int) ([]*domain.SeoAccount, store.Pagination, error) {
	if actor.Anonymous() {
		return nil, store.Pagination{}, domainerrors.Unauthorized("authentication required")
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleOwner:
	case domain.RoleAgency:
		if actor.ID != agencyID {
			return nil, store.Pagination{}, domainerrors.Forbidden("insufficient permissions")
		}
	default:
		return nil, store.Pagination{}, domainerrors.Forbidden("insufficient permissions")
	}

	ids, err := s.store.AccountIDsOwnedOrAssigned(agencyID)
	if err != nil {
		return nil, store.Pagination{}, err
	}
	return s.store.ListAccounts(access.Accounts(ids...), store.AccountFilter{}, store.Params{Page: page, Limit: limit})
}

// Get returns one account after an ownership check. Missing accounts are
// NotFound before ownership is consulted; existing accounts read as
// Unauthorized for anonymous callers and Forbidden for everyone else
// outside the owner set.
func (s *AccountService) Get(ctx context.Context, actor access.Actor, accountID string) (*domain.SeoAccount, error) {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(actor, access.OwnersOf(account), access.ActionRead) {
		return nil, accessDenied(actor, "you do not have access to this account")
	}
	return account, nil
}

// UpdateAccountRequest carries SEO account updates. Ownership, counters
// and timestamps are not patchable; those fields have no representation
// here regardless of actor role.
type UpdateAccountRequest struct {
	Name             string  `json:"name" validate:"omitempty,max=200"`
	Domain           string  `json:"domain" validate:"omitempty,fqdn"`
	Niche            *string `json:"niche"`
	Status           string  `json:"status" validate:"omitempty,oneof=active paused archived"`
	ContactEmail     *string `json:"contactEmail" validate:"omitempty"`
	AssignedAgencyID *string `json:"assignedAgencyId"`
}

// Update applies a patch to an account after an ownership check.
func (s *AccountService) Update(ctx context.Context, actor access.Actor, accountID string, req UpdateAccountRequest) (*domain.SeoAccount, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	account, err := s.loadAccount(accountID)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(actor, access.OwnersOf(account), access.ActionWrite) {
		return nil, accessDenied(actor, "you do not have access to this account")
	}

	if req.Name != "" {
		account.Name = req.Name
	}
	if req.Domain != "" {
		account.Domain = domain.NormalizeDomain(req.Domain)
	}
	if req.Niche != nil {
		account.Niche = *req.Niche
	}
	if req.Status != "" {
		account.Status = domain.AccountStatus(req.Status)
	}
	if req.ContactEmail != nil {
		account.ContactEmail = *req.ContactEmail
	}
	if req.AssignedAgencyID != nil {
		account.AssignedAgencyID = *req.AssignedAgencyID
	}
	account.Touch()

	if err := s.store.UpdateAccount(account); err != nil {
		if errors.Is(err, store.ErrDomainTaken) {
			return nil, domainerrors.Conflict("domain already registered")
		}
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("seo account not found")
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}

// Delete removes an account after an ownership check. Deletion is
// refused while the account still owns blog posts or backlinks.
func (s *AccountService) Delete(ctx context.Context, actor access.Actor, accountID string) error {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return err
	}
	if !access.CanAccess(actor, access.OwnersOf(account), access.ActionDelete) {
		return accessDenied(actor, "you do not have access to this account")
	}

	posts, err := s.store.CountPostsByAccount(accountID)
	if err != nil {
		return fmt.Errorf("count posts: %w", err)
	}
	backlinks, err := s.store.CountBacklinksByAccount(accountID)
	if err != nil {
		return fmt.Errorf("count backlinks: %w", err)
	}
	if posts > 0 || backlinks > 0 {
		return domainerrors.HasDependentsf(
			"account still has %d blog post(s) and %d backlink(s); remove them first",
			posts, backlinks,
		)
	}

	if err := s.store.DeleteAccount(accountID); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return domainerrors.NotFound("seo account not found")
		}
		return fmt.Errorf("delete account: %w", err)
	}

	s.logger.Info("SEO account deleted", "account_id", accountID, "deleted_by", actor.ID)
	return nil
}

// loadAccount fetches an account, mapping absence to NotFound.
func (s *AccountService) loadAccount(accountID string) (*domain.SeoAccount, error) {
	account, err := s.store.GetAccount(accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("seo account not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

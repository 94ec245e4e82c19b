package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/id"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// UserService handles profile management and admin user CRUD.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st *store.Store, logger *slog.Logger) *UserService {
	return &UserService{store: st, logger: logger}
}

// GetProfile returns the actor's own user record.
func (s *UserService) GetProfile(ctx context.Context, actor access.Actor) (*domain.User, error) {
	if actor.Anonymous() {
		return nil, domainerrors.Unauthorized("authentication required")
	}

	user, err := s.store.GetUser(actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

// UpdateProfileRequest carries self-service profile changes.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateProfile updates the actor's own name and email. Role, ownership
// and verification are not self-serviceable.
func (s *UserService) UpdateProfile(ctx context.Context, actor access.Actor, req UpdateProfileRequest) (*domain.User, error) {
	if actor.Anonymous() {
		return nil, domainerrors.Unauthorized("authentication required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUser(actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	user.Touch()

	if err := s.store.UpdateUser(user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user.Public(), nil
}

// CreateUserRequest carries admin user creation data.
type CreateUserRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=1024"`
	Role         string `json:"role" validate:"required,oneof=owner admin viewing agency client"`
	OwnerID      string `json:"ownerId" validate:"omitempty"`
	IsTeamMember bool   `json:"isTeamMember"`
}

// CreateUser creates a user on behalf of an admin. Admin-created users
// start verified.
func (s *UserService) CreateUser(ctx context.Context, actor access.Actor, req CreateUserRequest) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
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
		Role:         domain.Role(req.Role),
		OwnerID:      req.OwnerID,
		IsTeamMember: req.IsTeamMember,
		Verified:     true,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User created by admin", "user_id", user.ID, "role", user.Role, "created_by", actor.ID)
	return user.Public(), nil
}

// ListUsersQuery narrows an admin user listing.
type ListUsersQuery struct {
	Role   string
	Search string
	Page   int
	Limit  int
}

// ListUsers returns a page of users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor access.Actor, q ListUsersQuery) ([]*domain.User, store.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, store.Pagination{}, err
	}

	filter := store.UserFilter{Role: domain.Role(q.Role), Search: q.Search}
	users, meta, err := s.store.ListUsers(filter, store.Params{Page: q.Page, Limit: q.Limit})
	if err != nil {
		return nil, store.Pagination{}, err
	}

	public := make([]*domain.User, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	return public, meta, nil
}

// GetUser returns one user by ID. Admin only.
func (s *UserService) GetUser(ctx context.Context, actor access.Actor, userID string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

// UpdateUserRequest carries admin user updates.
type UpdateUserRequest struct {
	Name         string  `json:"name" validate:"omitempty,max=200"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Role         string  `json:"role" validate:"omitempty,oneof=owner admin viewing agency client"`
	OwnerID      *string `json:"ownerId"`
	IsTeamMember *bool   `json:"isTeamMember"`
	Verified     *bool   `json:"verified"`
}

// UpdateUser applies admin changes to a user.
func (s *UserService) UpdateUser(ctx context.Context, actor access.Actor, userID string, req UpdateUserRequest) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUser(userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = domain.Role(req.Role)
	}
	if req.OwnerID != nil {
		user.OwnerID = *req.OwnerID
	}
	if req.IsTeamMember != nil {
		user.IsTeamMember = *req.IsTeamMember
	}
	if req.Verified != nil {
		user.Verified = *req.Verified
	}
	user.Touch()

	if err := s.store.UpdateUser(user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user.Public(), nil
}

// DeleteUser removes a user. Admin only; self-deletion is refused.
func (s *UserService) DeleteUser(ctx context.Context, actor access.Actor, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == userID {
		return domainerrors.Validation("cannot delete your own account")
	}

	if err := s.store.DeleteUser(userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("User deleted", "user_id", userID, "deleted_by", actor.ID)
	return nil
}

// ListAgencyClients returns the client users belonging to the agency
// actor (or, for admins, to the agency given by ownerID).
func (s *UserService) ListAgencyClients(ctx context.Context, actor access.Actor, ownerID string, page, limit int) ([]*domain.User, store.Pagination, error) {
	if actor.Anonymous() {
		return nil, store.Pagination{}, domainerrors.Unauthorized("authentication required")
	}

	switch actor.Role {
	case domain.RoleAdmin, domain.RoleOwner:
		if ownerID == "" {
			return nil, store.Pagination{}, domainerrors.Validation("ownerId is required")
		}
	case domain.RoleAgency:
		ownerID = actor.ID
	default:
		return nil, store.Pagination{}, domainerrors.Forbidden("insufficient permissions")
	}

	filter := store.UserFilter{Role: domain.RoleClient, OwnerID: ownerID}
	users, meta, err := s.store.ListUsers(filter, store.Params{Page: page, Limit: limit})
	if err != nil {
		return nil, store.Pagination{}, err
	}

	public := make([]*domain.User, len(users))
	for i, u := range users {
		public[i] = u.Public()
	}
	return public, meta, nil
}

// requireAdmin rejects non-admin actors.
func requireAdmin(actor access.Actor) error {
	if actor.Anonymous() {
		return domainerrors.Unauthorized("authentication required")
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleOwner {
		return domainerrors.Forbidden("admin access required")
	}
	return nil
}

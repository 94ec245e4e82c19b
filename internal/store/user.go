package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
)

// Key prefixes for user records and their secondary indexes.
const (
	userPrefix     = "user:"
	userEmailIndex = "idx:users:email:"
)

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func userEmailKey(email string) []byte {
	return []byte(userEmailIndex + normalizeEmail(email))
}

// UserFilter narrows a user listing. Zero values match everything.
type UserFilter struct {
	Role    domain.Role
	OwnerID string
	Search  string // case-insensitive substring on name and email
}

func (f UserFilter) matches(u *domain.User) bool {
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if f.OwnerID != "" && u.OwnerID != f.OwnerID {
		return false
	}
	if f.Search != "" && !containsFold(u.Name, f.Search) && !containsFold(u.Email, f.Search) {
		return false
	}
	return true
}

// CreateUser persists a new user. The email index doubles as the
// uniqueness backstop: the check and the write share one transaction.
func (s *Store) CreateUser(user *domain.User) error {
	emailKey := userEmailKey(user.Email)

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey)
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, userKey(user.ID), user); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return err
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(id string) (*domain.User, error) {
	var user domain.User
	err := s.get(userKey(id), &user)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email via the email index.
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &user)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// UpdateUser persists changes to a user, keeping the email index in step
// when the address changes.
func (s *Store) UpdateUser(user *domain.User) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var existing domain.User
		if err := getJSON(txn, userKey(user.ID), &existing); err != nil {
			return err
		}

		oldEmail := normalizeEmail(existing.Email)
		newEmail := normalizeEmail(user.Email)
		if oldEmail != newEmail {
			_, err := txn.Get(userEmailKey(user.Email))
			if err == nil {
				return ErrEmailTaken
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(userEmailKey(existing.Email)); err != nil {
				return err
			}
			if err := txn.Set(userEmailKey(user.Email), []byte(user.ID)); err != nil {
				return err
			}
		}

		return setJSON(txn, userKey(user.ID), user)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrUserNotFound
	}
	if errors.Is(err, ErrEmailTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user and its email index entry.
func (s *Store) DeleteUser(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var user domain.User
		if err := getJSON(txn, userKey(id), &user); err != nil {
			return err
		}
		if err := txn.Delete(userEmailKey(user.Email)); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// ListUsers returns the page of users matching the filter, newest first.
func (s *Store) ListUsers(filter UserFilter, params Params) ([]*domain.User, Pagination, error) {
	var users []*domain.User
	err := scanPrefix(s, userPrefix, func(u *domain.User) bool {
		if filter.matches(u) {
			users = append(users, u)
		}
		return true
	})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list users: %w", err)
	}

	sortNewestFirst(users, func(u *domain.User) *domain.Record { return &u.Record })
	page, meta := paginate(users, params)
	return page, meta, nil
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers() (int, error) {
	return s.countPrefix(userPrefix)
}

// sortNewestFirst orders records by creation time descending, breaking
// ties on ID so pagination stays stable.
func sortNewestFirst[T any](items []T, rec func(T) *domain.Record) {
	sort.Slice(items, func(i, j int) bool {
		a, b := rec(items[i]), rec(items[j])
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

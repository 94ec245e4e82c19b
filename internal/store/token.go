package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
)

// Key prefixes for token records and the value lookup index.
const (
	tokenPrefix     = "token:"
	tokenValueIndex = "idx:tokens:value:"
)

func tokenKey(id string) []byte {
	return []byte(tokenPrefix + id)
}

func tokenValueKey(value string) []byte {
	return []byte(tokenValueIndex + value)
}

// CreateToken persists a new token.
func (s *Store) CreateToken(token *domain.Token) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, tokenKey(token.ID), token); err != nil {
			return err
		}
		return txn.Set(tokenValueKey(token.Value), []byte(token.ID))
	})
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// GetTokenByValue looks a token up by its opaque value. Expiry is the
// caller's concern.
func (s *Store) GetTokenByValue(value string) (*domain.Token, error) {
	var token domain.Token
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenValueKey(value))
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
		return getJSON(txn, tokenKey(id), &token)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes a token and its value index entry. Missing tokens
// are not an error; deletion is idempotent.
func (s *Store) DeleteToken(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var token domain.Token
		if err := getJSON(txn, tokenKey(id), &token); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		if err := txn.Delete(tokenValueKey(token.Value)); err != nil {
			return err
		}
		return txn.Delete(tokenKey(id))
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes every token whose expiry has passed at the
// given instant. Returns the number removed. Run by the background
// reaper; reads also delete expired tokens opportunistically.
func (s *Store) DeleteExpiredTokens(now time.Time) (int, error) {
	var expired []*domain.Token
	err := scanPrefix(s, tokenPrefix, func(t *domain.Token) bool {
		if t.IsExpired(now) {
			expired = append(expired, t)
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired tokens: %w", err)
	}

	removed := 0
	for _, t := range expired {
		if err := s.DeleteToken(t.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// RedeemClientInvitation performs the invitation redemption as a single
// transaction: create the client user, link the SEO account's client
// reference, and destroy the token. Either every step commits or none
// does; a crash mid-redemption leaves the token intact and redeemable.
//
// The caller validates the token's kind and expiry beforehand; the
// transaction re-checks existence and the email's availability so
// concurrent redemptions cannot double-spend the token or the address.
//
// Any user holding the email blocks redemption, verified or not. An
// unverified holder cannot log in, but letting an invitee claim their
// address would need a takeover flow, and the unique email index admits
// one record per address either way.
func (s *Store) RedeemClientInvitation(token *domain.Token, user *domain.User) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		// Token must still exist; a concurrent redemption deletes it.
		if _, err := txn.Get(tokenValueKey(token.Value)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTokenNotFound
			}
			return err
		}

		emailKey := userEmailKey(user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		var acct domain.SeoAccount
		if err := getJSON(txn, accountKey(token.SeoAccountID), &acct); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if err := setJSON(txn, userKey(user.ID), user); err != nil {
			return err
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}

		if acct.ClientUserID != "" {
			if err := txn.Delete(accountClientKey(acct.ClientUserID, acct.ID)); err != nil {
				return err
			}
		}
		acct.ClientUserID = user.ID
		acct.Touch()
		if err := setJSON(txn, accountKey(acct.ID), &acct); err != nil {
			return err
		}
		if err := txn.Set(accountClientKey(user.ID, acct.ID), []byte(acct.ID)); err != nil {
			return err
		}

		if err := txn.Delete(tokenValueKey(token.Value)); err != nil {
			return err
		}
		return txn.Delete(tokenKey(token.ID))
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrAccountNotFound) {
			return err
		}
		return fmt.Errorf("redeem invitation: %w", err)
	}
	return nil
}

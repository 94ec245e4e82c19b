package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
)

// Key prefixes for SEO account records and their secondary indexes. The
// owner, agency and client indexes back the ownership-scope queries; the
// domain index is the global uniqueness backstop.
const (
	accountPrefix      = "account:"
	accountDomainIndex = "idx:accounts:domain:"
	accountOwnerIndex  = "idx:accounts:owner:"
	accountAgencyIndex = "idx:accounts:agency:"
	accountClientIndex = "idx:accounts:client:"
)

func accountKey(id string) []byte {
	return []byte(accountPrefix + id)
}

func accountDomainKey(domainName string) []byte {
	return []byte(accountDomainIndex + domain.NormalizeDomain(domainName))
}

func accountOwnerKey(ownerID, accountID string) []byte {
	return []byte(accountOwnerIndex + ownerID + ":" + accountID)
}

func accountAgencyKey(agencyID, accountID string) []byte {
	return []byte(accountAgencyIndex + agencyID + ":" + accountID)
}

func accountClientKey(clientUserID, accountID string) []byte {
	return []byte(accountClientIndex + clientUserID + ":" + accountID)
}

// setAccountRefIndexes writes the nullable ownership index entries.
func setAccountRefIndexes(txn *badger.Txn, acct *domain.SeoAccount) error {
	if acct.OwnerID != "" {
		if err := txn.Set(accountOwnerKey(acct.OwnerID, acct.ID), []byte(acct.ID)); err != nil {
			return err
		}
	}
	if acct.AssignedAgencyID != "" {
		if err := txn.Set(accountAgencyKey(acct.AssignedAgencyID, acct.ID), []byte(acct.ID)); err != nil {
			return err
		}
	}
	if acct.ClientUserID != "" {
		if err := txn.Set(accountClientKey(acct.ClientUserID, acct.ID), []byte(acct.ID)); err != nil {
			return err
		}
	}
	return nil
}

// clearAccountRefIndexes removes the ownership index entries for the
// stored version of the account.
func clearAccountRefIndexes(txn *badger.Txn, acct *domain.SeoAccount) error {
	if acct.OwnerID != "" {
		if err := txn.Delete(accountOwnerKey(acct.OwnerID, acct.ID)); err != nil {
			return err
		}
	}
	if acct.AssignedAgencyID != "" {
		if err := txn.Delete(accountAgencyKey(acct.AssignedAgencyID, acct.ID)); err != nil {
			return err
		}
	}
	if acct.ClientUserID != "" {
		if err := txn.Delete(accountClientKey(acct.ClientUserID, acct.ID)); err != nil {
			return err
		}
	}
	return nil
}

// AccountFilter narrows an account listing. Zero values match everything.
type AccountFilter struct {
	Status domain.AccountStatus
	Niche  string
	Search string // case-insensitive substring on name and domain
}

func (f AccountFilter) matches(a *domain.SeoAccount) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Niche != "" && a.Niche != f.Niche {
		return false
	}
	if f.Search != "" && !containsFold(a.Name, f.Search) && !containsFold(a.Domain, f.Search) {
		return false
	}
	return true
}

// CreateAccount persists a new SEO account. The domain index check runs
// in the same transaction as the write, making domain uniqueness hold
// under concurrent creation.
func (s *Store) CreateAccount(acct *domain.SeoAccount) error {
	domainKey := accountDomainKey(acct.Domain)

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(domainKey)
		if err == nil {
			return ErrDomainTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, accountKey(acct.ID), acct); err != nil {
			return err
		}
		if err := txn.Set(domainKey, []byte(acct.ID)); err != nil {
			return err
		}
		return setAccountRefIndexes(txn, acct)
	})
	if err != nil {
		if errors.Is(err, ErrDomainTaken) {
			return err
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount retrieves an SEO account by ID.
func (s *Store) GetAccount(id string) (*domain.SeoAccount, error) {
	var acct domain.SeoAccount
	err := s.get(accountKey(id), &acct)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}

// UpdateAccount persists changes to an account, re-pointing the domain
// and ownership indexes when those fields change. The stored counters
// are preserved; counter movement goes through the child record
// transactions only.
func (s *Store) UpdateAccount(acct *domain.SeoAccount) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		var existing domain.SeoAccount
		if err := getJSON(txn, accountKey(acct.ID), &existing); err != nil {
			return err
		}

		acct.TotalBacklinks = existing.TotalBacklinks
		acct.TotalBlogPosts = existing.TotalBlogPosts

		if domain.NormalizeDomain(existing.Domain) != domain.NormalizeDomain(acct.Domain) {
			_, err := txn.Get(accountDomainKey(acct.Domain))
			if err == nil {
				return ErrDomainTaken
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(accountDomainKey(existing.Domain)); err != nil {
				return err
			}
			if err := txn.Set(accountDomainKey(acct.Domain), []byte(acct.ID)); err != nil {
				return err
			}
		}

		if err := clearAccountRefIndexes(txn, &existing); err != nil {
			return err
		}
		if err := setAccountRefIndexes(txn, acct); err != nil {
			return err
		}

		return setJSON(txn, accountKey(acct.ID), acct)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrAccountNotFound
	}
	if errors.Is(err, ErrDomainTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// DeleteAccount removes an account and all its index entries. Dependent
// blog posts and backlinks are the caller's concern; the service layer
// refuses the delete while any remain.
func (s *Store) DeleteAccount(id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var acct domain.SeoAccount
		if err := getJSON(txn, accountKey(id), &acct); err != nil {
			return err
		}
		if err := txn.Delete(accountDomainKey(acct.Domain)); err != nil {
			return err
		}
		if err := clearAccountRefIndexes(txn, &acct); err != nil {
			return err
		}
		return txn.Delete(accountKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// ListAccounts returns the page of accounts in scope matching the
// filter, newest first. An empty scope yields an empty page without a
// scan.
func (s *Store) ListAccounts(scope access.Scope, filter AccountFilter, params Params) ([]*domain.SeoAccount, Pagination, error) {
	if scope.Empty() {
		_, meta := paginate([]*domain.SeoAccount{}, params)
		return []*domain.SeoAccount{}, meta, nil
	}

	var accounts []*domain.SeoAccount
	err := scanPrefix(s, accountPrefix, func(a *domain.SeoAccount) bool {
		if scope.Contains(a.ID) && filter.matches(a) {
			accounts = append(accounts, a)
		}
		return true
	})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list accounts: %w", err)
	}

	sortNewestFirst(accounts, func(a *domain.SeoAccount) *domain.Record { return &a.Record })
	page, meta := paginate(accounts, params)
	return page, meta, nil
}

// AccountIDsOwnedOrAssigned returns the IDs of accounts the user owns
// or is assigned to as agency, via the ownership indexes.
func (s *Store) AccountIDsOwnedOrAssigned(userID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		owned, err := scanIndexIDs(txn, accountOwnerIndex+userID+":")
		if err != nil {
			return err
		}
		assigned, err := scanIndexIDs(txn, accountAgencyIndex+userID+":")
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(owned)+len(assigned))
		for _, id := range append(owned, assigned...) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("accounts for agency: %w", err)
	}
	return ids, nil
}

// AccountIDsForClient returns the IDs of accounts linked to the client
// user via invitation redemption.
func (s *Store) AccountIDsForClient(userID string) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = scanIndexIDs(txn, accountClientIndex+userID+":")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("accounts for client: %w", err)
	}
	return ids, nil
}

// CountAccounts returns the number of accounts in scope.
func (s *Store) CountAccounts(scope access.Scope) (int, error) {
	if scope.Empty() {
		return 0, nil
	}
	if scope.All() {
		return s.countPrefix(accountPrefix)
	}
	return scope.Len(), nil
}

// ForEachAccount visits every account. Iteration stops when fn returns
// false. Used by aggregations that need a full pass.
func (s *Store) ForEachAccount(fn func(*domain.SeoAccount) bool) error {
	return scanPrefix(s, accountPrefix, fn)
}

// bumpAccountCounters adjusts the denormalized child counters inside the
// caller's transaction, clamping at zero.
func bumpAccountCounters(txn *badger.Txn, accountID string, dBacklinks, dPosts int) error {
	var acct domain.SeoAccount
	if err := getJSON(txn, accountKey(accountID), &acct); err != nil {
		return err
	}
	acct.TotalBacklinks += dBacklinks
	if acct.TotalBacklinks < 0 {
		acct.TotalBacklinks = 0
	}
	acct.TotalBlogPosts += dPosts
	if acct.TotalBlogPosts < 0 {
		acct.TotalBlogPosts = 0
	}
	acct.Touch()
	return setJSON(txn, accountKey(accountID), &acct)
}

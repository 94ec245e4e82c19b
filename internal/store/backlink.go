package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
)

// Key prefixes for backlink records and their secondary index.
const (
	backlinkPrefix       = "backlink:"
	backlinkAccountIndex = "idx:backlinks:account:"
)

func backlinkKey(id string) []byte {
	return []byte(backlinkPrefix + id)
}

func backlinkAccountKey(accountID, backlinkID string) []byte {
	return []byte(backlinkAccountIndex + accountID + ":" + backlinkID)
}

// BacklinkFilter narrows a backlink listing. Zero values match everything.
type BacklinkFilter struct {
	Status       domain.BacklinkStatus
	LinkType     domain.LinkType
	SeoAccountID string
	Search       string // case-insensitive substring on source URL, domain and anchor
}

func (f BacklinkFilter) matches(b *domain.Backlink) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.LinkType != "" && b.LinkType != f.LinkType {
		return false
	}
	if f.SeoAccountID != "" && b.SeoAccountID != f.SeoAccountID {
		return false
	}
	if f.Search != "" &&
		!containsFold(b.SourceURL, f.Search) &&
		!containsFold(b.SourceDomain, f.Search) &&
		!containsFold(b.Anchor, f.Search) {
		return false
	}
	return true
}

// CreateBacklink persists a new backlink and bumps the owning account's
// backlink counter in the same conflict-retried transaction.
func (s *Store) CreateBacklink(link *domain.Backlink) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		if err := setJSON(txn, backlinkKey(link.ID), link); err != nil {
			return err
		}
		if err := txn.Set(backlinkAccountKey(link.SeoAccountID, link.ID), []byte(link.ID)); err != nil {
			return err
		}
		return bumpAccountCounters(txn, link.SeoAccountID, +1, 0)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("create backlink: %w", err)
	}
	return nil
}

// GetBacklink retrieves a backlink by ID.
func (s *Store) GetBacklink(id string) (*domain.Backlink, error) {
	var link domain.Backlink
	err := s.get(backlinkKey(id), &link)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBacklinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get backlink: %w", err)
	}
	return &link, nil
}

// UpdateBacklink persists changes to a backlink. An account move adjusts
// both accounts' counters.
func (s *Store) UpdateBacklink(link *domain.Backlink) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		var existing domain.Backlink
		if err := getJSON(txn, backlinkKey(link.ID), &existing); err != nil {
			return err
		}

		if existing.SeoAccountID != link.SeoAccountID {
			if err := txn.Delete(backlinkAccountKey(existing.SeoAccountID, link.ID)); err != nil {
				return err
			}
			if err := bumpAccountCounters(txn, existing.SeoAccountID, -1, 0); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Set(backlinkAccountKey(link.SeoAccountID, link.ID), []byte(link.ID)); err != nil {
				return err
			}
			if err := bumpAccountCounters(txn, link.SeoAccountID, +1, 0); err != nil {
				return err
			}
		}

		return setJSON(txn, backlinkKey(link.ID), link)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrBacklinkNotFound
	}
	if err != nil {
		return fmt.Errorf("update backlink: %w", err)
	}
	return nil
}

// DeleteBacklink removes a backlink, its index entry, and decrements the
// owning account's counter.
func (s *Store) DeleteBacklink(id string) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		var link domain.Backlink
		if err := getJSON(txn, backlinkKey(id), &link); err != nil {
			return err
		}
		if err := txn.Delete(backlinkAccountKey(link.SeoAccountID, id)); err != nil {
			return err
		}
		if err := bumpAccountCounters(txn, link.SeoAccountID, -1, 0); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Delete(backlinkKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrBacklinkNotFound
	}
	if err != nil {
		return fmt.Errorf("delete backlink: %w", err)
	}
	return nil
}

// ListBacklinks returns the page of backlinks in scope matching the
// filter, newest first.
func (s *Store) ListBacklinks(scope access.Scope, filter BacklinkFilter, params Params) ([]*domain.Backlink, Pagination, error) {
	if scope.Empty() {
		_, meta := paginate([]*domain.Backlink{}, params)
		return []*domain.Backlink{}, meta, nil
	}

	var links []*domain.Backlink
	err := scanPrefix(s, backlinkPrefix, func(b *domain.Backlink) bool {
		inScope := scope.All() || scope.Contains(b.SeoAccountID)
		if inScope && filter.matches(b) {
			links = append(links, b)
		}
		return true
	})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list backlinks: %w", err)
	}

	sortNewestFirst(links, func(b *domain.Backlink) *domain.Record { return &b.Record })
	page, meta := paginate(links, params)
	return page, meta, nil
}

// BacklinksByAccount returns all backlinks owned by an account, for the
// summary aggregation.
func (s *Store) BacklinksByAccount(accountID string) ([]*domain.Backlink, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = scanIndexIDs(txn, backlinkAccountIndex+accountID+":")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("backlinks by account: %w", err)
	}

	links := make([]*domain.Backlink, 0, len(ids))
	for _, id := range ids {
		link, err := s.GetBacklink(id)
		if errors.Is(err, ErrBacklinkNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// CountBacklinksByAccount counts an account's backlinks via the index,
// for dependency checks on account deletion.
func (s *Store) CountBacklinksByAccount(accountID string) (int, error) {
	return s.countPrefix(backlinkAccountIndex + accountID + ":")
}

// CountBacklinks returns the number of backlinks visible to the scope.
func (s *Store) CountBacklinks(scope access.Scope) (int, error) {
	if scope.Empty() {
		return 0, nil
	}
	if scope.All() {
		return s.countPrefix(backlinkPrefix)
	}
	total := 0
	for _, id := range scope.IDs() {
		n, err := s.countPrefix(backlinkAccountIndex + id + ":")
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

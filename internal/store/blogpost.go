package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
)

// Key prefixes for blog post records and their secondary indexes.
const (
	postPrefix       = "post:"
	postSlugIndex    = "idx:posts:slug:"
	postAccountIndex = "idx:posts:account:"
)

func postKey(id string) []byte {
	return []byte(postPrefix + id)
}

func postSlugKey(slug string) []byte {
	return []byte(postSlugIndex + slug)
}

func postAccountKey(accountID, postID string) []byte {
	return []byte(postAccountIndex + accountID + ":" + postID)
}

// PostFilter narrows a blog post listing. Zero values match everything.
type PostFilter struct {
	Status       domain.PostStatus
	SeoAccountID string
	Search       string // case-insensitive substring on title
}

func (f PostFilter) matches(p *domain.BlogPost) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.SeoAccountID != "" && p.SeoAccountID != f.SeoAccountID {
		return false
	}
	if f.Search != "" && !containsFold(p.Title, f.Search) {
		return false
	}
	return true
}

// SlugTaken reports whether a slug is already indexed. The service probes
// candidate slugs with this before writing; the slug index inside
// CreatePost is the uniqueness backstop for races between probes.
func (s *Store) SlugTaken(slug string) (bool, error) {
	return s.exists(postSlugKey(slug))
}

// CreatePost persists a new blog post and bumps the owning account's
// post counter in the same conflict-retried transaction.
func (s *Store) CreatePost(post *domain.BlogPost) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		_, err := txn.Get(postSlugKey(post.Slug))
		if err == nil {
			return ErrSlugTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, postKey(post.ID), post); err != nil {
			return err
		}
		if err := txn.Set(postSlugKey(post.Slug), []byte(post.ID)); err != nil {
			return err
		}
		if post.SeoAccountID != "" {
			if err := txn.Set(postAccountKey(post.SeoAccountID, post.ID), []byte(post.ID)); err != nil {
				return err
			}
			if err := bumpAccountCounters(txn, post.SeoAccountID, 0, +1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return err
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPost retrieves a blog post by ID.
func (s *Store) GetPost(id string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	err := s.get(postKey(id), &post)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// UpdatePost persists changes to a blog post. The slug index follows a
// slug change; an account move adjusts both accounts' counters.
func (s *Store) UpdatePost(post *domain.BlogPost) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		var existing domain.BlogPost
		if err := getJSON(txn, postKey(post.ID), &existing); err != nil {
			return err
		}

		if existing.Slug != post.Slug {
			_, err := txn.Get(postSlugKey(post.Slug))
			if err == nil {
				return ErrSlugTaken
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete(postSlugKey(existing.Slug)); err != nil {
				return err
			}
			if err := txn.Set(postSlugKey(post.Slug), []byte(post.ID)); err != nil {
				return err
			}
		}

		if existing.SeoAccountID != post.SeoAccountID {
			if existing.SeoAccountID != "" {
				if err := txn.Delete(postAccountKey(existing.SeoAccountID, post.ID)); err != nil {
					return err
				}
				if err := bumpAccountCounters(txn, existing.SeoAccountID, 0, -1); err != nil {
					return err
				}
			}
			if post.SeoAccountID != "" {
				if err := txn.Set(postAccountKey(post.SeoAccountID, post.ID), []byte(post.ID)); err != nil {
					return err
				}
				if err := bumpAccountCounters(txn, post.SeoAccountID, 0, +1); err != nil {
					return err
				}
			}
		}

		return setJSON(txn, postKey(post.ID), post)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrPostNotFound
	}
	if errors.Is(err, ErrSlugTaken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// DeletePost removes a blog post, its index entries, and decrements the
// owning account's post counter.
func (s *Store) DeletePost(id string) error {
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		var post domain.BlogPost
		if err := getJSON(txn, postKey(id), &post); err != nil {
			return err
		}
		if err := txn.Delete(postSlugKey(post.Slug)); err != nil {
			return err
		}
		if post.SeoAccountID != "" {
			if err := txn.Delete(postAccountKey(post.SeoAccountID, id)); err != nil {
				return err
			}
			// The account may already be gone for legacy records.
			if err := bumpAccountCounters(txn, post.SeoAccountID, 0, -1); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return txn.Delete(postKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// ListPosts returns the page of blog posts in scope matching the filter,
// newest first. Posts without an owning account are visible only to the
// unfiltered scope.
func (s *Store) ListPosts(scope access.Scope, filter PostFilter, params Params) ([]*domain.BlogPost, Pagination, error) {
	if scope.Empty() {
		_, meta := paginate([]*domain.BlogPost{}, params)
		return []*domain.BlogPost{}, meta, nil
	}

	var posts []*domain.BlogPost
	err := scanPrefix(s, postPrefix, func(p *domain.BlogPost) bool {
		inScope := scope.All() || scope.Contains(p.SeoAccountID)
		if inScope && filter.matches(p) {
			posts = append(posts, p)
		}
		return true
	})
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list posts: %w", err)
	}

	sortNewestFirst(posts, func(p *domain.BlogPost) *domain.Record { return &p.Record })
	page, meta := paginate(posts, params)
	return page, meta, nil
}

// ForEachPost visits every blog post. Iteration stops when fn returns
// false.
func (s *Store) ForEachPost(fn func(*domain.BlogPost) bool) error {
	return scanPrefix(s, postPrefix, fn)
}

// CountPostsByAccount counts the posts owned by an account via the
// account index, for dependency checks on account deletion.
func (s *Store) CountPostsByAccount(accountID string) (int, error) {
	return s.countPrefix(postAccountIndex + accountID + ":")
}

// CountPosts returns the number of posts visible to the scope.
func (s *Store) CountPosts(scope access.Scope) (int, error) {
	if scope.Empty() {
		return 0, nil
	}
	if scope.All() {
		return s.countPrefix(postPrefix)
	}
	total := 0
	for _, id := range scope.IDs() {
		n, err := s.countPrefix(postAccountIndex + id + ":")
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

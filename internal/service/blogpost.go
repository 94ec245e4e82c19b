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

// slugProbeLimit bounds the suffix search on slug collision.
const slugProbeLimit = 100

// BlogPostService is the gateway for blog posts.
type BlogPostService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewBlogPostService creates a new blog post service.
func NewBlogPostService(st *store.Store, logger *slog.Logger) *BlogPostService {
	return &BlogPostService{store: st, logger: logger}
}

// CreatePostRequest carries blog post creation data.
type CreatePostRequest struct {
	Title        string `json:"title" validate:"required,max=300"`
	Content      string `json:"content"`
	Excerpt      string `json:"excerpt" validate:"omitempty,max=500"`
	Status       string `json:"status" validate:"omitempty,oneof=draft published scheduled"`
	SeoAccountID string `json:"seoAccountId"`
}

// Create validates and persists a new blog post. The slug derives from
// the title; collisions probe increasing numeric suffixes, with the
// store's slug index as the backstop for concurrent probes of the same
// title.
func (s *BlogPostService) Create(ctx context.Context, actor access.Actor, req CreatePostRequest) (*domain.BlogPost, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if req.SeoAccountID != "" {
		account, err := s.store.GetAccount(req.SeoAccountID)
		if err != nil {
			if errors.Is(err, store.ErrAccountNotFound) {
				return nil, domainerrors.NotFound("seo account not found")
			}
			return nil, fmt.Errorf("get account: %w", err)
		}
		if !access.CanAccess(actor, access.OwnersOf(account), access.ActionWrite) {
			return nil, accessDenied(actor, "you do not have access to this account")
		}
	}

	status := domain.PostStatus(req.Status)
	if status == "" {
		status = domain.PostStatusDraft
	}

	postID, err := id.Generate("post")
	if err != nil {
		return nil, fmt.Errorf("generate post ID: %w", err)
	}

	post := &domain.BlogPost{
		Title:        req.Title,
		Content:      req.Content,
		Excerpt:      req.Excerpt,
		Status:       status,
		SeoAccountID: req.SeoAccountID,
	}
	post.ID = postID
	post.InitTimestamps()
	if !actor.Anonymous() {
		post.AuthorID = actor.ID
	}

	base := slugify(req.Title)
	slug, err := s.uniqueSlug(base)
	if err != nil {
		return nil, err
	}
	post.Slug = slug

	// A concurrent create may have claimed the probed slug; advance the
	// suffix and try again.
	for attempt := 0; ; attempt++ {
		err := s.store.CreatePost(post)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrSlugTaken) && attempt < slugProbeLimit {
			slug, probeErr := s.uniqueSlug(base)
			if probeErr != nil {
				return nil, probeErr
			}
			post.Slug = slug
			continue
		}
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("seo account not found")
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("Blog post created", "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

// uniqueSlug probes base, base-1, base-2, ... until a free slug is found.
func (s *BlogPostService) uniqueSlug(base string) (string, error) {
	candidate := base
	for i := 1; i <= slugProbeLimit; i++ {
		taken, err := s.store.SlugTaken(candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", domainerrors.Conflictf("could not find a free slug for %q", base)
}

// ListPostsQuery narrows a blog post listing.
type ListPostsQuery struct {
	Status       string
	SeoAccountID string
	Search       string
	Page         int
	Limit        int
}

// List returns the page of blog posts in the actor's scope.
func (s *BlogPostService) List(ctx context.Context, actor access.Actor, q ListPostsQuery) ([]*domain.BlogPost, store.Pagination, error) {
	scope, err := accountScope(s.store, actor)
	if err != nil {
		return nil, store.Pagination{}, err
	}

	filter := store.PostFilter{
		Status:       domain.PostStatus(q.Status),
		SeoAccountID: q.SeoAccountID,
		Search:       q.Search,
	}
	return s.store.ListPosts(scope, filter, store.Params{Page: q.Page, Limit: q.Limit})
}

// Get returns one post after resolving its owning account for the
// ownership check.
func (s *BlogPostService) Get(ctx context.Context, actor access.Actor, postID string) (*domain.BlogPost, error) {
	post, err := s.loadPost(postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, post, access.ActionRead); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePostRequest carries blog post updates. Author, counters and
// timestamps are not patchable.
type UpdatePostRequest struct {
	Title        string  `json:"title" validate:"omitempty,max=300"`
	Content      *string `json:"content"`
	Excerpt      *string `json:"excerpt" validate:"omitempty,max=500"`
	Status       string  `json:"status" validate:"omitempty,oneof=draft published scheduled"`
	SeoAccountID *string `json:"seoAccountId"`
}

// Update applies a patch to a post after an ownership check. A title
// change regenerates the slug.
func (s *BlogPostService) Update(ctx context.Context, actor access.Actor, postID string, req UpdatePostRequest) (*domain.BlogPost, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	post, err := s.loadPost(postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, post, access.ActionWrite); err != nil {
		return nil, err
	}

	if req.SeoAccountID != nil && *req.SeoAccountID != post.SeoAccountID {
		if *req.SeoAccountID != "" {
			target, err := s.store.GetAccount(*req.SeoAccountID)
			if err != nil {
				if errors.Is(err, store.ErrAccountNotFound) {
					return nil, domainerrors.NotFound("seo account not found")
				}
				return nil, fmt.Errorf("get account: %w", err)
			}
			if !access.CanAccess(actor, access.OwnersOf(target), access.ActionWrite) {
				return nil, accessDenied(actor, "you do not have access to this account")
			}
		}
		post.SeoAccountID = *req.SeoAccountID
	}

	if req.Title != "" && req.Title != post.Title {
		post.Title = req.Title
		slug, err := s.uniqueSlug(slugify(req.Title))
		if err != nil {
			return nil, err
		}
		post.Slug = slug
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Status != "" {
		post.Status = domain.PostStatus(req.Status)
	}
	post.Touch()

	if err := s.store.UpdatePost(post); err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			return nil, domainerrors.Conflict("slug already in use")
		}
		if errors.Is(err, store.ErrPostNotFound) {
			return nil, domainerrors.NotFound("blog post not found")
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// Delete removes a post after an ownership check.
func (s *BlogPostService) Delete(ctx context.Context, actor access.Actor, postID string) error {
	post, err := s.loadPost(postID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, post, access.ActionDelete); err != nil {
		return err
	}

	if err := s.store.DeletePost(postID); err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			return domainerrors.NotFound("blog post not found")
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info("Blog post deleted", "post_id", postID, "deleted_by", actor.ID)
	return nil
}

// authorize checks the actor against the post's owning account. Legacy
// posts without an account are admin-only for mutations.
func (s *BlogPostService) authorize(actor access.Actor, post *domain.BlogPost, action access.Action) error {
	owners := access.ResourceOwners{}
	if post.SeoAccountID != "" {
		account, err := s.store.GetAccount(post.SeoAccountID)
		if err != nil && !errors.Is(err, store.ErrAccountNotFound) {
			return fmt.Errorf("get account: %w", err)
		}
		if err == nil {
			owners = access.OwnersOf(account)
		}
	}
	if !access.CanAccess(actor, owners, action) {
		return accessDenied(actor, "you do not have access to this blog post")
	}
	return nil
}

// loadPost fetches a post, mapping absence to NotFound.
func (s *BlogPostService) loadPost(postID string) (*domain.BlogPost, error) {
	post, err := s.store.GetPost(postID)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			return nil, domainerrors.NotFound("blog post not found")
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/net/publicsuffix"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/id"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// BacklinkService is the gateway for backlinks.
type BacklinkService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewBacklinkService creates a new backlink service.
func NewBacklinkService(st *store.Store, logger *slog.Logger) *BacklinkService {
	return &BacklinkService{store: st, logger: logger}
}

// CreateBacklinkRequest carries backlink creation data.
type CreateBacklinkRequest struct {
	SeoAccountID string `json:"seoAccountId" validate:"required"`
	SourceURL    string `json:"sourceUrl" validate:"required"`
	TargetURL    string `json:"targetUrl" validate:"omitempty,url"`
	Anchor       string `json:"anchor" validate:"omitempty,max=500"`
	LinkType     string `json:"linkType" validate:"omitempty,oneof=dofollow nofollow sponsored"`
	Status       string `json:"status" validate:"omitempty,oneof=pending live lost"`
}

// Create validates and persists a new backlink. The source domain
// derives from the source URL; URLs with no usable host are rejected
// here at the gateway.
func (s *BacklinkService) Create(ctx context.Context, actor access.Actor, req CreateBacklinkRequest) (*domain.Backlink, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	sourceDomain, ok := domain.SourceDomainFromURL(req.SourceURL)
	if !ok {
		return nil, domainerrors.Validation("sourceUrl must contain a valid host")
	}

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

	linkType := domain.LinkType(req.LinkType)
	if linkType == "" {
		linkType = domain.LinkTypeDofollow
	}
	status := domain.BacklinkStatus(req.Status)
	if status == "" {
		status = domain.BacklinkStatusPending
	}

	linkID, err := id.Generate("link")
	if err != nil {
		return nil, fmt.Errorf("generate backlink ID: %w", err)
	}

	link := &domain.Backlink{
		SeoAccountID: req.SeoAccountID,
		SourceURL:    req.SourceURL,
		SourceDomain: sourceDomain,
		TargetURL:    req.TargetURL,
		Anchor:       req.Anchor,
		LinkType:     linkType,
		Status:       status,
	}
	link.ID = linkID
	link.InitTimestamps()

	if err := s.store.CreateBacklink(link); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("seo account not found")
		}
		return nil, fmt.Errorf("create backlink: %w", err)
	}

	s.logger.Info("Backlink created", "backlink_id", link.ID, "account_id", link.SeoAccountID)
	return link, nil
}

// ListBacklinksQuery narrows a backlink listing.
type ListBacklinksQuery struct {
	Status       string
	LinkType     string
	SeoAccountID string
	Search       string
	Page         int
	Limit        int
}

// List returns the page of backlinks in the actor's scope.
func (s *BacklinkService) List(ctx context.Context, actor access.Actor, q ListBacklinksQuery) ([]*domain.Backlink, store.Pagination, error) {
	scope, err := accountScope(s.store, actor)
	if err != nil {
		return nil, store.Pagination{}, err
	}

	filter := store.BacklinkFilter{
		Status:       domain.BacklinkStatus(q.Status),
		LinkType:     domain.LinkType(q.LinkType),
		SeoAccountID: q.SeoAccountID,
		Search:       q.Search,
	}
	return s.store.ListBacklinks(scope, filter, store.Params{Page: q.Page, Limit: q.Limit})
}

// ListByAccount returns the page of backlinks for one account after an
// ownership check on that account.
func (s *BacklinkService) ListByAccount(ctx context.Context, actor access.Actor, accountID string, q ListBacklinksQuery) ([]*domain.Backlink, store.Pagination, error) {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return nil, store.Pagination{}, err
	}
	if !access.CanAccess(actor, access.OwnersOf(account), access.ActionRead) {
		return nil, store.Pagination{}, accessDenied(actor, "you do not have access to this account")
	}

	filter := store.BacklinkFilter{
		Status:   domain.BacklinkStatus(q.Status),
		LinkType: domain.LinkType(q.LinkType),
		Search:   q.Search,
	}
	return s.store.ListBacklinks(access.Accounts(accountID), filter, store.Params{Page: q.Page, Limit: q.Limit})
}

// Get returns one backlink after resolving its owning account for the
// ownership check.
func (s *BacklinkService) Get(ctx context.Context, actor access.Actor, linkID string) (*domain.Backlink, error) {
	link, err := s.loadBacklink(linkID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, link, access.ActionRead); err != nil {
		return nil, err
	}
	return link, nil
}

// UpdateBacklinkRequest carries backlink updates.
type UpdateBacklinkRequest struct {
	SourceURL string  `json:"sourceUrl"`
	TargetURL *string `json:"targetUrl" validate:"omitempty"`
	Anchor    *string `json:"anchor" validate:"omitempty"`
	LinkType  string  `json:"linkType" validate:"omitempty,oneof=dofollow nofollow sponsored"`
	Status    string  `json:"status" validate:"omitempty,oneof=pending live lost"`
}

// Update applies a patch to a backlink after an ownership check. A new
// source URL re-derives the source domain.
func (s *BacklinkService) Update(ctx context.Context, actor access.Actor, linkID string, req UpdateBacklinkRequest) (*domain.Backlink, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	link, err := s.loadBacklink(linkID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, link, access.ActionWrite); err != nil {
		return nil, err
	}

	if req.SourceURL != "" {
		sourceDomain, ok := domain.SourceDomainFromURL(req.SourceURL)
		if !ok {
			return nil, domainerrors.Validation("sourceUrl must contain a valid host")
		}
		link.SourceURL = req.SourceURL
		link.SourceDomain = sourceDomain
	}
	if req.TargetURL != nil {
		link.TargetURL = *req.TargetURL
	}
	if req.Anchor != nil {
		link.Anchor = *req.Anchor
	}
	if req.LinkType != "" {
		link.LinkType = domain.LinkType(req.LinkType)
	}
	if req.Status != "" {
		link.Status = domain.BacklinkStatus(req.Status)
	}
	link.Touch()

	if err := s.store.UpdateBacklink(link); err != nil {
		if errors.Is(err, store.ErrBacklinkNotFound) {
			return nil, domainerrors.NotFound("backlink not found")
		}
		return nil, fmt.Errorf("update backlink: %w", err)
	}
	return link, nil
}

// Delete removes a backlink after an ownership check.
func (s *BacklinkService) Delete(ctx context.Context, actor access.Actor, linkID string) error {
	link, err := s.loadBacklink(linkID)
	if err != nil {
		return err
	}
	if err := s.authorize(actor, link, access.ActionDelete); err != nil {
		return err
	}

	if err := s.store.DeleteBacklink(linkID); err != nil {
		if errors.Is(err, store.ErrBacklinkNotFound) {
			return domainerrors.NotFound("backlink not found")
		}
		return fmt.Errorf("delete backlink: %w", err)
	}

	s.logger.Info("Backlink deleted", "backlink_id", linkID, "deleted_by", actor.ID)
	return nil
}

// DomainCount is one referring domain in a backlink summary.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// BacklinkSummary aggregates an account's backlinks by status, link type
// and referring registrable domain. This is the one place counts are
// recomputed from the records instead of the cached counters.
type BacklinkSummary struct {
	SeoAccountID     string         `json:"seoAccountId"`
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	ByLinkType       map[string]int `json:"byLinkType"`
	ReferringDomains []DomainCount  `json:"referringDomains"`
}

// Summary aggregates the backlinks of one account after an ownership
// check. Referring domains group by registrable domain (eTLD+1), so
// blog.example.co.uk and www.example.co.uk count as one referrer.
func (s *BacklinkService) Summary(ctx context.Context, actor access.Actor, accountID string) (*BacklinkSummary, error) {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(actor, access.OwnersOf(account), access.ActionRead) {
		return nil, accessDenied(actor, "you do not have access to this account")
	}

	links, err := s.store.BacklinksByAccount(accountID)
	if err != nil {
		return nil, err
	}

	summary := &BacklinkSummary{
		SeoAccountID: accountID,
		Total:        len(links),
		ByStatus:     make(map[string]int),
		ByLinkType:   make(map[string]int),
	}

	referrers := make(map[string]int)
	for _, link := range links {
		summary.ByStatus[string(link.Status)]++
		summary.ByLinkType[string(link.LinkType)]++

		referrer := link.SourceDomain
		if etld, err := publicsuffix.EffectiveTLDPlusOne(link.SourceDomain); err == nil {
			referrer = etld
		}
		if referrer != "" {
			referrers[referrer]++
		}
	}

	summary.ReferringDomains = make([]DomainCount, 0, len(referrers))
	for d, n := range referrers {
		summary.ReferringDomains = append(summary.ReferringDomains, DomainCount{Domain: d, Count: n})
	}
	sort.Slice(summary.ReferringDomains, func(i, j int) bool {
		a, b := summary.ReferringDomains[i], summary.ReferringDomains[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Domain < b.Domain
	})

	return summary, nil
}

// authorize checks the actor against the backlink's owning account.
func (s *BacklinkService) authorize(actor access.Actor, link *domain.Backlink, action access.Action) error {
	owners := access.ResourceOwners{}
	account, err := s.store.GetAccount(link.SeoAccountID)
	if err != nil && !errors.Is(err, store.ErrAccountNotFound) {
		return fmt.Errorf("get account: %w", err)
	}
	if err == nil {
		owners = access.OwnersOf(account)
	}
	if !access.CanAccess(actor, owners, action) {
		return accessDenied(actor, "you do not have access to this backlink")
	}
	return nil
}

// loadBacklink fetches a backlink, mapping absence to NotFound.
func (s *BacklinkService) loadBacklink(linkID string) (*domain.Backlink, error) {
	link, err := s.store.GetBacklink(linkID)
	if err != nil {
		if errors.Is(err, store.ErrBacklinkNotFound) {
			return nil, domainerrors.NotFound("backlink not found")
		}
		return nil, fmt.Errorf("get backlink: %w", err)
	}
	return link, nil
}

// loadAccount fetches an account, mapping absence to NotFound.
func (s *BacklinkService) loadAccount(accountID string) (*domain.SeoAccount, error) {
	account, err := s.store.GetAccount(accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, domainerrors.NotFound("seo account not found")
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// activityFeedSize is how many recent records of each kind the activity
// endpoint returns.
const activityFeedSize = 5

// DashboardService aggregates simple counts and recency feeds over the
// actor's scope.
type DashboardService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(st *store.Store, logger *slog.Logger) *DashboardService {
	return &DashboardService{store: st, logger: logger}
}

// DashboardStats are the scoped headline counts.
type DashboardStats struct {
	TotalAccounts  int `json:"totalAccounts"`
	TotalBlogPosts int `json:"totalBlogPosts"`
	TotalBacklinks int `json:"totalBacklinks"`
	// TotalUsers is populated for admins only.
	TotalUsers int `json:"totalUsers,omitempty"`
}

// Stats returns the headline counts for the actor's scope.
func (s *DashboardService) Stats(ctx context.Context, actor access.Actor) (*DashboardStats, error) {
	scope, err := accountScope(s.store, actor)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.CountAccounts(scope)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.CountPosts(scope)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.store.CountBacklinks(scope)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalAccounts:  accounts,
		TotalBlogPosts: posts,
		TotalBacklinks: backlinks,
	}

	if actor.Role == domain.RoleAdmin || actor.Role == domain.RoleOwner {
		users, err := s.store.CountUsers()
		if err != nil {
			return nil, err
		}
		stats.TotalUsers = users
	}

	return stats, nil
}

// ActivityFeed holds the most recent records of each kind in scope.
type ActivityFeed struct {
	Accounts  []*domain.SeoAccount `json:"accounts"`
	BlogPosts []*domain.BlogPost   `json:"blogPosts"`
	Backlinks []*domain.Backlink   `json:"backlinks"`
}

// Activity returns the newest accounts, posts and backlinks in scope.
func (s *DashboardService) Activity(ctx context.Context, actor access.Actor) (*ActivityFeed, error) {
	scope, err := accountScope(s.store, actor)
	if err != nil {
		return nil, err
	}

	params := store.Params{Page: 1, Limit: activityFeedSize}

	accounts, _, err := s.store.ListAccounts(scope, store.AccountFilter{}, params)
	if err != nil {
		return nil, err
	}
	posts, _, err := s.store.ListPosts(scope, store.PostFilter{}, params)
	if err != nil {
		return nil, err
	}
	backlinks, _, err := s.store.ListBacklinks(scope, store.BacklinkFilter{}, params)
	if err != nil {
		return nil, err
	}

	return &ActivityFeed{
		Accounts:  accounts,
		BlogPosts: posts,
		Backlinks: backlinks,
	}, nil
}

// UserStatsRow is one user's resource footprint.
type UserStatsRow struct {
	UserID    string      `json:"userId"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Accounts  int         `json:"accounts"`
	BlogPosts int         `json:"blogPosts"`
	Backlinks int         `json:"backlinks"`
}

// UserStats returns per-user account, post and backlink counts. Accounts
// and backlinks attribute to the account owner; posts to their author.
// Admin only.
func (s *DashboardService) UserStats(ctx context.Context, actor access.Actor) ([]UserStatsRow, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	users, _, err := s.store.ListUsers(store.UserFilter{}, store.Params{Page: 1, Limit: store.MaxLimit})
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*UserStatsRow, len(users))
	for _, u := range users {
		rows[u.ID] = &UserStatsRow{
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Role:   u.Role,
		}
	}

	err = s.store.ForEachAccount(func(a *domain.SeoAccount) bool {
		if row, ok := rows[a.OwnerID]; ok {
			row.Accounts++
			row.Backlinks += a.TotalBacklinks
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	err = s.store.ForEachPost(func(p *domain.BlogPost) bool {
		if row, ok := rows[p.AuthorID]; ok {
			row.BlogPosts++
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]UserStatsRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accounts != out[j].Accounts {
			return out[i].Accounts > out[j].Accounts
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

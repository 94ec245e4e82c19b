package domain

import "strings"

// AccountStatus represents the lifecycle state of a managed campaign.
type AccountStatus string

const (
	// AccountStatusActive is the default state for a managed campaign.
	AccountStatusActive AccountStatus = "active"
	// AccountStatusPaused marks a campaign whose work is on hold.
	AccountStatusPaused AccountStatus = "paused"
	// AccountStatusArchived marks a campaign kept for history only.
	AccountStatusArchived AccountStatus = "archived"
)

// SeoAccount is a managed SEO campaign for one domain.
//
// Ownership chain: OwnerID and AssignedAgencyID reference the agency-side
// users allowed to manage the account; ClientUserID is set once a client
// redeems an invitation. All access decisions trace back to these three.
type SeoAccount struct {
	Record
	Name   string        `json:"name"`
	Domain string        `json:"domain"` // Globally unique, case-insensitive
	Niche  string        `json:"niche,omitempty"`
	Status AccountStatus `json:"status"`

	ContactEmail     string `json:"contact_email,omitempty"`
	OwnerID          string `json:"owner_id,omitempty"`
	AssignedAgencyID string `json:"assigned_agency_id,omitempty"`
	ClientUserID     string `json:"client_user_id,omitempty"`

	// Denormalized counters, maintained on child create/delete.
	// Never recomputed from a scan except by the summary endpoint.
	TotalBacklinks int `json:"total_backlinks"`
	TotalBlogPosts int `json:"total_blog_posts"`
}

// NormalizeDomain lowercases and trims a domain for unique comparison.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// PublicSummary is the subset of account fields exposed to invitation
// holders before they have an account.
type PublicSummary struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Niche  string `json:"niche,omitempty"`
}

// Summary returns the account's public summary.
func (a *SeoAccount) Summary() PublicSummary {
	return PublicSummary{
		Name:   a.Name,
		Domain: a.Domain,
		Niche:  a.Niche,
	}
}

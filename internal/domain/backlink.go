package domain

import (
	"net/url"
	"strings"
)

// LinkType categorizes a backlink placement.
type LinkType string

const (
	// LinkTypeDofollow passes ranking signal to the target.
	LinkTypeDofollow LinkType = "dofollow"
	// LinkTypeNofollow carries rel=nofollow.
	LinkTypeNofollow LinkType = "nofollow"
	// LinkTypeSponsored carries rel=sponsored.
	LinkTypeSponsored LinkType = "sponsored"
)

// BacklinkStatus represents the verification state of a backlink.
type BacklinkStatus string

const (
	// BacklinkStatusPending is a reported but unverified link.
	BacklinkStatusPending BacklinkStatus = "pending"
	// BacklinkStatusLive is a verified, indexed link.
	BacklinkStatusLive BacklinkStatus = "live"
	// BacklinkStatusLost is a link that disappeared from the source page.
	BacklinkStatusLost BacklinkStatus = "lost"
)

// Backlink is an inbound link acquired for a managed campaign.
type Backlink struct {
	Record
	SeoAccountID string         `json:"seo_account_id"`
	SourceURL    string         `json:"source_url"`
	SourceDomain string         `json:"source_domain"` // Derived from SourceURL at write time
	TargetURL    string         `json:"target_url,omitempty"`
	Anchor       string         `json:"anchor,omitempty"`
	LinkType     LinkType       `json:"link_type"`
	Status       BacklinkStatus `json:"status"`
}

// SourceDomainFromURL derives the source domain from a URL: the host
// without a leading "www.". Returns false when the URL has no usable host.
func SourceDomainFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), true
	}

	// Best-effort manual parse for scheme-less values like "example.com/page".
	raw := strings.TrimSpace(rawURL)
	raw = strings.TrimPrefix(raw, "//")
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimPrefix(strings.ToLower(raw), "www.")
	if raw == "" || !strings.Contains(raw, ".") {
		return "", false
	}
	return raw, true
}

package domain

// PostStatus represents the publication state of a blog post.
type PostStatus string

const (
	// PostStatusDraft is an unpublished post.
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished is a live post.
	PostStatusPublished PostStatus = "published"
	// PostStatusScheduled is a post queued for future publication.
	PostStatusScheduled PostStatus = "scheduled"
)

// BlogPost is an article written for a managed campaign.
// SeoAccountID and AuthorID are nullable: legacy posts created before
// authentication carry neither.
type BlogPost struct {
	Record
	Title   string     `json:"title"`
	Slug    string     `json:"slug"` // Globally unique
	Content string     `json:"content,omitempty"`
	Excerpt string     `json:"excerpt,omitempty"`
	Status  PostStatus `json:"status"`

	SeoAccountID string `json:"seo_account_id,omitempty"`
	AuthorID     string `json:"author_id,omitempty"`
}

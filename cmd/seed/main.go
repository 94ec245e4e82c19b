// Package main provides a tool to seed the database with demo data.
//
// It creates an admin, an agency with a few SEO accounts, and a spread
// of blog posts and backlinks so dashboards and listings have something
// to show.
//
// Usage:
//
//	DATA_PATH=~/RankDesk/data go run ./cmd/seed
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	"github.com/rankdeskapp/rankdesk-server/internal/id"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

var (
	accountCount  = flag.Int("accounts", 5, "Number of SEO accounts to create")
	postsPerAcct  = flag.Int("posts", 4, "Blog posts per account")
	linksPerAcct  = flag.Int("backlinks", 8, "Backlinks per account")
	adminPassword = flag.String("admin-password", "changeme-now", "Password for the seeded admin user")
)

var niches = []string{"legal", "dental", "home services", "saas", "ecommerce"}

var referrers = []string{
	"https://www.forbes.com/sites/growth/",
	"https://blog.hubspot.com/marketing/",
	"https://medium.com/@seostories/",
	"https://news.ycombinator.com/item",
	"https://www.reddit.com/r/bigseo/",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/RankDesk/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	admin := seedUser(s, "Admin", "admin@rankdesk.local", domain.RoleAdmin, "")
	agency := seedUser(s, "Demo Agency", "agency@rankdesk.local", domain.RoleAgency, "")
	seedUser(s, "Team Member", "team@rankdesk.local", domain.RoleViewing, agency.ID)

	fmt.Printf("Users ready: admin=%s agency=%s\n", admin.Email, agency.Email)

	for i := range *accountCount {
		acct := &domain.SeoAccount{
			Name:    fmt.Sprintf("Demo Site %d", i+1),
			Domain:  fmt.Sprintf("demo-site-%d.example.com", i+1),
			Niche:   niches[i%len(niches)],
			Status:  domain.AccountStatusActive,
			OwnerID: agency.ID,
		}
		acct.ID = id.MustGenerate("acct")
		acct.InitTimestamps()

		if err := s.CreateAccount(acct); err != nil {
			log.Fatalf("Failed to create account %s: %v", acct.Domain, err)
		}

		for p := range *postsPerAcct {
			post := &domain.BlogPost{
				Title:        fmt.Sprintf("Growth Notes %d for %s", p+1, acct.Name),
				Slug:         fmt.Sprintf("growth-notes-%d-demo-site-%d", p+1, i+1),
				Content:      "Seeded content for local development.",
				Status:       randomPostStatus(),
				SeoAccountID: acct.ID,
				AuthorID:     agency.ID,
			}
			post.ID = id.MustGenerate("post")
			post.InitTimestamps()

			if err := s.CreatePost(post); err != nil {
				log.Fatalf("Failed to create post %s: %v", post.Slug, err)
			}
		}

		for b := range *linksPerAcct {
			source := referrers[rand.Intn(len(referrers))]
			link := &domain.Backlink{
				SeoAccountID: acct.ID,
				SourceURL:    fmt.Sprintf("%sarticle-%d", source, b+1),
				TargetURL:    fmt.Sprintf("https://%s/landing-%d", acct.Domain, b+1),
				Anchor:       fmt.Sprintf("best %s provider", acct.Niche),
				LinkType:     randomLinkType(),
				Status:       randomBacklinkStatus(),
			}
			if sd, ok := domain.SourceDomainFromURL(link.SourceURL); ok {
				link.SourceDomain = sd
			}
			link.ID = id.MustGenerate("link")
			link.InitTimestamps()

			if err := s.CreateBacklink(link); err != nil {
				log.Fatalf("Failed to create backlink: %v", err)
			}
		}

		fmt.Printf("Seeded %s (%d posts, %d backlinks)\n", acct.Domain, *postsPerAcct, *linksPerAcct)
	}

	fmt.Println("Done.")
}

// seedUser creates a verified user unless the email is already taken, in
// which case the existing user is reused so the tool is re-runnable.
func seedUser(s *store.Store, name, email string, role domain.Role, ownerID string) *domain.User {
	if existing, err := s.GetUserByEmail(email); err == nil {
		return existing
	}

	hash, err := auth.HashPassword(*adminPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		OwnerID:      ownerID,
		IsTeamMember: ownerID != "",
		Verified:     true,
	}
	user.ID = id.MustGenerate("user")
	user.InitTimestamps()

	if err := s.CreateUser(user); err != nil {
		log.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

func randomPostStatus() domain.PostStatus {
	statuses := []domain.PostStatus{
		domain.PostStatusDraft,
		domain.PostStatusPublished,
		domain.PostStatusPublished,
		domain.PostStatusScheduled,
	}
	return statuses[rand.Intn(len(statuses))]
}

func randomLinkType() domain.LinkType {
	types := []domain.LinkType{
		domain.LinkTypeDofollow,
		domain.LinkTypeDofollow,
		domain.LinkTypeNofollow,
		domain.LinkTypeSponsored,
	}
	return types[rand.Intn(len(types))]
}

func randomBacklinkStatus() domain.BacklinkStatus {
	statuses := []domain.BacklinkStatus{
		domain.BacklinkStatusPending,
		domain.BacklinkStatusLive,
		domain.BacklinkStatusLive,
		domain.BacklinkStatusLost,
	}
	return statuses[rand.Intn(len(statuses))]
}

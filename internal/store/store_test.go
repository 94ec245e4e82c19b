package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func testUser(id, email string, role domain.Role) *domain.User {
	u := &domain.User{
		Name:  "Test User",
		Email: email,
		Role:  role,
	}
	u.ID = id
	u.InitTimestamps()
	return u
}

func testAccount(id, domainName string) *domain.SeoAccount {
	a := &domain.SeoAccount{
		Name:   "Test Account",
		Domain: domainName,
		Status: domain.AccountStatusActive,
	}
	a.ID = id
	a.InitTimestamps()
	return a
}

func TestUserEmailUniqueness(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(testUser("user-1", "alice@example.com", domain.RoleAgency)))

	err := s.CreateUser(testUser("user-2", "Alice@Example.COM", domain.RoleAgency))
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := s.GetUserByEmail("ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
}

func TestUpdateUserEmailReindex(t *testing.T) {
	s := newTestStore(t)

	user := testUser("user-1", "old@example.com", domain.RoleClient)
	require.NoError(t, s.CreateUser(user))

	user.Email = "new@example.com"
	require.NoError(t, s.UpdateUser(user))

	_, err := s.GetUserByEmail("old@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := s.GetUserByEmail("new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
}

func TestAccountDomainUniqueness(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateAccount(testAccount("acct-1", "Example.com")))

	err := s.CreateAccount(testAccount("acct-2", "example.com"))
	assert.ErrorIs(t, err, ErrDomainTaken)
}

func TestAccountOwnershipIndexes(t *testing.T) {
	s := newTestStore(t)

	owned := testAccount("acct-1", "one.com")
	owned.OwnerID = "user-agency"
	require.NoError(t, s.CreateAccount(owned))

	assigned := testAccount("acct-2", "two.com")
	assigned.AssignedAgencyID = "user-agency"
	require.NoError(t, s.CreateAccount(assigned))

	other := testAccount("acct-3", "three.com")
	other.OwnerID = "someone-else"
	require.NoError(t, s.CreateAccount(other))

	ids, err := s.AccountIDsOwnedOrAssigned("user-agency")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acct-1", "acct-2"}, ids)

	// Reassignment moves the index entry.
	assigned.AssignedAgencyID = "someone-else"
	require.NoError(t, s.UpdateAccount(assigned))

	ids, err = s.AccountIDsOwnedOrAssigned("user-agency")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acct-1"}, ids)
}

func TestBacklinkCounterRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateAccount(testAccount("acct-1", "counter.com")))

	const n = 5
	for i := 0; i < n; i++ {
		link := &domain.Backlink{
			SeoAccountID: "acct-1",
			SourceURL:    fmt.Sprintf("https://source%d.com/page", i),
			SourceDomain: fmt.Sprintf("source%d.com", i),
			LinkType:     domain.LinkTypeDofollow,
			Status:       domain.BacklinkStatusLive,
		}
		link.ID = fmt.Sprintf("link-%d", i)
		link.InitTimestamps()
		require.NoError(t, s.CreateBacklink(link))
	}

	acct, err := s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, n, acct.TotalBacklinks)

	for i := 0; i < n; i++ {
		require.NoError(t, s.DeleteBacklink(fmt.Sprintf("link-%d", i)))
	}

	acct, err = s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, 0, acct.TotalBacklinks)
}

func TestBacklinkCounterConcurrentWriters(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateAccount(testAccount("acct-1", "contended.com")))

	// Concurrent creates against one account contend on the counter
	// document; every increment must land.
	const n = 40
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link := &domain.Backlink{
				SeoAccountID: "acct-1",
				SourceURL:    fmt.Sprintf("https://source%d.com/page", i),
				SourceDomain: fmt.Sprintf("source%d.com", i),
				LinkType:     domain.LinkTypeDofollow,
				Status:       domain.BacklinkStatusLive,
			}
			link.ID = fmt.Sprintf("link-%d", i)
			link.InitTimestamps()
			errs <- s.CreateBacklink(link)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	acct, err := s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, n, acct.TotalBacklinks)

	// Concurrent deletes walk it back to zero.
	errs = make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.DeleteBacklink(fmt.Sprintf("link-%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	acct, err = s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, 0, acct.TotalBacklinks)
}

func TestPostCounterAndSlugIndex(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateAccount(testAccount("acct-1", "posts.com")))

	post := &domain.BlogPost{
		Title:        "Hello World",
		Slug:         "hello-world",
		Status:       domain.PostStatusDraft,
		SeoAccountID: "acct-1",
	}
	post.ID = "post-1"
	post.InitTimestamps()
	require.NoError(t, s.CreatePost(post))

	taken, err := s.SlugTaken("hello-world")
	require.NoError(t, err)
	assert.True(t, taken)

	dup := &domain.BlogPost{Title: "Hello World", Slug: "hello-world", Status: domain.PostStatusDraft}
	dup.ID = "post-2"
	dup.InitTimestamps()
	assert.ErrorIs(t, s.CreatePost(dup), ErrSlugTaken)

	acct, err := s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, 1, acct.TotalBlogPosts)

	require.NoError(t, s.DeletePost("post-1"))

	taken, err = s.SlugTaken("hello-world")
	require.NoError(t, err)
	assert.False(t, taken)

	acct, err = s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, 0, acct.TotalBlogPosts)
}

func TestListBacklinksScoped(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateAccount(testAccount("acct-x", "x.com")))
	require.NoError(t, s.CreateAccount(testAccount("acct-y", "y.com")))
	require.NoError(t, s.CreateAccount(testAccount("acct-z", "z.com")))

	base := time.Now()
	for i, acctID := range []string{"acct-x", "acct-x", "acct-y", "acct-z"} {
		link := &domain.Backlink{
			SeoAccountID: acctID,
			SourceURL:    fmt.Sprintf("https://ref%d.com", i),
			SourceDomain: fmt.Sprintf("ref%d.com", i),
			LinkType:     domain.LinkTypeDofollow,
			Status:       domain.BacklinkStatusLive,
		}
		link.ID = fmt.Sprintf("link-%d", i)
		link.CreatedAt = base.Add(time.Duration(i) * time.Second)
		link.UpdatedAt = link.CreatedAt
		require.NoError(t, s.CreateBacklink(link))
	}

	scope := access.Accounts("acct-x", "acct-y")
	links, meta, err := s.ListBacklinks(scope, BacklinkFilter{}, Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, links, 3)
	assert.Equal(t, 3, meta.Total)
	for _, l := range links {
		assert.NotEqual(t, "acct-z", l.SeoAccountID)
	}

	// Empty scope short-circuits without scanning.
	links, meta, err = s.ListBacklinks(access.NoAccounts(), BacklinkFilter{}, Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Equal(t, 0, meta.Total)
}

func TestPaginationMath(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	page, meta := paginate(items, Params{Page: 1, Limit: 10})
	assert.Len(t, page, 10)
	assert.Equal(t, Pagination{Current: 1, Pages: 3, Total: 25, HasNext: true, HasPrev: false}, meta)

	page, meta = paginate(items, Params{Page: 3, Limit: 10})
	assert.Len(t, page, 5)
	assert.Equal(t, Pagination{Current: 3, Pages: 3, Total: 25, HasNext: false, HasPrev: true}, meta)

	page, meta = paginate(items, Params{Page: 9, Limit: 10})
	assert.Empty(t, page)
	assert.Equal(t, 9, meta.Current)
	assert.False(t, meta.HasNext)
}

func TestRedeemClientInvitation(t *testing.T) {
	s := newTestStore(t)

	acct := testAccount("acct-1", "client.com")
	require.NoError(t, s.CreateAccount(acct))

	token := &domain.Token{
		Value:        "opaque-invitation-value",
		Kind:         domain.TokenKindClientInvitation,
		Email:        "client@example.com",
		SeoAccountID: "acct-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	token.ID = "tok-1"
	token.InitTimestamps()
	require.NoError(t, s.CreateToken(token))

	user := testUser("user-client", "client@example.com", domain.RoleClient)
	user.Verified = true
	require.NoError(t, s.RedeemClientInvitation(token, user))

	got, err := s.GetAccount("acct-1")
	require.NoError(t, err)
	assert.Equal(t, "user-client", got.ClientUserID)

	created, err := s.GetUserByEmail("client@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, created.Role)

	ids, err := s.AccountIDsForClient("user-client")
	require.NoError(t, err)
	assert.Equal(t, []string{"acct-1"}, ids)

	// Token is destroyed; a second redemption cannot double-spend it.
	_, err = s.GetTokenByValue("opaque-invitation-value")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	again := testUser("user-other", "other@example.com", domain.RoleClient)
	assert.ErrorIs(t, s.RedeemClientInvitation(token, again), ErrTokenNotFound)
}

func TestDeleteExpiredTokens(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	for i, exp := range []time.Time{now.Add(-time.Minute), now, now.Add(time.Hour)} {
		token := &domain.Token{
			Value:     fmt.Sprintf("value-%d", i),
			Kind:      domain.TokenKindEmailVerification,
			Email:     "someone@example.com",
			ExpiresAt: exp,
		}
		token.ID = fmt.Sprintf("tok-%d", i)
		token.InitTimestamps()
		require.NoError(t, s.CreateToken(token))
	}

	// Boundary: a token expiring exactly now counts as expired.
	removed, err := s.DeleteExpiredTokens(now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetTokenByValue("value-2")
	assert.NoError(t, err)
}

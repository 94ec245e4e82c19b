package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/auth"
	"github.com/rankdeskapp/rankdesk-server/internal/config"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/mail"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store     *store.Store
	auth      *AuthService
	invite    *InviteService
	accounts  *AccountService
	posts     *BlogPostService
	backlinks *BacklinkService
	users     *UserService
	dashboard *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	logger := slog.New(slog.DiscardHandler)
	sender := mail.NewLogSender(logger)
	serverCfg := config.ServerConfig{PublicURL: "http://localhost:8080"}

	tokenService, err := auth.NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)

	authSvc := NewAuthService(st, tokenService, sender, serverCfg, logger)
	inviteSvc := NewInviteService(st, authSvc, sender, serverCfg, logger)

	return &testEnv{
		store:     st,
		auth:      authSvc,
		invite:    inviteSvc,
		accounts:  NewAccountService(st, inviteSvc, logger),
		posts:     NewBlogPostService(st, logger),
		backlinks: NewBacklinkService(st, logger),
		users:     NewUserService(st, logger),
		dashboard: NewDashboardService(st, logger),
	}
}

var adminActor = access.Actor{ID: "user-admin", Role: domain.RoleAdmin}

func agencyActor(id string) access.Actor {
	return access.Actor{ID: id, Role: domain.RoleAgency}
}

func (e *testEnv) createAccount(t *testing.T, actor access.Actor, name, domainName string) *domain.SeoAccount {
	t.Helper()
	account, err := e.accounts.Create(context.Background(), actor, CreateAccountRequest{
		Name:   name,
		Domain: domainName,
	})
	require.NoError(t, err)
	return account
}

func TestRegisterThenLoginRequiresVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterRequest{
		Name:     "Avery Agency",
		Email:    "avery@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgency, user.Role)
	assert.False(t, user.Verified)
	assert.Empty(t, user.PasswordHash)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "avery@example.com", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// Redeem the verification token, then login succeeds.
	stored, err := env.store.GetUser(user.ID)
	require.NoError(t, err)
	token, err := env.auth.createToken(domain.TokenKindEmailVerification, stored.Email, stored.ID, "", domain.EmailVerificationTTL)
	require.NoError(t, err)

	verified, err := env.auth.VerifyEmail(ctx, token.Value)
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "avery@example.com", Password: "correct-horse-battery"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	actor, err := env.auth.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, domain.RoleAgency, actor.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterRequest{
		Name:     "Avery",
		Email:    "avery@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "avery@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	// Unknown email reads the same as a bad password.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever-1"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAccountDomainConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createAccount(t, adminActor, "First", "Example.com")

	_, err := env.accounts.Create(ctx, adminActor, CreateAccountRequest{
		Name:   "Second",
		Domain: "example.com",
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestAccountDeleteWithDependents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "dependents.com")

	_, err := env.posts.Create(ctx, adminActor, CreatePostRequest{
		Title:        "A Post",
		SeoAccountID: account.ID,
	})
	require.NoError(t, err)

	err = env.accounts.Delete(ctx, adminActor, account.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrHasDependents)
	assert.Contains(t, err.Error(), "1 blog post")

	// Removing the dependent unblocks deletion.
	posts, _, err := env.posts.List(ctx, adminActor, ListPostsQuery{SeoAccountID: account.ID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NoError(t, env.posts.Delete(ctx, adminActor, posts[0].ID))

	assert.NoError(t, env.accounts.Delete(ctx, adminActor, account.ID))
}

func TestAccountUpdatePreservesCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "counters.com")

	_, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
		SeoAccountID: account.ID,
		SourceURL:    "https://referrer.com/article",
	})
	require.NoError(t, err)

	updated, err := env.accounts.Update(ctx, adminActor, account.ID, UpdateAccountRequest{
		Name: "Renamed Campaign",
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Campaign", updated.Name)
	assert.Equal(t, 1, updated.TotalBacklinks)
}

func TestSlugSuffixOnCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.posts.Create(ctx, adminActor, CreatePostRequest{Title: "Hello, World!"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", first.Slug)

	second, err := env.posts.Create(ctx, adminActor, CreatePostRequest{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", second.Slug)

	third, err := env.posts.Create(ctx, adminActor, CreatePostRequest{Title: "Hello  world"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", third.Slug)
}

func TestBacklinkRejectsBadSourceURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "links.com")

	_, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
		SeoAccountID: account.ID,
		SourceURL:    "not a url",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	// Scheme-less but host-bearing URLs are accepted.
	link, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
		SeoAccountID: account.ID,
		SourceURL:    "www.referrer.com/article",
	})
	require.NoError(t, err)
	assert.Equal(t, "referrer.com", link.SourceDomain)
}

func TestAgencyScopedBacklinkListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agencyA := agencyActor("user-agency-a")

	// A owns X, is assigned Y; Z belongs to someone else.
	accountX := env.createAccount(t, agencyA, "X", "x-campaign.com")
	accountY := env.createAccount(t, adminActor, "Y", "y-campaign.com")
	_, err := env.accounts.Update(ctx, adminActor, accountY.ID, UpdateAccountRequest{
		AssignedAgencyID: &agencyA.ID,
	})
	require.NoError(t, err)
	accountZ := env.createAccount(t, adminActor, "Z", "z-campaign.com")

	mk := func(accountID string, n int) {
		for i := 0; i < n; i++ {
			_, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
				SeoAccountID: accountID,
				SourceURL:    fmt.Sprintf("https://ref-%s-%d.com/a", accountID[len(accountID)-4:], i),
			})
			require.NoError(t, err)
		}
	}
	mk(accountX.ID, 15)
	mk(accountY.ID, 10)
	mk(accountZ.ID, 7)

	links, meta, err := env.backlinks.List(ctx, agencyA, ListBacklinksQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, links, 10)
	assert.Equal(t, store.Pagination{Current: 1, Pages: 3, Total: 25, HasNext: true, HasPrev: false}, meta)
	for _, l := range links {
		assert.NotEqual(t, accountZ.ID, l.SeoAccountID)
	}
}

func TestAgencyWithNoAccountsGetsEmptyPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "empty-scope.com")
	_, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
		SeoAccountID: account.ID,
		SourceURL:    "https://referrer.com/a",
	})
	require.NoError(t, err)

	links, meta, err := env.backlinks.List(ctx, agencyActor("user-agency-nothing"), ListBacklinksQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Equal(t, 0, meta.Total)
}

func TestForbiddenVersusNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, agencyActor("user-agency-a"), "Mine", "forbidden.com")

	// Missing resource reads as NotFound even for an outsider.
	_, err := env.accounts.Get(ctx, agencyActor("user-agency-b"), "acct-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Existing but unauthorized resource reads as Forbidden.
	_, err = env.accounts.Get(ctx, agencyActor("user-agency-b"), account.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// The owner reads it fine.
	got, err := env.accounts.Get(ctx, agencyActor("user-agency-a"), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
}

func TestAnonymousDenialIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, agencyActor("user-agency-a"), "Mine", "anon-denied.com")

	// A caller with no credential is told to authenticate, not that the
	// resource is off limits.
	_, err := env.accounts.Get(ctx, access.Actor{}, account.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, _, err = env.backlinks.ListByAccount(ctx, access.Actor{}, account.ID, ListBacklinksQuery{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// A credentialed outsider still gets Forbidden.
	_, err = env.accounts.Get(ctx, agencyActor("user-agency-b"), account.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestInvitationVerifyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Client Campaign", "idempotent.com")
	token, err := env.auth.createToken(domain.TokenKindClientInvitation, "client@example.com", "", account.ID, domain.ClientInvitationTTL)
	require.NoError(t, err)

	first, err := env.invite.Verify(ctx, token.Value)
	require.NoError(t, err)
	second, err := env.invite.Verify(ctx, token.Value)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Client Campaign", first.Name)
	assert.Equal(t, "idempotent.com", first.Domain)
}

func TestInvitationExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "boundary.com")

	// expiresAt in the past; now >= expiresAt counts as expired.
	token, err := env.auth.createToken(domain.TokenKindClientInvitation, "client@example.com", "", account.ID, -time.Nanosecond)
	require.NoError(t, err)

	_, err = env.invite.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)

	// The expired token was deleted opportunistically.
	_, err = env.invite.Verify(ctx, token.Value)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestRedeemThenLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, agencyActor("user-agency-a"), "Client Campaign", "roundtrip.com")
	token, err := env.auth.createToken(domain.TokenKindClientInvitation, "client@example.com", "", account.ID, domain.ClientInvitationTTL)
	require.NoError(t, err)

	resp, err := env.invite.Redeem(ctx, token.Value, RedeemRequest{
		Name:            "Casey Client",
		Email:           "client@example.com",
		Password:        "a-long-password",
		ConfirmPassword: "a-long-password",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)

	// The account is linked and the token spent.
	linked, err := env.store.GetAccount(account.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, linked.ClientUserID)

	_, err = env.invite.Redeem(ctx, token.Value, RedeemRequest{
		Name:            "Somebody Else",
		Email:           "else@example.com",
		Password:        "another-password",
		ConfirmPassword: "another-password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	login, err := env.auth.Login(ctx, LoginRequest{Email: "client@example.com", Password: "a-long-password"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, login.User.Role)

	// The client sees exactly the linked account.
	actor := access.Actor{ID: resp.User.ID, Role: domain.RoleClient}
	accounts, _, err := env.accounts.List(ctx, actor, ListAccountsQuery{})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, account.ID, accounts[0].ID)
}

func TestRedeemPasswordMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "mismatch.com")
	token, err := env.auth.createToken(domain.TokenKindClientInvitation, "client@example.com", "", account.ID, domain.ClientInvitationTTL)
	require.NoError(t, err)

	_, err = env.invite.Redeem(ctx, token.Value, RedeemRequest{
		Name:            "Casey",
		Email:           "client@example.com",
		Password:        "a-long-password",
		ConfirmPassword: "a-different-password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	// Validation failure spends nothing.
	_, err = env.invite.Verify(ctx, token.Value)
	assert.NoError(t, err)
}

func TestRedeemEmailConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, adminActor, CreateUserRequest{
		Name:     "Existing",
		Email:    "client@example.com",
		Password: "existing-password",
		Role:     "agency",
	})
	require.NoError(t, err)

	account := env.createAccount(t, adminActor, "Campaign", "conflict.com")
	token, err := env.auth.createToken(domain.TokenKindClientInvitation, "client@example.com", "", account.ID, domain.ClientInvitationTTL)
	require.NoError(t, err)

	_, err = env.invite.Redeem(ctx, token.Value, RedeemRequest{
		Name:            "Casey",
		Email:           "client@example.com",
		Password:        "a-long-password",
		ConfirmPassword: "a-long-password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestClientCannotMutateAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "readonly.com")
	token, err := env.auth.createToken(domain.TokenKindClientInvitation, "client@example.com", "", account.ID, domain.ClientInvitationTTL)
	require.NoError(t, err)

	resp, err := env.invite.Redeem(ctx, token.Value, RedeemRequest{
		Name:            "Casey",
		Email:           "client@example.com",
		Password:        "a-long-password",
		ConfirmPassword: "a-long-password",
	})
	require.NoError(t, err)
	clientActor := access.Actor{ID: resp.User.ID, Role: domain.RoleClient}

	_, err = env.accounts.Get(ctx, clientActor, account.ID)
	assert.NoError(t, err)

	_, err = env.accounts.Update(ctx, clientActor, account.ID, UpdateAccountRequest{Name: "Hijacked"})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	err = env.accounts.Delete(ctx, clientActor, account.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.CreateUser(ctx, adminActor, CreateUserRequest{
		Name:     "Avery",
		Email:    "avery@example.com",
		Password: "original-password",
		Role:     "agency",
	})
	require.NoError(t, err)

	// Unknown addresses get the same silent success.
	assert.NoError(t, env.auth.ForgotPassword(ctx, "nobody@example.com"))

	token, err := env.auth.createToken(domain.TokenKindPasswordReset, created.Email, created.ID, "", domain.PasswordResetTTL)
	require.NoError(t, err)

	err = env.auth.ResetPassword(ctx, token.Value, ResetPasswordRequest{
		Password:        "brand-new-password",
		ConfirmPassword: "brand-new-password",
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "avery@example.com", Password: "original-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "avery@example.com", Password: "brand-new-password"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.User.ID)
}

func TestDashboardStatsScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	agencyA := agencyActor("user-agency-a")

	mine := env.createAccount(t, agencyA, "Mine", "mine-stats.com")
	other := env.createAccount(t, adminActor, "Other", "other-stats.com")

	_, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
		SeoAccountID: mine.ID, SourceURL: "https://ref1.com/a",
	})
	require.NoError(t, err)
	_, err = env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
		SeoAccountID: other.ID, SourceURL: "https://ref2.com/a",
	})
	require.NoError(t, err)

	stats, err := env.dashboard.Stats(ctx, agencyA)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAccounts)
	assert.Equal(t, 1, stats.TotalBacklinks)
	assert.Zero(t, stats.TotalUsers)

	adminStats, err := env.dashboard.Stats(ctx, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 2, adminStats.TotalAccounts)
	assert.Equal(t, 2, adminStats.TotalBacklinks)
}

func TestBacklinkSummaryGroupsByRegistrableDomain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, adminActor, "Campaign", "summary.com")
	for _, src := range []string{
		"https://blog.referrer.co.uk/post",
		"https://www.referrer.co.uk/about",
		"https://other.com/page",
	} {
		_, err := env.backlinks.Create(ctx, adminActor, CreateBacklinkRequest{
			SeoAccountID: account.ID,
			SourceURL:    src,
		})
		require.NoError(t, err)
	}

	summary, err := env.backlinks.Summary(ctx, adminActor, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.ReferringDomains, 2)
	assert.Equal(t, DomainCount{Domain: "referrer.co.uk", Count: 2}, summary.ReferringDomains[0])
	assert.Equal(t, DomainCount{Domain: "other.com", Count: 1}, summary.ReferringDomains[1])
}

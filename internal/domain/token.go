package domain

import "time"

// TokenKind distinguishes the short-lived credentials the server issues.
type TokenKind string

const (
	// TokenKindEmailVerification confirms a self-registered user's address.
	TokenKindEmailVerification TokenKind = "email_verification"
	// TokenKindPasswordReset authorizes a one-time password change.
	TokenKindPasswordReset TokenKind = "password_reset"
	// TokenKindClientInvitation binds a contact email to a pending client
	// registration for one SEO account.
	TokenKindClientInvitation TokenKind = "client_invitation"
)

// Default lifetimes per token kind.
const (
	EmailVerificationTTL = 1 * time.Hour
	PasswordResetTTL     = 1 * time.Hour
	ClientInvitationTTL  = 7 * 24 * time.Hour
)

// Token is a short-lived opaque credential. It is destroyed on successful
// redemption; expired tokens are removed on read and by the background reaper.
type Token struct {
	Record
	Value string    `json:"value"` // Opaque, cryptographically random
	Kind  TokenKind `json:"kind"`
	Email string    `json:"email"`
	// UserID is set for verification and reset tokens. Client invitations
	// carry no user until redemption.
	UserID string `json:"user_id,omitempty"`
	// SeoAccountID is set for client invitations.
	SeoAccountID string    `json:"seo_account_id,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired reports whether the token has expired at the given instant.
// The boundary counts as expired: now >= ExpiresAt.
func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

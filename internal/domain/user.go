package domain

// Role represents the user's permission level in the system.
// The set is closed: access decisions switch exhaustively over it.
type Role string

const (
	// RoleOwner is the legacy super-user role, equivalent to admin.
	RoleOwner Role = "owner"
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
	// RoleViewing is a reserved read-only role with no resource scope.
	RoleViewing Role = "viewing"
	// RoleAgency manages the SEO accounts it owns or is assigned.
	RoleAgency Role = "agency"
	// RoleClient sees only the SEO account linked to it via invitation.
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleViewing, RoleAgency, RoleClient:
		return true
	}
	return false
}

// User represents an account in the system.
type User struct {
	Record
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Role         Role   `json:"role"`
	// OwnerID back-references the Agency/Owner this user belongs to when it
	// is a team member or client. Empty for top-level users.
	OwnerID      string `json:"owner_id,omitempty"`
	IsTeamMember bool   `json:"is_team_member,omitempty"`
	// Verified gates login. Self-registered users start unverified and flip
	// via email token redemption; admin-created and invited users start verified.
	Verified bool `json:"verified"`
}

// IsAdmin returns true if the user has administrative privileges.
// Owner is legacy parity for admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

// Public returns a copy safe to serialize in API responses.
func (u *User) Public() *User {
	out := *u
	out.PasswordHash = ""
	return &out
}

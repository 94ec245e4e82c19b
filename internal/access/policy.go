// Package access holds the pure access-control core: the policy deciding
// whether an actor may act on a resource, and the scope describing which
// SEO accounts an actor may see. Everything here is side-effect free;
// stores and services consume these decisions.
package access

import "github.com/rankdeskapp/rankdesk-server/internal/domain"

// Action is the kind of operation an actor attempts on a resource.
type Action string

const (
	// ActionRead covers list and single-record reads.
	ActionRead Action = "read"
	// ActionWrite covers create and update.
	ActionWrite Action = "write"
	// ActionDelete covers record removal.
	ActionDelete Action = "delete"
)

// Actor is the caller making a request. A zero Actor is anonymous.
type Actor struct {
	ID           string
	Role         domain.Role
	OwnerID      string
	IsTeamMember bool
}

// Anonymous returns true when the actor carries no identity.
func (a Actor) Anonymous() bool {
	return a.ID == ""
}

// ResourceOwners carries the ownership fields of a resource (or of the
// SEO account a child resource resolves to). Fields that do not apply to
// a resource type are left empty.
type ResourceOwners struct {
	OwnerID          string
	AssignedAgencyID string
	ClientUserID     string
}

// OwnersOf extracts the ownership fields from an SEO account.
func OwnersOf(account *domain.SeoAccount) ResourceOwners {
	return ResourceOwners{
		OwnerID:          account.OwnerID,
		AssignedAgencyID: account.AssignedAgencyID,
		ClientUserID:     account.ClientUserID,
	}
}

// CanAccess decides whether the actor may perform action on a resource
// with the given ownership fields. The role switch is exhaustive over
// domain.Role; unknown roles and anonymous actors are denied.
//
// Precedence:
//  1. Admin (and Owner, legacy parity) are allowed unconditionally.
//  2. Clients may read the account linked to them; they never mutate.
//  3. Agencies may act on accounts they own or are assigned.
//  4. Everything else is denied, including the reserved viewing role.
func CanAccess(actor Actor, owners ResourceOwners, action Action) bool {
	if actor.Anonymous() {
		return false
	}

	switch actor.Role {
	case domain.RoleAdmin, domain.RoleOwner:
		return true
	case domain.RoleClient:
		return action == ActionRead && owners.ClientUserID != "" && actor.ID == owners.ClientUserID
	case domain.RoleAgency:
		return actor.ID == owners.OwnerID || actor.ID == owners.AssignedAgencyID
	case domain.RoleViewing:
		return false
	default:
		return false
	}
}

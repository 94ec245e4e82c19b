package access

import (
	"testing"

	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanAccess_AdminAlwaysAllowed(t *testing.T) {
	owners := ResourceOwners{OwnerID: "user-a", AssignedAgencyID: "user-b", ClientUserID: "user-c"}

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleOwner} {
		for _, action := range []Action{ActionRead, ActionWrite, ActionDelete} {
			actor := Actor{ID: "user-admin", Role: role}
			assert.True(t, CanAccess(actor, owners, action), "role %s action %s", role, action)
		}
	}
}

func TestCanAccess_Client(t *testing.T) {
	owners := ResourceOwners{ClientUserID: "user-client"}

	client := Actor{ID: "user-client", Role: domain.RoleClient}
	assert.True(t, CanAccess(client, owners, ActionRead))

	// Clients never mutate, even their own account.
	assert.False(t, CanAccess(client, owners, ActionWrite))
	assert.False(t, CanAccess(client, owners, ActionDelete))

	// A different client is denied.
	other := Actor{ID: "user-other", Role: domain.RoleClient}
	assert.False(t, CanAccess(other, owners, ActionRead))

	// An account with no client binding matches no client.
	assert.False(t, CanAccess(client, ResourceOwners{}, ActionRead))
}

func TestCanAccess_Agency(t *testing.T) {
	tests := []struct {
		name   string
		owners ResourceOwners
		want   bool
	}{
		{"owner match", ResourceOwners{OwnerID: "user-agency"}, true},
		{"assigned match", ResourceOwners{AssignedAgencyID: "user-agency"}, true},
		{"both match", ResourceOwners{OwnerID: "user-agency", AssignedAgencyID: "user-agency"}, true},
		{"no match", ResourceOwners{OwnerID: "user-x", AssignedAgencyID: "user-y"}, false},
		{"empty owners", ResourceOwners{}, false},
	}

	actor := Actor{ID: "user-agency", Role: domain.RoleAgency}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, action := range []Action{ActionRead, ActionWrite, ActionDelete} {
				assert.Equal(t, tt.want, CanAccess(actor, tt.owners, action), "action %s", action)
			}
		})
	}
}

func TestCanAccess_DeniedRoles(t *testing.T) {
	owners := ResourceOwners{OwnerID: "user-v", AssignedAgencyID: "user-v", ClientUserID: "user-v"}

	// Viewing is reserved and matches nothing, even when IDs line up.
	viewing := Actor{ID: "user-v", Role: domain.RoleViewing}
	assert.False(t, CanAccess(viewing, owners, ActionRead))

	// Anonymous actors are denied before the role switch.
	assert.False(t, CanAccess(Actor{}, owners, ActionRead))

	// Unknown roles fall through to deny.
	unknown := Actor{ID: "user-v", Role: domain.Role("superuser")}
	assert.False(t, CanAccess(unknown, owners, ActionWrite))
}

func TestScope(t *testing.T) {
	all := AllAccounts()
	assert.True(t, all.All())
	assert.False(t, all.Empty())
	assert.True(t, all.Contains("acct-1"))
	assert.True(t, all.Contains("")) // legacy records visible only here

	some := Accounts("acct-1", "acct-2")
	assert.False(t, some.All())
	assert.False(t, some.Empty())
	assert.True(t, some.Contains("acct-1"))
	assert.False(t, some.Contains("acct-3"))
	assert.False(t, some.Contains(""))
	assert.Equal(t, 2, some.Len())

	none := NoAccounts()
	assert.True(t, none.Empty())
	assert.False(t, none.Contains("acct-1"))
}

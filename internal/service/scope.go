package service

import (
	"fmt"

	"github.com/rankdeskapp/rankdesk-server/internal/access"
	"github.com/rankdeskapp/rankdesk-server/internal/domain"
	domainerrors "github.com/rankdeskapp/rankdesk-server/internal/errors"
	"github.com/rankdeskapp/rankdesk-server/internal/store"
)

// accountScope resolves the set of SEO account IDs the actor may see.
//
// Admin and Owner get the unfiltered sentinel. Agencies get the union of
// accounts they own or are assigned. Clients get the accounts linked to
// them by invitation redemption. The reserved viewing role resolves to
// nothing.
//
// Anonymous callers on read-only listings also get the sentinel; the
// public site reads unauthenticated.
func accountScope(st *store.Store, actor access.Actor) (access.Scope, error) {
	if actor.Anonymous() {
		return access.AllAccounts(), nil
	}

	switch actor.Role {
	case domain.RoleAdmin, domain.RoleOwner:
		return access.AllAccounts(), nil
	case domain.RoleAgency:
		ids, err := st.AccountIDsOwnedOrAssigned(actor.ID)
		if err != nil {
			return access.NoAccounts(), fmt.Errorf("resolve agency scope: %w", err)
		}
		return access.Accounts(ids...), nil
	case domain.RoleClient:
		ids, err := st.AccountIDsForClient(actor.ID)
		if err != nil {
			return access.NoAccounts(), fmt.Errorf("resolve client scope: %w", err)
		}
		return access.Accounts(ids...), nil
	default:
		return access.NoAccounts(), nil
	}
}

// accessDenied maps a failed ownership check onto the error taxonomy:
// a caller with no credential is unauthenticated, a known caller is
// forbidden.
func accessDenied(actor access.Actor, message string) error {
	if actor.Anonymous() {
		return domainerrors.Unauthorized("authentication required")
	}
	return domainerrors.Forbidden(message)
}

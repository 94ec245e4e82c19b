package access

// Scope is the set of SEO account IDs an actor may see. The all sentinel
// means no filter is applied; an empty non-all scope matches nothing and
// callers short-circuit to an empty result instead of querying.
type Scope struct {
	all bool
	ids map[string]struct{}
}

// AllAccounts returns the unfiltered sentinel scope.
func AllAccounts() Scope {
	return Scope{all: true}
}

// Accounts returns a scope limited to the given account IDs.
func Accounts(ids ...string) Scope {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return Scope{ids: set}
}

// NoAccounts returns the empty scope.
func NoAccounts() Scope {
	return Scope{}
}

// All reports whether the scope is the unfiltered sentinel.
func (s Scope) All() bool {
	return s.all
}

// Empty reports whether the scope matches nothing.
func (s Scope) Empty() bool {
	return !s.all && len(s.ids) == 0
}

// Contains reports whether the account ID is in scope. Child resources
// with no owning account (legacy records) are visible only to the
// unfiltered scope.
func (s Scope) Contains(accountID string) bool {
	if s.all {
		return true
	}
	if accountID == "" {
		return false
	}
	_, ok := s.ids[accountID]
	return ok
}

// Len returns the number of explicit account IDs in scope (0 for the
// all sentinel).
func (s Scope) Len() int {
	return len(s.ids)
}

// IDs returns the explicit account IDs in scope. Nil for the all sentinel;
// callers must check All() first when building queries.
func (s Scope) IDs() []string {
	if s.all {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

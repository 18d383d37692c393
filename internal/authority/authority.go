// Package authority derives the effective authority set of an account from
// its roles. Resolution is pure and must be re-evaluated on every
// authentication event: role and permission assignments change between
// sessions and the result is never cached here.
package authority

import (
	"sort"

	"github.com/lims-platform/identity/internal/roles"
)

// Kind distinguishes the origin of an authority token. Roles and permissions
// live in separate namespaces internally; they are flattened to plain strings
// only at the output boundary.
type Kind int

const (
	// KindRole marks an authority backed by a role name.
	KindRole Kind = iota
	// KindPermission marks an authority backed by a permission name.
	KindPermission
)

// Authority is a single grantable token.
type Authority struct {
	Kind Kind
	Name string
}

// Set is an unordered, deduplicated collection of authorities.
type Set map[Authority]struct{}

// Resolve maps a role set (permissions already loaded) into the account's
// effective authority set: every role name plus every permission name owned
// by any of the roles.
func Resolve(roleSet []roles.Role) Set {
	set := make(Set)
	for _, role := range roleSet {
		set[Authority{Kind: KindRole, Name: role.Name}] = struct{}{}
		for _, perm := range role.Permissions {
			set[Authority{Kind: KindPermission, Name: perm.Name}] = struct{}{}
		}
	}
	return set
}

// Strings flattens the set to sorted plain tokens for the access-decision
// layer. A role and a permission sharing a name collapse to one token here,
// never earlier.
func (s Set) Strings() []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for a := range s {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		out = append(out, a.Name)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the set grants the given token, regardless of
// whether it originates from a role or a permission.
func (s Set) Contains(name string) bool {
	if _, ok := s[Authority{Kind: KindRole, Name: name}]; ok {
		return true
	}
	_, ok := s[Authority{Kind: KindPermission, Name: name}]
	return ok
}

// Package roles maps role identifiers to sets of accounts.
//
// Every role has an administering role (AdminRole unless configured
// otherwise); only holders of the administering role may grant or revoke it.
// AdminRole administers itself. The registry refuses to remove the last
// holder of AdminRole so that the admin set never becomes empty.
package roles

import (
	"slices"

	"github.com/togethercrew/engagement/internal/identity"
)

// Registry holds role assignments.
//
// Registry is not safe for concurrent use; the owning registry serialises access.
type Registry struct {
	members map[identity.Role]map[identity.Address]struct{}
	admins  map[identity.Role]identity.Role
}

// New creates a registry with admin granted AdminRole.
func New(admin identity.Address) *Registry {
	r := &Registry{
		members: make(map[identity.Role]map[identity.Address]struct{}),
		admins:  make(map[identity.Role]identity.Role),
	}
	r.set(identity.AdminRole, admin)
	return r
}

// Has reports whether account holds role.
func (r *Registry) Has(role identity.Role, account identity.Address) bool {
	_, ok := r.members[role][account]
	return ok
}

// AdminOf returns the role that administers role.
func (r *Registry) AdminOf(role identity.Role) identity.Role {
	if admin, ok := r.admins[role]; ok {
		return admin
	}
	return identity.AdminRole
}

// SetAdmin makes adminRole the administering role of role.
// Only used while assembling a registry; it performs no authorization.
func (r *Registry) SetAdmin(role, adminRole identity.Role) {
	if adminRole == identity.AdminRole {
		delete(r.admins, role)
		return
	}
	r.admins[role] = adminRole
}

// Bootstrap grants role to account without an authorization check.
// Used for deployment-time assignments only.
func (r *Registry) Bootstrap(role identity.Role, account identity.Address) {
	r.set(role, account)
}

// Authorize returns an UnauthorizedError unless caller may administer role.
func (r *Registry) Authorize(caller identity.Address, role identity.Role) error {
	admin := r.AdminOf(role)
	if !r.Has(admin, caller) {
		return &UnauthorizedError{Account: caller, Role: admin}
	}
	return nil
}

// Grant gives role to account on behalf of caller.
// Returns changed=false when account already held role.
func (r *Registry) Grant(caller identity.Address, role identity.Role, account identity.Address) (changed bool, err error) {
	if err := r.Authorize(caller, role); err != nil {
		return false, err
	}
	if r.Has(role, account) {
		return false, nil
	}
	r.set(role, account)
	return true, nil
}

// Revoke removes role from account on behalf of caller.
// Returns changed=false when account did not hold role.
func (r *Registry) Revoke(caller identity.Address, role identity.Role, account identity.Address) (changed bool, err error) {
	if err := r.Authorize(caller, role); err != nil {
		return false, err
	}
	return r.remove(role, account)
}

// Renounce removes role from the caller. confirmation must equal caller.
func (r *Registry) Renounce(caller identity.Address, role identity.Role, confirmation identity.Address) (changed bool, err error) {
	if confirmation != caller {
		return false, ErrBadConfirmation
	}
	return r.remove(role, caller)
}

// Members returns the holders of role in address order.
func (r *Registry) Members(role identity.Role) []identity.Address {
	set := r.members[role]
	out := make([]identity.Address, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	slices.SortFunc(out, identity.Address.Compare)
	return out
}

func (r *Registry) set(role identity.Role, account identity.Address) {
	set, ok := r.members[role]
	if !ok {
		set = make(map[identity.Address]struct{})
		r.members[role] = set
	}
	set[account] = struct{}{}
}

func (r *Registry) remove(role identity.Role, account identity.Address) (bool, error) {
	if !r.Has(role, account) {
		return false, nil
	}
	if role == identity.AdminRole && len(r.members[role]) == 1 {
		return false, &LastAdminError{Role: role}
	}
	delete(r.members[role], account)
	return true, nil
}

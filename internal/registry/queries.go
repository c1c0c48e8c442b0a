package registry

import (
	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/scores"
	"github.com/togethercrew/engagement/internal/token"
	"github.com/togethercrew/engagement/internal/uri"
)

// URI returns the locator of tokenID. account is required when the scheme
// renders {account}; pass identity.ZeroAddress otherwise.
func (r *Registry) URI(tokenID uint64, account identity.Address) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, err := r.tokens.Class(tokenID)
	if err != nil {
		return "", err
	}
	return r.tokenURI.Format(uri.Values{
		Base:    r.baseURI,
		TokenID: tokenID,
		Account: account,
		Hash:    class.Hash,
	})
}

// GetScores returns the locator of account's score record for tokenID in
// the content published for date. A date with no publication composes with
// an empty cid.
func (r *Registry) GetScores(date, tokenID uint64, account identity.Address) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	class, err := r.tokens.Class(tokenID)
	if err != nil {
		return "", err
	}
	return r.scoreURI.Format(uri.Values{
		Base:    r.baseURI,
		TokenID: tokenID,
		Account: account,
		Date:    date,
		CID:     r.scores.Get(date),
		Hash:    class.Hash,
	})
}

// BalanceOf returns account's wrapper balance of tokenID. Unknown classes read 0.
func (r *Registry) BalanceOf(account identity.Address, tokenID uint64) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens.BalanceOf(account, tokenID)
}

// TotalSupply returns the number of accounts holding a unit of tokenID.
func (r *Registry) TotalSupply(tokenID uint64) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens.TotalSupply(tokenID)
}

// Counter returns the number of issued classes, which is also the next id.
func (r *Registry) Counter() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens.Counter()
}

// Exists reports whether tokenID has been issued.
func (r *Registry) Exists(tokenID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens.Exists(tokenID)
}

// Class returns the issued class tokenID.
func (r *Registry) Class(tokenID uint64) (token.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens.Class(tokenID)
}

// HasRole reports whether account holds role.
func (r *Registry) HasRole(role identity.Role, account identity.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles.Has(role, account)
}

// GetRoleAdmin returns the role that administers role.
func (r *Registry) GetRoleAdmin(role identity.Role) identity.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles.AdminOf(role)
}

// RoleMembers returns the holders of role in address order.
func (r *Registry) RoleMembers(role identity.Role) []identity.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roles.Members(role)
}

// BaseURI returns the current base URI.
func (r *Registry) BaseURI() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseURI
}

// Paused reports whether mint and burn are blocked.
func (r *Registry) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// Scores returns every published score record in date order.
func (r *Registry) Scores() []scores.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scores.Records()
}

// Events returns every event emitted so far, in order.
func (r *Registry) Events() []events.Event {
	return r.log.All()
}

// Seq returns the sequence number of the last emitted event.
func (r *Registry) Seq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Snapshot is a point-in-time summary of registry state.
type Snapshot struct {
	BaseURI   string
	Paused    bool
	Counter   uint64
	Seq       uint64
	Admins    []identity.Address
	Providers []identity.Address
	Supply    []uint64
	Scores    []scores.Record
}

// Snapshot summarises the registry under one read lock.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counter := r.tokens.Counter()
	supply := make([]uint64, counter)
	for id := uint64(0); id < counter; id++ {
		supply[id] = r.tokens.TotalSupply(id)
	}
	return Snapshot{
		BaseURI:   r.baseURI,
		Paused:    r.paused,
		Counter:   counter,
		Seq:       r.seq,
		Admins:    r.roles.Members(identity.AdminRole),
		Providers: r.roles.Members(identity.ProviderRole),
		Supply:    supply,
		Scores:    r.scores.Records(),
	}
}

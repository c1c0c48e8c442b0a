// Package token tracks issued token classes and single-unit wrapper balances.
//
// A class moves from NonExistent to Issued exactly once, through Issue, and
// never back. Class ids are assigned sequentially from 0, so a class exists
// iff its id is below the counter. Each (class, account) pair holds either
// zero or one wrapper unit.
package token

import (
	"github.com/togethercrew/engagement/internal/identity"
)

// Unit is the only wrapper amount an account can hold.
const Unit uint64 = 1

type balanceKey struct {
	tokenID uint64
	account identity.Address
}

// Class describes an issued token class.
type Class struct {
	ID     uint64
	Issuer identity.Address
	Hash   string // metadata content hash, empty when not supplied at issue
}

// Registry is the token state machine.
//
// Registry is not safe for concurrent use; the owning registry serialises access.
// Every mutator validates before writing, so a returned error means no state changed.
type Registry struct {
	nextID   uint64
	classes  []Class
	balances map[balanceKey]uint64
	supply   map[uint64]uint64
}

// New returns an empty registry with the counter at 0.
func New() *Registry {
	return &Registry{
		balances: make(map[balanceKey]uint64),
		supply:   make(map[uint64]uint64),
	}
}

// Issue creates the next token class and returns its id.
// Authorization is the caller's concern.
func (r *Registry) Issue(issuer identity.Address, hash string) uint64 {
	id := r.nextID
	r.classes = append(r.classes, Class{ID: id, Issuer: issuer, Hash: hash})
	r.nextID++
	return id
}

// Counter returns the id the next Issue will assign, which equals the
// number of issued classes.
func (r *Registry) Counter() uint64 {
	return r.nextID
}

// Exists reports whether tokenID has been issued.
func (r *Registry) Exists(tokenID uint64) bool {
	return tokenID < r.nextID
}

// Class returns the issued class for tokenID.
func (r *Registry) Class(tokenID uint64) (Class, error) {
	if !r.Exists(tokenID) {
		return Class{}, &NotFoundError{TokenID: tokenID}
	}
	return r.classes[tokenID], nil
}

// RequireExists returns a NotFoundError unless tokenID has been issued.
func (r *Registry) RequireExists(tokenID uint64) error {
	if !r.Exists(tokenID) {
		return &NotFoundError{TokenID: tokenID}
	}
	return nil
}

// CheckMint validates a mint without applying it. The amount never fails a
// mint; it is capped when the balance is written.
func (r *Registry) CheckMint(account identity.Address, tokenID uint64) error {
	if err := r.RequireExists(tokenID); err != nil {
		return err
	}
	if r.BalanceOf(account, tokenID) != 0 {
		return &MintLimitError{Account: account, TokenID: tokenID}
	}
	return nil
}

// Mint sets account's balance of tokenID to amount capped at one Unit.
// Fails with NotFound or MintLimit, in that order. The limit is checked
// against the current balance, so an account may mint again after burning.
// A zero amount succeeds and leaves the balance at zero.
func (r *Registry) Mint(account identity.Address, tokenID, amount uint64) error {
	if err := r.CheckMint(account, tokenID); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	r.balances[balanceKey{tokenID: tokenID, account: account}] = Unit
	r.supply[tokenID]++
	return nil
}

// CheckBurn validates a burn without applying it.
// Ownership is checked before existence.
func (r *Registry) CheckBurn(caller, account identity.Address, tokenID uint64) error {
	if caller != account {
		return &NotAllowedError{Account: account, TokenID: tokenID}
	}
	return r.RequireExists(tokenID)
}

// Burn clears the caller's own unit of tokenID. Burning an empty balance
// leaves it at zero. The amount argument is accepted for interface parity
// and does not affect the outcome since balances never exceed one unit.
func (r *Registry) Burn(caller, account identity.Address, tokenID, amount uint64) error {
	if err := r.CheckBurn(caller, account, tokenID); err != nil {
		return err
	}
	key := balanceKey{tokenID: tokenID, account: account}
	if r.balances[key] != 0 {
		delete(r.balances, key)
		r.supply[tokenID]--
	}
	return nil
}

// BalanceOf returns the wrapper balance of account for tokenID.
// Unknown classes read as zero.
func (r *Registry) BalanceOf(account identity.Address, tokenID uint64) uint64 {
	return r.balances[balanceKey{tokenID: tokenID, account: account}]
}

// TotalSupply returns the number of accounts holding a unit of tokenID.
func (r *Registry) TotalSupply(tokenID uint64) uint64 {
	return r.supply[tokenID]
}

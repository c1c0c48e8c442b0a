package registry

import (
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/token"
)

// Op names a mutating registry operation.
type Op string

// Mutating operations.
const (
	OpIssue         Op = "issue"
	OpMint          Op = "mint"
	OpBurn          Op = "burn"
	OpUpdateBaseURI Op = "updateBaseURI"
	OpUpdateScores  Op = "updateScores"
	OpGrantRole     Op = "grantRole"
	OpRevokeRole    Op = "revokeRole"
	OpRenounceRole  Op = "renounceRole"
	OpPause         Op = "pause"
	OpUnpause       Op = "unpause"
)

type requirement int

const (
	// anyone may call
	requireNone requirement = iota
	// caller must hold a fixed role
	requireRole
	// caller must hold the administering role of the target role
	requireRoleAdmin
	// caller must be the target account
	requireSelf
)

type rule struct {
	require  requirement
	role     identity.Role
	pausable bool
}

var accessTable = map[Op]rule{
	OpIssue:         {require: requireRole, role: identity.AdminRole},
	OpMint:          {require: requireNone, pausable: true},
	OpBurn:          {require: requireSelf, pausable: true},
	OpUpdateBaseURI: {require: requireRole, role: identity.AdminRole},
	OpUpdateScores:  {require: requireRole, role: identity.ProviderRole},
	OpGrantRole:     {require: requireRoleAdmin},
	OpRevokeRole:    {require: requireRoleAdmin},
	OpRenounceRole:  {require: requireNone},
	OpPause:         {require: requireRole, role: identity.AdminRole},
	OpUnpause:       {require: requireRole, role: identity.AdminRole},
}

// Ops returns every mutating operation.
func Ops() []Op {
	return []Op{
		OpIssue, OpMint, OpBurn, OpUpdateBaseURI, OpUpdateScores,
		OpGrantRole, OpRevokeRole, OpRenounceRole, OpPause, OpUnpause,
	}
}

// subject carries the operation arguments the gate inspects.
type subject struct {
	role    identity.Role
	account identity.Address
	tokenID uint64
}

// gate enforces the access rule for op. Callers hold r.mu.
func (r *Registry) gate(op Op, caller identity.Address, s subject) error {
	rl, ok := accessTable[op]
	if !ok {
		return &UnknownOpError{Op: string(op)}
	}
	if rl.pausable && r.paused {
		return ErrEnforcedPause
	}
	switch rl.require {
	case requireRole:
		if !r.roles.Has(rl.role, caller) {
			return unauthorized(caller, rl.role)
		}
	case requireRoleAdmin:
		return r.roles.Authorize(caller, s.role)
	case requireSelf:
		if caller != s.account {
			return &token.NotAllowedError{Account: s.account, TokenID: s.tokenID}
		}
	}
	return nil
}

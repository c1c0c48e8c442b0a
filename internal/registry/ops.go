package registry

import (
	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/uri"
)

// Issue creates the next token class on behalf of an admin caller and
// returns its id. hash is the class metadata hash; it is required when the
// token locator scheme renders {hash}. Issuing does not mint a wrapper unit.
func (r *Registry) Issue(caller identity.Address, hash string) (tokenID uint64, evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpIssue, caller, err) }()

	if err = r.gate(OpIssue, caller, subject{}); err != nil {
		return 0, nil, err
	}
	if hash == "" && r.tokenURI.Uses(uri.FieldHash) {
		return 0, nil, uri.ErrEmptyHash
	}

	tokenID = r.tokens.Issue(caller, hash)
	r.metrics.SetClasses(r.tokens.Counter())
	return tokenID, r.emit(events.Issue(tokenID, caller, hash)), nil
}

// Mint gives account one wrapper unit of tokenID. Any caller may mint.
// Amounts above one are capped and a zero amount leaves the balance empty.
// data is opaque and not interpreted.
func (r *Registry) Mint(caller, account identity.Address, tokenID, amount uint64, data []byte) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpMint, caller, err) }()

	if err = r.gate(OpMint, caller, subject{account: account, tokenID: tokenID}); err != nil {
		return nil, err
	}
	if err = r.tokens.Mint(account, tokenID, amount); err != nil {
		return nil, err
	}
	r.logger.Debug("minted", "token_id", tokenID, "account", account.String(), "data_len", len(data))
	return r.emit(events.Mint(tokenID, account)), nil
}

// Burn clears account's wrapper unit of tokenID. Only account itself may burn.
func (r *Registry) Burn(caller, account identity.Address, tokenID, amount uint64) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpBurn, caller, err) }()

	if err = r.gate(OpBurn, caller, subject{account: account, tokenID: tokenID}); err != nil {
		return nil, err
	}
	if err = r.tokens.Burn(caller, account, tokenID, amount); err != nil {
		return nil, err
	}
	return r.emit(events.Burn(tokenID, account)), nil
}

// UpdateBaseURI replaces the base URI. newURI must be non-empty.
func (r *Registry) UpdateBaseURI(caller identity.Address, newURI string) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpUpdateBaseURI, caller, err) }()

	if err = r.gate(OpUpdateBaseURI, caller, subject{}); err != nil {
		return nil, err
	}
	if newURI == "" {
		return nil, ErrURIEmpty
	}
	old := r.baseURI
	r.baseURI = newURI
	return r.emit(events.BaseURIUpdated(old, newURI)), nil
}

// UpdateScores publishes cid as the score content for date. A later
// publication for the same date replaces the earlier one.
func (r *Registry) UpdateScores(caller identity.Address, date uint64, cid string) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpUpdateScores, caller, err) }()

	if err = r.gate(OpUpdateScores, caller, subject{}); err != nil {
		return nil, err
	}
	if previous := r.scores.Put(date, cid); previous != "" {
		r.logger.Debug("scores overwritten", "date", date, "previous", previous, "cid", cid)
	}
	return r.emit(events.UpdateScores(caller, date, cid)), nil
}

// GrantRole gives role to account. Granting a held role succeeds without
// emitting anything.
func (r *Registry) GrantRole(caller identity.Address, role identity.Role, account identity.Address) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpGrantRole, caller, err) }()

	if err = r.gate(OpGrantRole, caller, subject{role: role, account: account}); err != nil {
		return nil, err
	}
	changed, err := r.roles.Grant(caller, role, account)
	if err != nil || !changed {
		return nil, err
	}
	return r.emit(events.RoleGranted(role, account, caller)), nil
}

// RevokeRole removes role from account. Revoking an unheld role succeeds
// without emitting anything. The last admin cannot be revoked.
func (r *Registry) RevokeRole(caller identity.Address, role identity.Role, account identity.Address) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpRevokeRole, caller, err) }()

	if err = r.gate(OpRevokeRole, caller, subject{role: role, account: account}); err != nil {
		return nil, err
	}
	changed, err := r.roles.Revoke(caller, role, account)
	if err != nil || !changed {
		return nil, err
	}
	return r.emit(events.RoleRevoked(role, account, caller)), nil
}

// RenounceRole removes role from the caller. confirmation must be the
// caller's own address.
func (r *Registry) RenounceRole(caller identity.Address, role identity.Role, confirmation identity.Address) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpRenounceRole, caller, err) }()

	if err = r.gate(OpRenounceRole, caller, subject{role: role, account: confirmation}); err != nil {
		return nil, err
	}
	changed, err := r.roles.Renounce(caller, role, confirmation)
	if err != nil || !changed {
		return nil, err
	}
	return r.emit(events.RoleRevoked(role, caller, caller)), nil
}

// Pause blocks mint and burn until Unpause.
func (r *Registry) Pause(caller identity.Address) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpPause, caller, err) }()

	if err = r.gate(OpPause, caller, subject{}); err != nil {
		return nil, err
	}
	if r.paused {
		return nil, ErrEnforcedPause
	}
	r.paused = true
	return r.emit(events.Paused(caller)), nil
}

// Unpause lifts a pause.
func (r *Registry) Unpause(caller identity.Address) (evs []events.Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done(OpUnpause, caller, err) }()

	if err = r.gate(OpUnpause, caller, subject{}); err != nil {
		return nil, err
	}
	if !r.paused {
		return nil, ErrExpectedPause
	}
	r.paused = false
	return r.emit(events.Unpaused(caller)), nil
}

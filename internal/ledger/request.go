package ledger

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/registry"
)

// Argument keys used in journaled transactions.
const (
	ArgHash         = "hash"
	ArgAccount      = "account"
	ArgTokenID      = "token_id"
	ArgAmount       = "amount"
	ArgData         = "data"
	ArgURI          = "uri"
	ArgDate         = "date"
	ArgCID          = "cid"
	ArgRole         = "role"
	ArgConfirmation = "confirmation"
)

// Request is an operation submitted by an authenticated caller.
type Request struct {
	Op     registry.Op
	Caller identity.Address
	Args   ir.Object
}

// Issue requests a new token class.
func Issue(caller identity.Address, hash string) Request {
	args := ir.Object{}
	if hash != "" {
		args[ArgHash] = ir.String(hash)
	}
	return Request{Op: registry.OpIssue, Caller: caller, Args: args}
}

// Mint requests a wrapper unit of tokenID for account.
func Mint(caller, account identity.Address, tokenID, amount uint64, data []byte) Request {
	return Request{Op: registry.OpMint, Caller: caller, Args: ir.Object{
		ArgAccount: ir.String(account.String()),
		ArgTokenID: ir.Uint(tokenID),
		ArgAmount:  ir.Uint(amount),
		ArgData:    ir.String(hexutil.Encode(data)),
	}}
}

// Burn requests that account's wrapper unit of tokenID be cleared.
func Burn(caller, account identity.Address, tokenID, amount uint64) Request {
	return Request{Op: registry.OpBurn, Caller: caller, Args: ir.Object{
		ArgAccount: ir.String(account.String()),
		ArgTokenID: ir.Uint(tokenID),
		ArgAmount:  ir.Uint(amount),
	}}
}

// UpdateBaseURI requests a new base URI.
func UpdateBaseURI(caller identity.Address, uri string) Request {
	return Request{Op: registry.OpUpdateBaseURI, Caller: caller, Args: ir.Object{
		ArgURI: ir.String(uri),
	}}
}

// UpdateScores requests publication of cid for date.
func UpdateScores(caller identity.Address, date uint64, cid string) Request {
	return Request{Op: registry.OpUpdateScores, Caller: caller, Args: ir.Object{
		ArgDate: ir.Uint(date),
		ArgCID:  ir.String(cid),
	}}
}

// GrantRole requests that account receive role.
func GrantRole(caller identity.Address, role identity.Role, account identity.Address) Request {
	return roleRequest(registry.OpGrantRole, caller, role, ArgAccount, account)
}

// RevokeRole requests that account lose role.
func RevokeRole(caller identity.Address, role identity.Role, account identity.Address) Request {
	return roleRequest(registry.OpRevokeRole, caller, role, ArgAccount, account)
}

// RenounceRole requests that the caller give up role.
func RenounceRole(caller identity.Address, role identity.Role, confirmation identity.Address) Request {
	return roleRequest(registry.OpRenounceRole, caller, role, ArgConfirmation, confirmation)
}

// Pause requests a pause of mint and burn.
func Pause(caller identity.Address) Request {
	return Request{Op: registry.OpPause, Caller: caller, Args: ir.Object{}}
}

// Unpause requests that a pause be lifted.
func Unpause(caller identity.Address) Request {
	return Request{Op: registry.OpUnpause, Caller: caller, Args: ir.Object{}}
}

func roleRequest(op registry.Op, caller identity.Address, role identity.Role, key string, account identity.Address) Request {
	return Request{Op: op, Caller: caller, Args: ir.Object{
		ArgRole: ir.String(role.String()),
		key:     ir.String(account.String()),
	}}
}

package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/registry"
)

// call applies a decoded request to a registry.
type call func(reg *registry.Registry) (ir.Object, []events.Event, error)

// binder decodes request arguments into a call.
type binder func(caller identity.Address, args ir.Object) (call, error)

var dispatch = map[registry.Op]binder{
	registry.OpIssue:         bindIssue,
	registry.OpMint:          bindMint,
	registry.OpBurn:          bindBurn,
	registry.OpUpdateBaseURI: bindUpdateBaseURI,
	registry.OpUpdateScores:  bindUpdateScores,
	registry.OpGrantRole:     bindRole(registry.OpGrantRole, ArgAccount),
	registry.OpRevokeRole:    bindRole(registry.OpRevokeRole, ArgAccount),
	registry.OpRenounceRole:  bindRole(registry.OpRenounceRole, ArgConfirmation),
	registry.OpPause:         bindPause,
	registry.OpUnpause:       bindUnpause,
}

// bind validates req and returns the call that applies it. Malformed
// requests are rejected here, before they are sequenced or journaled.
func bind(req Request) (call, error) {
	b, ok := dispatch[req.Op]
	if !ok {
		return nil, &ArgumentError{Op: string(req.Op), Message: "unknown operation"}
	}
	if req.Caller.IsZero() {
		return nil, &ArgumentError{Op: string(req.Op), Message: "caller is required"}
	}
	c, err := b(req.Caller, req.Args)
	if err != nil {
		return nil, &ArgumentError{Op: string(req.Op), Message: err.Error()}
	}
	return c, nil
}

func noResult(evs []events.Event, err error) (ir.Object, []events.Event, error) {
	return ir.Object{}, evs, err
}

func bindIssue(caller identity.Address, args ir.Object) (call, error) {
	hash, err := args.StrOr(ArgHash, "")
	if err != nil {
		return nil, err
	}
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		id, evs, err := reg.Issue(caller, hash)
		if err != nil {
			return ir.Object{}, nil, err
		}
		return ir.Object{"token_id": ir.Uint(id)}, evs, nil
	}, nil
}

func bindMint(caller identity.Address, args ir.Object) (call, error) {
	account, err := addressArg(args, ArgAccount)
	if err != nil {
		return nil, err
	}
	tokenID, err := args.Uint(ArgTokenID)
	if err != nil {
		return nil, err
	}
	amount, err := args.Uint(ArgAmount)
	if err != nil {
		return nil, err
	}
	encoded, err := args.StrOr(ArgData, "0x")
	if err != nil {
		return nil, err
	}
	data, err := hexutil.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", ArgData, err)
	}
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		return noResult(reg.Mint(caller, account, tokenID, amount, data))
	}, nil
}

func bindBurn(caller identity.Address, args ir.Object) (call, error) {
	account, err := addressArg(args, ArgAccount)
	if err != nil {
		return nil, err
	}
	tokenID, err := args.Uint(ArgTokenID)
	if err != nil {
		return nil, err
	}
	amount, err := args.Uint(ArgAmount)
	if err != nil {
		return nil, err
	}
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		return noResult(reg.Burn(caller, account, tokenID, amount))
	}, nil
}

func bindUpdateBaseURI(caller identity.Address, args ir.Object) (call, error) {
	uri, err := args.Str(ArgURI)
	if err != nil {
		return nil, err
	}
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		return noResult(reg.UpdateBaseURI(caller, uri))
	}, nil
}

func bindUpdateScores(caller identity.Address, args ir.Object) (call, error) {
	date, err := args.Uint(ArgDate)
	if err != nil {
		return nil, err
	}
	cid, err := args.Str(ArgCID)
	if err != nil {
		return nil, err
	}
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		return noResult(reg.UpdateScores(caller, date, cid))
	}, nil
}

func bindRole(op registry.Op, accountKey string) binder {
	return func(caller identity.Address, args ir.Object) (call, error) {
		s, err := args.Str(ArgRole)
		if err != nil {
			return nil, err
		}
		role, err := identity.ParseRole(s)
		if err != nil {
			return nil, err
		}
		account, err := addressArg(args, accountKey)
		if err != nil {
			return nil, err
		}
		return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
			switch op {
			case registry.OpGrantRole:
				return noResult(reg.GrantRole(caller, role, account))
			case registry.OpRevokeRole:
				return noResult(reg.RevokeRole(caller, role, account))
			default:
				return noResult(reg.RenounceRole(caller, role, account))
			}
		}, nil
	}
}

func bindPause(caller identity.Address, _ ir.Object) (call, error) {
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		return noResult(reg.Pause(caller))
	}, nil
}

func bindUnpause(caller identity.Address, _ ir.Object) (call, error) {
	return func(reg *registry.Registry) (ir.Object, []events.Event, error) {
		return noResult(reg.Unpause(caller))
	}, nil
}

func addressArg(args ir.Object, key string) (identity.Address, error) {
	s, err := args.Str(key)
	if err != nil {
		return identity.Address{}, err
	}
	a, err := identity.ParseAddress(s)
	if err != nil {
		return identity.Address{}, fmt.Errorf("field %q: %w", key, err)
	}
	return a, nil
}

// Package events defines the notifications emitted by successful registry
// mutations and the append-only sinks that record them.
package events

import (
	"fmt"
	"strconv"

	"github.com/togethercrew/engagement/internal/identity"
)

// Kind names a notification.
type Kind string

// Notification kinds.
const (
	KindIssue          Kind = "Issue"
	KindMint           Kind = "Mint"
	KindBurn           Kind = "Burn"
	KindBaseURIUpdated Kind = "BaseURIUpdated"
	KindUpdateScores   Kind = "UpdateScores"
	KindRoleGranted    Kind = "RoleGranted"
	KindRoleRevoked    Kind = "RoleRevoked"
	KindPaused         Kind = "Paused"
	KindUnpaused       Kind = "Unpaused"
)

var kinds = map[Kind]bool{
	KindIssue: true, KindMint: true, KindBurn: true, KindBaseURIUpdated: true,
	KindUpdateScores: true, KindRoleGranted: true, KindRoleRevoked: true,
	KindPaused: true, KindUnpaused: true,
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !kinds[k] {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}

// Event is one notification. Only the fields relevant to Kind are set.
type Event struct {
	Seq     uint64
	Kind    Kind
	TokenID uint64
	Account identity.Address
	Sender  identity.Address
	Role    identity.Role
	Date    uint64
	CID     string
	OldURI  string
	NewURI  string
	Hash    string
}

// Issue is emitted when a token class is created.
func Issue(tokenID uint64, account identity.Address, hash string) Event {
	return Event{Kind: KindIssue, TokenID: tokenID, Account: account, Hash: hash}
}

// Mint is emitted when account receives a wrapper unit.
func Mint(tokenID uint64, account identity.Address) Event {
	return Event{Kind: KindMint, TokenID: tokenID, Account: account}
}

// Burn is emitted when account clears its wrapper unit.
func Burn(tokenID uint64, account identity.Address) Event {
	return Event{Kind: KindBurn, TokenID: tokenID, Account: account}
}

// BaseURIUpdated is emitted when the base URI changes.
func BaseURIUpdated(oldURI, newURI string) Event {
	return Event{Kind: KindBaseURIUpdated, OldURI: oldURI, NewURI: newURI}
}

// UpdateScores is emitted when a provider publishes scores for date.
func UpdateScores(account identity.Address, date uint64, cid string) Event {
	return Event{Kind: KindUpdateScores, Account: account, Date: date, CID: cid}
}

// RoleGranted is emitted when account newly receives role.
func RoleGranted(role identity.Role, account, sender identity.Address) Event {
	return Event{Kind: KindRoleGranted, Role: role, Account: account, Sender: sender}
}

// RoleRevoked is emitted when account loses role.
func RoleRevoked(role identity.Role, account, sender identity.Address) Event {
	return Event{Kind: KindRoleRevoked, Role: role, Account: account, Sender: sender}
}

// Paused is emitted when account pauses minting and burning.
func Paused(account identity.Address) Event {
	return Event{Kind: KindPaused, Account: account}
}

// Unpaused is emitted when account lifts a pause.
func Unpaused(account identity.Address) Event {
	return Event{Kind: KindUnpaused, Account: account}
}

// Fields returns the kind-specific payload keyed by the contract's argument
// names. Values are strings or uint64.
func (e Event) Fields() map[string]any {
	switch e.Kind {
	case KindIssue:
		f := map[string]any{"tokenId": e.TokenID, "account": e.Account.String()}
		if e.Hash != "" {
			f["hash"] = e.Hash
		}
		return f
	case KindMint, KindBurn:
		return map[string]any{"tokenId": e.TokenID, "account": e.Account.String()}
	case KindBaseURIUpdated:
		return map[string]any{"oldURI": e.OldURI, "newURI": e.NewURI}
	case KindUpdateScores:
		return map[string]any{"account": e.Account.String(), "date": e.Date, "cid": e.CID}
	case KindRoleGranted, KindRoleRevoked:
		return map[string]any{"role": e.Role.String(), "account": e.Account.String(), "sender": e.Sender.String()}
	case KindPaused, KindUnpaused:
		return map[string]any{"account": e.Account.String()}
	}
	return map[string]any{}
}

// String renders the event in contract log style, e.g. Mint(tokenId=0, account=0x…).
func (e Event) String() string {
	switch e.Kind {
	case KindIssue:
		if e.Hash != "" {
			return fmt.Sprintf("Issue(tokenId=%d, account=%s, hash=%s)", e.TokenID, e.Account, e.Hash)
		}
		return fmt.Sprintf("Issue(tokenId=%d, account=%s)", e.TokenID, e.Account)
	case KindMint, KindBurn:
		return fmt.Sprintf("%s(tokenId=%d, account=%s)", e.Kind, e.TokenID, e.Account)
	case KindBaseURIUpdated:
		return fmt.Sprintf("BaseURIUpdated(oldURI=%s, newURI=%s)", strconv.Quote(e.OldURI), strconv.Quote(e.NewURI))
	case KindUpdateScores:
		return fmt.Sprintf("UpdateScores(account=%s, date=%d, cid=%s)", e.Account, e.Date, strconv.Quote(e.CID))
	case KindRoleGranted, KindRoleRevoked:
		return fmt.Sprintf("%s(role=%s, account=%s, sender=%s)", e.Kind, e.Role.Name(), e.Account, e.Sender)
	case KindPaused, KindUnpaused:
		return fmt.Sprintf("%s(account=%s)", e.Kind, e.Account)
	}
	return string(e.Kind)
}

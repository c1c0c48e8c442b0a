package token

import (
	"fmt"

	"github.com/togethercrew/engagement/internal/identity"
)

// Error codes reported by the token registry.
const (
	CodeNotFound   = "NotFound"
	CodeMintLimit  = "MintLimit"
	CodeNotAllowed = "NotAllowed"
)

// NotFoundError reports a reference to a token class that was never issued.
type NotFoundError struct {
	TokenID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s(%d)", CodeNotFound, e.TokenID)
}

// Code returns the stable error code.
func (e *NotFoundError) Code() string { return CodeNotFound }

// MintLimitError reports that Account already holds a unit of TokenID.
type MintLimitError struct {
	Account identity.Address
	TokenID uint64
}

func (e *MintLimitError) Error() string {
	return fmt.Sprintf("%s(%q, %d)", CodeMintLimit, e.Account.String(), e.TokenID)
}

// Code returns the stable error code.
func (e *MintLimitError) Code() string { return CodeMintLimit }

// NotAllowedError reports a burn of a balance the caller does not own.
// Account is the balance owner named in the call, not the caller.
type NotAllowedError struct {
	Account identity.Address
	TokenID uint64
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("%s(%q, %d)", CodeNotAllowed, e.Account.String(), e.TokenID)
}

// Code returns the stable error code.
func (e *NotAllowedError) Code() string { return CodeNotAllowed }

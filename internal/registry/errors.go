package registry

import (
	"errors"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/roles"
)

// Error codes owned by the registry.
const (
	CodeURIEmpty      = "URIEmpty"
	CodeEnforcedPause = "EnforcedPause"
	CodeExpectedPause = "ExpectedPause"
)

var (
	// ErrURIEmpty rejects an empty base URI at construction or update.
	ErrURIEmpty = &codedError{code: CodeURIEmpty}

	// ErrEnforcedPause rejects mint, burn and pause while paused.
	ErrEnforcedPause = &codedError{code: CodeEnforcedPause}

	// ErrExpectedPause rejects unpause while not paused.
	ErrExpectedPause = &codedError{code: CodeExpectedPause}
)

type codedError struct {
	code string
}

func (e *codedError) Error() string { return e.code + "()" }
func (e *codedError) Code() string  { return e.code }

// Coder is implemented by every rejection the registry returns.
type Coder interface {
	error
	Code() string
}

// ErrorCode returns the rejection code carried by err, looking through
// wrapping. It returns "" for nil and for errors without a code.
func ErrorCode(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// IsRejection reports whether err is a coded rejection as opposed to an
// infrastructure failure.
func IsRejection(err error) bool {
	return ErrorCode(err) != ""
}

// CodeUnknownOp is reported for an operation missing from the access table.
const CodeUnknownOp = "UnknownOperation"

// UnknownOpError reports an operation name the registry does not know.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string { return CodeUnknownOp + "(" + e.Op + ")" }
func (e *UnknownOpError) Code() string  { return CodeUnknownOp }

func unauthorized(account identity.Address, role identity.Role) error {
	return &roles.UnauthorizedError{Account: account, Role: role}
}

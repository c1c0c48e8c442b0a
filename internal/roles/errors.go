package roles

import (
	"errors"
	"fmt"

	"github.com/togethercrew/engagement/internal/identity"
)

// Error codes reported by the role registry.
const (
	CodeUnauthorized    = "AccessControlUnauthorizedAccount"
	CodeBadConfirmation = "AccessControlBadConfirmation"
	CodeLastAdmin       = "LastAdmin"
)

// UnauthorizedError reports that Account lacks Role for a privileged call.
type UnauthorizedError struct {
	Account identity.Address
	Role    identity.Role
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s(%q, %s)", CodeUnauthorized, e.Account.String(), e.Role.String())
}

// Code returns the stable error code.
func (e *UnauthorizedError) Code() string { return CodeUnauthorized }

// ErrBadConfirmation is returned by Renounce when the confirmation does not
// match the caller.
var ErrBadConfirmation = &codedError{code: CodeBadConfirmation}

// LastAdminError reports an attempt to remove the final holder of the admin role.
type LastAdminError struct {
	Role identity.Role
}

func (e *LastAdminError) Error() string {
	return fmt.Sprintf("%s(%s)", CodeLastAdmin, e.Role.String())
}

// Code returns the stable error code.
func (e *LastAdminError) Code() string { return CodeLastAdmin }

type codedError struct {
	code string
}

func (e *codedError) Error() string { return e.code + "()" }
func (e *codedError) Code() string  { return e.code }

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

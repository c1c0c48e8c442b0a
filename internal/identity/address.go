// Package identity defines the account and role identifiers used by the registry.
//
// Addresses are canonical 20-byte account identifiers rendered in EIP-55
// checksummed form. Roles are 32-byte identifiers derived the same way the
// contract family derives them: keccak256 of the role name, with the admin
// role fixed at 32 zero bytes.
package identity

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the size of an account identifier in bytes.
const AddressLength = common.AddressLength

// Address is an opaque account identifier.
// The zero value is the empty account.
type Address struct {
	raw common.Address
}

// ZeroAddress is the empty account.
var ZeroAddress = Address{}

// ParseAddress parses a hex account identifier, with or without the 0x prefix.
// Mixed-case input is accepted without checksum enforcement; the canonical
// form is always produced by String.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("parse address: empty input")
	}
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("parse address %q: not a %d-byte hex identifier", s, AddressLength)
	}
	return Address{raw: common.HexToAddress(s)}, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Use only in tests or for compile-time constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes builds an Address from a 20-byte slice.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, fmt.Errorf("address from bytes: got %d bytes, want %d", len(b), AddressLength)
	}
	return Address{raw: common.BytesToAddress(b)}, nil
}

// String returns the EIP-55 checksummed form, e.g. "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed".
func (a Address) String() string {
	return a.raw.Hex()
}

// Bytes returns a copy of the raw identifier.
func (a Address) Bytes() []byte {
	return a.raw.Bytes()
}

// IsZero reports whether a is the empty account.
func (a Address) IsZero() bool {
	return a.raw == (common.Address{})
}

// Compare orders addresses by their raw bytes.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a.raw[:], b.raw[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

package identity

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role identifies a capability set.
type Role struct {
	raw common.Hash
}

// Well-known roles.
var (
	// AdminRole administers every role by default, including itself.
	AdminRole = Role{}

	// ProviderRole may publish score records.
	ProviderRole = RoleFromName("PROVIDER_ROLE")
)

// roleNames resolves the well-known role names accepted by ParseRole.
var roleNames = map[string]Role{
	"DEFAULT_ADMIN_ROLE": AdminRole,
	"ADMIN":              AdminRole,
	"PROVIDER_ROLE":      ProviderRole,
	"PROVIDER":           ProviderRole,
}

// RoleFromName derives a role identifier as keccak256(name).
func RoleFromName(name string) Role {
	return Role{raw: crypto.Keccak256Hash([]byte(name))}
}

// ParseRole accepts a well-known role name (case-insensitive) or a
// 0x-prefixed 32-byte hex identifier.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if r, ok := roleNames[strings.ToUpper(s)]; ok {
		return r, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := hexutil.Decode(s)
		if err != nil {
			return Role{}, fmt.Errorf("parse role %q: %w", s, err)
		}
		if len(b) != common.HashLength {
			return Role{}, fmt.Errorf("parse role %q: want %d hex bytes, got %d", s, common.HashLength, len(b))
		}
		return Role{raw: common.BytesToHash(b)}, nil
	}
	return Role{}, fmt.Errorf("parse role %q: unknown role name", s)
}

// String returns the 0x-prefixed hex identifier.
func (r Role) String() string {
	return r.raw.Hex()
}

// Name returns the well-known name of the role, or its hex form.
func (r Role) Name() string {
	switch r {
	case AdminRole:
		return "DEFAULT_ADMIN_ROLE"
	case ProviderRole:
		return "PROVIDER_ROLE"
	}
	return r.String()
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}


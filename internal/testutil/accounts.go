// Package testutil holds fixtures shared by package tests.
package testutil

import "github.com/togethercrew/engagement/internal/identity"

// Fixture accounts. Admin deploys; Provider is configured as the initial
// score provider.
var (
	Admin    = identity.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	Alice    = identity.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	Bob      = identity.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
	Provider = identity.MustParseAddress("0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb")
)

// Aliases maps the lowercase fixture names to checksummed addresses, in the
// shape scenario files use for their accounts block.
func Aliases() map[string]string {
	return map[string]string{
		"admin":    Admin.String(),
		"alice":    Alice.String(),
		"bob":      Bob.String(),
		"provider": Provider.String(),
	}
}

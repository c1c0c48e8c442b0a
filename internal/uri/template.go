// Package uri composes the externally visible locators of token classes and
// score records.
//
// A Template is a pattern with {placeholder} fields chosen once, when a
// registry is constructed. Formatting is a pure function of the template and
// the supplied values.
package uri

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/togethercrew/engagement/internal/identity"
)

// Placeholders understood by Parse.
const (
	FieldBase    = "base"
	FieldID      = "id"
	FieldAccount = "account"
	FieldDate    = "date"
	FieldCID     = "cid"
	FieldHash    = "hash"
)

var knownFields = map[string]bool{
	FieldBase:    true,
	FieldID:      true,
	FieldAccount: true,
	FieldDate:    true,
	FieldCID:     true,
	FieldHash:    true,
}

// Built-in token locator schemes.
const (
	SchemeFlat         = "flat"
	SchemeBare         = "bare"
	SchemeHierarchical = "hierarchical"
	SchemeIPFS         = "ipfs"
)

var schemes = map[string]string{
	SchemeFlat:         "{base}{id}.json",
	SchemeBare:         "{base}{id}",
	SchemeHierarchical: "{base}/api/v1/nft/{id}/{account}/reputation-score",
	SchemeIPFS:         "ipfs://{hash}.json",
}

// DefaultScorePattern locates a score record for one (token, account) pair
// inside the published content.
const DefaultScorePattern = "ipfs://{cid}/{id}/{account}.json"

// Error codes reported by formatting.
const (
	CodeEmptyAccount = "EmptyAccountNotAllowed"
	CodeEmptyHash    = "EmptyHashNotAllowed"
)

// ErrEmptyAccount is returned when the template needs an account and none was given.
var ErrEmptyAccount = &codedError{code: CodeEmptyAccount}

// ErrEmptyHash is returned when the template needs a metadata hash and the
// class was issued without one.
var ErrEmptyHash = &codedError{code: CodeEmptyHash}

type codedError struct {
	code string
}

func (e *codedError) Error() string { return e.code + "()" }
func (e *codedError) Code() string  { return e.code }

type segment struct {
	literal string
	field   string
}

// Template is a parsed locator pattern.
type Template struct {
	pattern  string
	segments []segment
	uses     map[string]bool
}

// Values are the inputs available to a template.
type Values struct {
	Base    string
	TokenID uint64
	Account identity.Address
	Date    uint64
	CID     string
	Hash    string
}

// Parse validates pattern and returns its template.
func Parse(pattern string) (Template, error) {
	if pattern == "" {
		return Template{}, errors.New("parse template: empty pattern")
	}
	t := Template{pattern: pattern, uses: make(map[string]bool)}
	rest := pattern
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return Template{}, fmt.Errorf("parse template %q: unmatched '}'", pattern)
			}
			t.segments = append(t.segments, segment{literal: rest})
			break
		}
		if open > 0 {
			lit := rest[:open]
			if strings.IndexByte(lit, '}') >= 0 {
				return Template{}, fmt.Errorf("parse template %q: unmatched '}'", pattern)
			}
			t.segments = append(t.segments, segment{literal: lit})
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return Template{}, fmt.Errorf("parse template %q: unterminated placeholder", pattern)
		}
		name := rest[open+1 : open+closing]
		if !knownFields[name] {
			return Template{}, fmt.Errorf("parse template %q: unknown placeholder {%s}", pattern, name)
		}
		t.segments = append(t.segments, segment{field: name})
		t.uses[name] = true
		rest = rest[open+closing+1:]
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(pattern string) Template {
	t, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return t
}

// Scheme returns the template of a built-in scheme.
func Scheme(name string) (Template, error) {
	pattern, ok := schemes[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown uri scheme %q", name)
	}
	return Parse(pattern)
}

// SchemeNames lists the built-in schemes.
func SchemeNames() []string {
	return []string{SchemeFlat, SchemeBare, SchemeHierarchical, SchemeIPFS}
}

// Uses reports whether the template references field.
func (t Template) Uses(field string) bool {
	return t.uses[field]
}

// String returns the original pattern.
func (t Template) String() string {
	return t.pattern
}

// IsZero reports whether t was never parsed.
func (t Template) IsZero() bool {
	return t.pattern == ""
}

// Format expands the template. It fails with ErrEmptyAccount or ErrEmptyHash
// when a referenced account or hash is missing.
func (t Template) Format(v Values) (string, error) {
	if t.uses[FieldAccount] && v.Account.IsZero() {
		return "", ErrEmptyAccount
	}
	if t.uses[FieldHash] && v.Hash == "" {
		return "", ErrEmptyHash
	}

	var b strings.Builder
	for _, s := range t.segments {
		switch s.field {
		case "":
			b.WriteString(s.literal)
		case FieldBase:
			b.WriteString(v.Base)
		case FieldID:
			b.WriteString(strconv.FormatUint(v.TokenID, 10))
		case FieldAccount:
			b.WriteString(v.Account.String())
		case FieldDate:
			b.WriteString(strconv.FormatUint(v.Date, 10))
		case FieldCID:
			b.WriteString(v.CID)
		case FieldHash:
			b.WriteString(v.Hash)
		}
	}
	return b.String(), nil
}

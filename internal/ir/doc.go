// Package ir defines the canonical representation of ledger transactions,
// outcomes and event payloads, and the content-addressed ids derived from it.
//
// Key constraints:
//   - Values are strings, unsigned integers, booleans, arrays and objects.
//     No floats, no negative numbers, no null.
//   - Canonical bytes follow RFC 8785: UTF-16 key order, NFC strings, no
//     HTML escaping, no insignificant whitespace.
//   - Ordering comes from logical sequence numbers, never wall-clock time.
//
// ir imports nothing internal.
package ir

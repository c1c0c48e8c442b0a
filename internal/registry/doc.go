// Package registry composes the engagement token registry: role
// assignments, token classes and wrapper balances, the score ledger, the
// base URI and the pause flag, behind one serialised API.
//
// Every mutating method takes the authenticated caller first, runs the
// access gate for its operation, applies the change and returns the events
// it emitted. A failed call returns a coded error and changes nothing.
//
// Queries never mutate and observe the state left by the most recently
// completed mutation.
//
// Thread-safety: Registry is safe for concurrent use. Mutations take an
// exclusive lock; queries share a read lock.
package registry

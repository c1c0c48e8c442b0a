// Package ledger is the host that drives the engagement registry.
//
// It stamps every submitted operation with a logical sequence number,
// derives a content-addressed transaction id, applies the operation to the
// registry and journals transaction, outcome and events in one SQLite
// transaction. Rejected operations are journaled too, so the journal is a
// complete record of what callers asked for.
//
// # Single Writer
//
// Submit holds one lock from sequencing to persistence. Run offers the same
// path through a FIFO queue for callers that want to enqueue from many
// goroutines and wait on a receipt.
//
// # Replay
//
// Open rebuilds registry state by replaying the journal from genesis
// through the same dispatch table Submit uses. Every transaction's outcome
// digest is recomputed and compared with the stored one; any difference is
// a DivergenceError. Verify performs the same check without keeping the
// result. If persisting a transaction fails, the ledger rebuilds its
// registry from the journal so memory never runs ahead of disk.
package ledger

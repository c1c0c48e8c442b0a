// Package store provides SQLite-backed durable storage for the engagement
// journal.
//
// The journal is append-only:
//   - Genesis: the single deployment record replay starts from
//   - Transactions: every submitted operation with its outcome and digest
//   - Events: notifications emitted by successful transactions
//
// A transaction row and its events are written in one SQL transaction, so
// the journal never holds an outcome without its events.
//
// # Ordering
//
// All queries order by seq ASC. Sequence numbers come from the ledger's
// logical clock, never from wall time, so reads are identical across
// replays.
//
// # Schema
//
// PRAGMA user_version records how far a journal has been migrated. Open
// runs the missing steps in order and refuses a journal from a newer build
// with ErrJournalTooNew rather than append rows it might misread.
//
// Connections run in WAL mode with synchronous=NORMAL, a 5 second busy
// timeout and foreign keys on, so every event references a stored
// transaction. Open fails if SQLite does not accept a setting.
//
// Content-addressed ids and payload bytes come from internal/ir.
package store

package ledger

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by Enqueue after the run loop has stopped.
var ErrStopped = errors.New("ledger stopped")

// ArgumentError reports a request that cannot be decoded. Such requests
// are never sequenced or journaled.
type ArgumentError struct {
	Op      string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s request: %s", e.Op, e.Message)
}

// DivergenceError reports a replayed transaction whose outcome digest does
// not match the journal.
type DivergenceError struct {
	Seq      uint64
	TxID     string
	Expected string
	Actual   string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("replay diverged at seq %d (tx=%s): journal digest %s, replay digest %s",
		e.Seq, e.TxID, short(e.Expected), short(e.Actual))
}

// IsDivergence reports whether err is a replay divergence.
// Uses errors.As to handle wrapped errors.
func IsDivergence(err error) bool {
	var de *DivergenceError
	return errors.As(err, &de)
}

// PersistError reports a transaction that was applied but could not be
// journaled. The ledger has already rebuilt its state from the journal.
type PersistError struct {
	Seq uint64
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist transaction %d: %v", e.Seq, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

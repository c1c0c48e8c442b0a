// Package scores stores the content identifiers of dated score publications.
package scores

import (
	"slices"
)

// Record is one publication.
type Record struct {
	Date uint64
	CID  string
}

// Ledger maps dates to content identifiers. Later writes for a date replace
// earlier ones. A date nobody published reads as the empty cid, the same as
// a date published with an empty cid.
//
// Ledger is not safe for concurrent use; the owning registry serialises access.
type Ledger struct {
	records map[uint64]string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[uint64]string)}
}

// Put stores cid for date and returns the previous cid, if any.
func (l *Ledger) Put(date uint64, cid string) (previous string) {
	previous = l.records[date]
	l.records[date] = cid
	return previous
}

// Get returns the cid published for date.
func (l *Ledger) Get(date uint64) string {
	return l.records[date]
}

// Records returns every publication ordered by date.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.records))
	for date, cid := range l.records {
		out = append(out, Record{Date: date, CID: cid})
	}
	slices.SortFunc(out, func(a, b Record) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return out
}

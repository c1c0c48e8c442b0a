package store

import (
	"path/filepath"
	"testing"

	"github.com/togethercrew/engagement/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testGenesis() ir.Genesis {
	return ir.Genesis{
		DeploymentID: "0192d4e0-0000-7000-8000-000000000000",
		Deployer:     "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Config:       ir.Object{"base_uri": ir.String("https://api.example.com")},
		Version:      ir.Version,
	}
}

// createTestRecord builds an ok record with one event per kind given.
func createTestRecord(seq, firstEvent uint64, op string, kinds ...string) Record {
	rec := Record{
		Tx: ir.Transaction{
			ID:     ir.MustTransactionID("genesis", seq, op, "0xabc", ir.Object{}),
			Seq:    seq,
			Op:     op,
			Caller: "0xabc",
			Args:   ir.Object{},
		},
		Outcome: ir.Outcome{Status: ir.StatusOK, Result: ir.Object{}},
		Digest:  "digest",
	}
	for i, k := range kinds {
		rec.Events = append(rec.Events, ir.EventRecord{
			Seq:     firstEvent + uint64(i),
			TxSeq:   seq,
			Kind:    k,
			Payload: ir.Object{"tokenId": ir.Uint(0)},
		})
	}
	return rec
}

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/togethercrew/engagement/internal/ir"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, schemaVersion(), version)
}

func TestOpen_MigratesVersionZeroJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v0.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec(`DROP INDEX idx_events_tx`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`PRAGMA user_version = 0`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	var name string
	err = s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_events_tx'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_events_tx", name)
}

func TestOpen_RejectsNewerJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion()+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrJournalTooNew)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.WriteGenesis(context.Background(), testGenesis())
	require.NoError(t, err)
	_, _, err = s.ReadGenesis(context.Background())
	assert.NoError(t, err)
}

func TestGenesis(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, _, err := s.ReadGenesis(ctx)
	assert.ErrorIs(t, err, ErrNoGenesis)

	g := testGenesis()
	hash, err := s.WriteGenesis(ctx, g)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	got, gotHash, err := s.ReadGenesis(ctx)
	require.NoError(t, err)
	assert.Equal(t, g, got)
	assert.Equal(t, hash, gotHash)

	// same genesis again is a no-op
	again, err := s.WriteGenesis(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	other := g
	other.Deployer = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	_, err = s.WriteGenesis(ctx, other)
	assert.ErrorIs(t, err, ErrGenesisMismatch)
}

func TestWriteRecord_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	issue := createTestRecord(1, 1, "issue", "Issue")
	issue.Tx.Args = ir.Object{"hash": ir.String("QmHash")}
	issue.Outcome.Result = ir.Object{"token_id": ir.Uint(0)}
	mint := createTestRecord(2, 2, "mint", "Mint")
	rejected := createTestRecord(3, 0, "mint")
	rejected.Outcome = ir.Outcome{Status: ir.StatusRejected, Code: "MintLimit", Message: "MintLimit(\"0xabc\", 0)", Result: ir.Object{}}

	for _, rec := range []Record{issue, mint, rejected} {
		require.NoError(t, s.WriteRecord(ctx, rec))
	}

	got, err := s.ReadRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, issue, got[0])
	assert.Equal(t, mint, got[1])
	assert.Equal(t, rejected.Outcome, got[2].Outcome)
	assert.Empty(t, got[2].Events)

	tail, err := s.ReadRecords(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, uint64(3), tail[0].Tx.Seq)

	txSeq, evSeq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), txSeq)
	assert.Equal(t, uint64(2), evSeq)
}

func TestWriteRecord_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	rec := createTestRecord(1, 1, "issue", "Issue")
	require.NoError(t, s.WriteRecord(ctx, rec))
	require.NoError(t, s.WriteRecord(ctx, rec))

	got, err := s.ReadRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Events, 1)
}

func TestWriteRecord_SeqConflict(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteRecord(ctx, createTestRecord(1, 1, "issue", "Issue")))

	conflicting := createTestRecord(1, 2, "pause", "Paused")
	assert.Error(t, s.WriteRecord(ctx, conflicting))
}

func TestWriteRecord_Atomic(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	// the second event reuses seq 1, so the whole record must roll back
	rec := createTestRecord(1, 1, "mint", "Mint", "Mint")
	rec.Events[1].Seq = 1
	require.Error(t, s.WriteRecord(ctx, rec))

	got, err := s.ReadRecords(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	evs, err := s.ReadEvents(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestReadEvents_ByKind(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.WriteRecord(ctx, createTestRecord(1, 1, "issue", "Issue")))
	require.NoError(t, s.WriteRecord(ctx, createTestRecord(2, 2, "mint", "Mint")))
	require.NoError(t, s.WriteRecord(ctx, createTestRecord(3, 3, "burn", "Burn")))
	require.NoError(t, s.WriteRecord(ctx, createTestRecord(4, 4, "mint", "Mint")))

	all, err := s.ReadEvents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mints, err := s.ReadEvents(ctx, "Mint")
	require.NoError(t, err)
	require.Len(t, mints, 2)
	assert.Equal(t, []uint64{2, 4}, []uint64{mints[0].Seq, mints[1].Seq})
	assert.Equal(t, ir.Object{"tokenId": ir.Uint(0)}, mints[0].Payload)

	none, err := s.ReadEvents(ctx, "Paused")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLastSeq_Empty(t *testing.T) {
	txSeq, evSeq, err := createTestStore(t).LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, txSeq)
	assert.Zero(t, evSeq)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/togethercrew/engagement/internal/ir"
)

// ErrNoGenesis is returned when the journal has not been initialised.
var ErrNoGenesis = errors.New("journal has no genesis; run init first")

// ReadGenesis returns the deployment record and its hash.
func (s *Store) ReadGenesis(ctx context.Context) (ir.Genesis, string, error) {
	var (
		g    ir.Genesis
		hash string
		cfg  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, deployment_id, deployer, config, version
		FROM genesis WHERE id = 1
	`).Scan(&hash, &g.DeploymentID, &g.Deployer, &cfg, &g.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Genesis{}, "", ErrNoGenesis
	}
	if err != nil {
		return ir.Genesis{}, "", fmt.Errorf("read genesis: %w", err)
	}
	if g.Config, err = unmarshalObject("config", cfg); err != nil {
		return ir.Genesis{}, "", fmt.Errorf("read genesis: %w", err)
	}
	return g, hash, nil
}

// ReadRecords returns every journaled transaction with seq greater than
// after, in seq order, each with its events.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadRecords(ctx context.Context, after uint64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, op, caller, args, status, code, message, result, digest
		FROM transactions
		WHERE seq > ?
		ORDER BY seq ASC
	`, int64(after))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	index := map[uint64]int{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		index[rec.Tx.Seq] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	evs, err := s.queryEvents(ctx, `
		SELECT seq, tx_seq, kind, payload FROM events
		WHERE tx_seq > ?
		ORDER BY seq ASC
	`, int64(after))
	if err != nil {
		return nil, err
	}
	for _, e := range evs {
		i, ok := index[e.TxSeq]
		if !ok {
			return nil, fmt.Errorf("event %d references missing transaction %d", e.Seq, e.TxSeq)
		}
		records[i].Events = append(records[i].Events, e)
	}
	return records, nil
}

// ReadEvents returns journaled events in seq order. An empty kind returns
// every event.
func (s *Store) ReadEvents(ctx context.Context, kind string) ([]ir.EventRecord, error) {
	if kind == "" {
		return s.queryEvents(ctx, `
			SELECT seq, tx_seq, kind, payload FROM events
			ORDER BY seq ASC
		`)
	}
	return s.queryEvents(ctx, `
		SELECT seq, tx_seq, kind, payload FROM events
		WHERE kind = ?
		ORDER BY seq ASC
	`, kind)
}

// LastSeq returns the highest transaction seq and event seq stored, or
// zero for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (txSeq, eventSeq uint64, err error) {
	var tx, ev int64
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(MAX(seq), 0) FROM transactions),
			(SELECT COALESCE(MAX(seq), 0) FROM events)
	`).Scan(&tx, &ev)
	if err != nil {
		return 0, 0, fmt.Errorf("last seq: %w", err)
	}
	return uint64(tx), uint64(ev), nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ir.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	evs := []ir.EventRecord{}
	for rows.Next() {
		var (
			seq, txSeq int64
			e          ir.EventRecord
			payload    string
		)
		if err := rows.Scan(&seq, &txSeq, &e.Kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Seq, e.TxSeq = uint64(seq), uint64(txSeq)
		if e.Payload, err = unmarshalObject("payload", payload); err != nil {
			return nil, fmt.Errorf("event %d: %w", seq, err)
		}
		evs = append(evs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return evs, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec          Record
		seq          int64
		args, result string
		status       string
	)
	if err := rows.Scan(
		&seq,
		&rec.Tx.ID,
		&rec.Tx.Op,
		&rec.Tx.Caller,
		&args,
		&status,
		&rec.Outcome.Code,
		&rec.Outcome.Message,
		&result,
		&rec.Digest,
	); err != nil {
		return Record{}, fmt.Errorf("scan transaction: %w", err)
	}
	rec.Tx.Seq = uint64(seq)
	rec.Outcome.Status = ir.Status(status)

	var err error
	if rec.Tx.Args, err = unmarshalObject("args", args); err != nil {
		return Record{}, fmt.Errorf("transaction %d: %w", seq, err)
	}
	if rec.Outcome.Result, err = unmarshalObject("result", result); err != nil {
		return Record{}, fmt.Errorf("transaction %d: %w", seq, err)
	}
	return rec, nil
}

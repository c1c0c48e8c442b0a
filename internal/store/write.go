package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/togethercrew/engagement/internal/ir"
)

// ErrGenesisMismatch is returned when a journal already holds a different
// genesis record.
var ErrGenesisMismatch = errors.New("journal already has a different genesis")

// Record is one journaled transaction with its outcome and events.
type Record struct {
	Tx      ir.Transaction
	Outcome ir.Outcome
	Events  []ir.EventRecord
	Digest  string
}

// WriteGenesis stores the deployment record and returns its hash.
// Writing the same genesis again is a no-op; a different one fails with
// ErrGenesisMismatch.
func (s *Store) WriteGenesis(ctx context.Context, g ir.Genesis) (string, error) {
	hash, err := ir.GenesisHash(g)
	if err != nil {
		return "", fmt.Errorf("write genesis: %w", err)
	}
	cfg, err := marshalObject("config", g.Config)
	if err != nil {
		return "", fmt.Errorf("write genesis: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO genesis (id, hash, deployment_id, deployer, config, version)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, hash, g.DeploymentID, g.Deployer, cfg, g.Version)
	if err != nil {
		return "", fmt.Errorf("write genesis: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		_, existing, err := s.ReadGenesis(ctx)
		if err != nil {
			return "", err
		}
		if existing != hash {
			return "", ErrGenesisMismatch
		}
	}
	return hash, nil
}

// WriteRecord appends a transaction, its outcome and its events atomically.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a stored
// transaction id is silently ignored. A different transaction at an
// occupied seq is an error.
func (s *Store) WriteRecord(ctx context.Context, rec Record) error {
	args, err := marshalObject("args", rec.Tx.Args)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	result, err := marshalObject("result", rec.Outcome.Result)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write record: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
		(seq, id, op, caller, args, status, code, message, result, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		int64(rec.Tx.Seq),
		rec.Tx.ID,
		rec.Tx.Op,
		rec.Tx.Caller,
		args,
		string(rec.Outcome.Status),
		rec.Outcome.Code,
		rec.Outcome.Message,
		result,
		rec.Digest,
	)
	if err != nil {
		return fmt.Errorf("write record: transaction %d: %w", rec.Tx.Seq, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for _, e := range rec.Events {
		payload, err := marshalObject("payload", e.Payload)
		if err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (seq, tx_seq, kind, payload)
			VALUES (?, ?, ?, ?)
		`, int64(e.Seq), int64(rec.Tx.Seq), e.Kind, payload); err != nil {
			return fmt.Errorf("write record: event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write record: commit: %w", err)
	}
	return nil
}

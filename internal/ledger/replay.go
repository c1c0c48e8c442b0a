package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/registry"
	"github.com/togethercrew/engagement/internal/store"
)

// applied is the result of running one transaction against a registry.
type applied struct {
	outcome ir.Outcome
	records []ir.EventRecord
	events  []events.Event
	err     error
	digest  string
}

// execute runs c for tx and derives the journal form of its result. The
// returned error is an encoding failure; rejections land in applied.err.
func execute(reg *registry.Registry, c call, tx ir.Transaction) (applied, error) {
	result, evs, opErr := c(reg)

	a := applied{events: evs, err: opErr}
	if opErr != nil {
		code := registry.ErrorCode(opErr)
		if code == "" {
			code = "Error"
		}
		a.outcome = ir.Outcome{Status: ir.StatusRejected, Code: code, Message: opErr.Error(), Result: ir.Object{}}
	} else {
		a.outcome = ir.Outcome{Status: ir.StatusOK, Result: result}
	}

	a.records = make([]ir.EventRecord, 0, len(evs))
	for _, e := range evs {
		payload, err := ir.ObjectFromMap(e.Fields())
		if err != nil {
			return applied{}, fmt.Errorf("event %d payload: %w", e.Seq, err)
		}
		a.records = append(a.records, ir.EventRecord{
			Seq:     e.Seq,
			TxSeq:   tx.Seq,
			Kind:    string(e.Kind),
			Payload: payload,
		})
	}

	digest, err := ir.OutcomeDigest(tx.ID, a.outcome, a.records)
	if err != nil {
		return applied{}, err
	}
	a.digest = digest
	return a, nil
}

// Report summarises a replay.
type Report struct {
	DeploymentID string
	Transactions int
	Rejected     int
	Events       int
	LastSeq      uint64
}

// replay rebuilds a registry from genesis and records, checking every
// transaction id and outcome digest against the journal.
func replay(g ir.Genesis, genesisHash string, records []store.Record, logger *slog.Logger) (*registry.Registry, Report, error) {
	report := Report{DeploymentID: g.DeploymentID}

	deployer, cfg, err := deployment(g)
	if err != nil {
		return nil, report, err
	}
	reg, err := registry.New(deployer, cfg, registry.WithLogger(logger))
	if err != nil {
		return nil, report, fmt.Errorf("deploy from genesis: %w", err)
	}

	for _, rec := range records {
		if rec.Tx.Seq != report.LastSeq+1 {
			return nil, report, fmt.Errorf("journal gap: expected seq %d, found %d", report.LastSeq+1, rec.Tx.Seq)
		}
		id, err := ir.TransactionID(genesisHash, rec.Tx.Seq, rec.Tx.Op, rec.Tx.Caller, rec.Tx.Args)
		if err != nil {
			return nil, report, fmt.Errorf("seq %d: %w", rec.Tx.Seq, err)
		}
		if id != rec.Tx.ID {
			return nil, report, fmt.Errorf("seq %d: transaction id %s does not match its content", rec.Tx.Seq, short(rec.Tx.ID))
		}
		caller, err := identity.ParseAddress(rec.Tx.Caller)
		if err != nil {
			return nil, report, fmt.Errorf("seq %d: caller: %w", rec.Tx.Seq, err)
		}
		c, err := bind(Request{Op: registry.Op(rec.Tx.Op), Caller: caller, Args: rec.Tx.Args})
		if err != nil {
			return nil, report, fmt.Errorf("seq %d: %w", rec.Tx.Seq, err)
		}

		a, err := execute(reg, c, rec.Tx)
		if err != nil {
			return nil, report, fmt.Errorf("seq %d: %w", rec.Tx.Seq, err)
		}
		if a.digest != rec.Digest {
			return nil, report, &DivergenceError{
				Seq:      rec.Tx.Seq,
				TxID:     rec.Tx.ID,
				Expected: rec.Digest,
				Actual:   a.digest,
			}
		}

		report.Transactions++
		report.Events += len(a.records)
		if a.err != nil {
			report.Rejected++
		}
		report.LastSeq = rec.Tx.Seq
	}
	return reg, report, nil
}

// Verify replays the journal in st into a fresh registry and reports what
// it found. It fails with a DivergenceError when any transaction's outcome
// or events differ from what was journaled.
func Verify(ctx context.Context, st *store.Store, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g, hash, err := st.ReadGenesis(ctx)
	if err != nil {
		return Report{}, err
	}
	records, err := st.ReadRecords(ctx, 0)
	if err != nil {
		return Report{}, fmt.Errorf("read journal: %w", err)
	}
	_, report, err := replay(g, hash, records, logger)
	return report, err
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/metrics"
	"github.com/togethercrew/engagement/internal/registry"
	"github.com/togethercrew/engagement/internal/store"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus instrumentation to the ledger and its registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

// WithIDGenerator sets the deployment id source used by Init.
// Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(l *Ledger) {
		if g != nil {
			l.ids = g
		}
	}
}

// Receipt reports a sequenced transaction.
type Receipt struct {
	Tx      ir.Transaction
	Outcome ir.Outcome
	Events  []events.Event

	// Err is the registry rejection, nil when the transaction succeeded.
	Err error
}

// OK reports whether the transaction succeeded.
func (r Receipt) OK() bool {
	return r.Err == nil
}

// TokenID returns the id assigned by a successful issue.
func (r Receipt) TokenID() (uint64, bool) {
	id, err := r.Outcome.Result.Uint("token_id")
	return id, err == nil
}

// Ledger drives one registry deployment backed by a journal.
//
// Thread-safety: Ledger is safe for concurrent use. Submissions are
// serialised; registry queries run concurrently with them.
type Ledger struct {
	mu sync.Mutex

	store       *store.Store
	genesis     ir.Genesis
	genesisHash string
	reg         *registry.Registry
	clock       *Clock
	queue       *txQueue

	ids     IDGenerator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newLedger(st *store.Store, opts []Option) *Ledger {
	l := &Ledger{
		store:  st,
		queue:  newTxQueue(),
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init writes the genesis record for a new deployment and opens it.
// The configuration is validated before anything is written.
func Init(ctx context.Context, st *store.Store, deployer identity.Address, cfg registry.Config, opts ...Option) (*Ledger, error) {
	l := newLedger(st, opts)

	if _, err := registry.New(deployer, cfg); err != nil {
		return nil, fmt.Errorf("invalid deployment: %w", err)
	}
	g := newGenesis(l.ids.Generate(), deployer, cfg)
	if _, err := st.WriteGenesis(ctx, g); err != nil {
		return nil, fmt.Errorf("write genesis: %w", err)
	}
	l.logger.Info("deployment initialised",
		"deployment_id", g.DeploymentID,
		"deployer", g.Deployer,
		"base_uri", cfg.BaseURI,
	)

	if err := l.load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Open loads an existing deployment, replaying its journal.
func Open(ctx context.Context, st *store.Store, opts ...Option) (*Ledger, error) {
	l := newLedger(st, opts)
	if err := l.load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// load rebuilds registry state from the journal. Callers hold l.mu or
// own l exclusively.
func (l *Ledger) load(ctx context.Context) error {
	g, hash, err := l.store.ReadGenesis(ctx)
	if err != nil {
		return err
	}
	records, err := l.store.ReadRecords(ctx, 0)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	reg, report, err := replay(g, hash, records, l.logger)
	if err != nil {
		return err
	}
	reg.Instrument(l.metrics)

	l.genesis = g
	l.genesisHash = hash
	l.reg = reg
	l.clock = NewClockAt(report.LastSeq)

	l.logger.Debug("journal replayed",
		"deployment_id", g.DeploymentID,
		"transactions", report.Transactions,
		"events", report.Events,
	)
	return nil
}

// Submit sequences req, applies it and journals the result. A registry
// rejection is reported in Receipt.Err with a nil error; the error return
// is reserved for malformed requests and infrastructure failures.
func (l *Ledger) Submit(ctx context.Context, req Request) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	args, err := journalForm(req)
	if err != nil {
		return Receipt{}, err
	}
	req.Args = args
	c, err := bind(req)
	if err != nil {
		return Receipt{}, err
	}

	start := time.Now()
	tx := ir.Transaction{
		Seq:    l.clock.Next(),
		Op:     string(req.Op),
		Caller: req.Caller.String(),
		Args:   args,
	}
	if tx.ID, err = ir.TransactionID(l.genesisHash, tx.Seq, tx.Op, tx.Caller, tx.Args); err != nil {
		return Receipt{}, l.fail(ctx, tx.Seq, err)
	}

	a, err := execute(l.reg, c, tx)
	if err != nil {
		return Receipt{}, l.fail(ctx, tx.Seq, err)
	}

	rec := store.Record{Tx: tx, Outcome: a.outcome, Events: a.records, Digest: a.digest}
	if err := l.store.WriteRecord(ctx, rec); err != nil {
		return Receipt{}, l.fail(ctx, tx.Seq, err)
	}
	l.metrics.ObserveApply(time.Since(start))

	l.logger.Info("transaction committed",
		"seq", tx.Seq,
		"op", tx.Op,
		"caller", tx.Caller,
		"status", string(a.outcome.Status),
		"code", a.outcome.Code,
		"events", len(a.events),
	)
	return Receipt{Tx: tx, Outcome: a.outcome, Events: a.events, Err: a.err}, nil
}

// journalForm returns req's arguments as they will read back from the
// journal. Strings are NFC normalized and invalid UTF-8 is replaced, so the
// live registry and a replayed one bind identical values.
func journalForm(req Request) (ir.Object, error) {
	if req.Args == nil {
		return ir.Object{}, nil
	}
	data, err := ir.MarshalCanonical(req.Args)
	if err != nil {
		return nil, &ArgumentError{Op: string(req.Op), Message: err.Error()}
	}
	var args ir.Object
	if err := args.UnmarshalJSON(data); err != nil {
		return nil, &ArgumentError{Op: string(req.Op), Message: err.Error()}
	}
	return args, nil
}

// fail handles a transaction that could not be journaled. Memory may have
// moved ahead of disk, so state is rebuilt from the journal.
func (l *Ledger) fail(ctx context.Context, seq uint64, cause error) error {
	perr := &PersistError{Seq: seq, Err: cause}
	l.logger.Error("transaction not journaled, rebuilding from journal",
		"seq", seq,
		"error", cause,
	)
	if err := l.load(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(perr, fmt.Errorf("rebuild from journal: %w", err))
	}
	return perr
}

// Registry returns the live registry for queries. Mutate only through Submit.
func (l *Ledger) Registry() *registry.Registry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg
}

// Genesis returns the deployment record and its hash.
func (l *Ledger) Genesis() (ir.Genesis, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.genesis, l.genesisHash
}

// Seq returns the sequence number of the last journaled transaction.
func (l *Ledger) Seq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clock.Current()
}

// Store returns the journal.
func (l *Ledger) Store() *store.Store {
	return l.store
}

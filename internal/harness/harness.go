package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/ledger"
	"github.com/togethercrew/engagement/internal/registry"
	"github.com/togethercrew/engagement/internal/store"
)

// DeploymentID is the fixed deployment id every scenario runs under.
const DeploymentID = "00000000-0000-7000-8000-000000000000"

// Harness executes one scenario.
type Harness struct {
	scenario *Scenario
	ledger   *ledger.Ledger
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario on a fresh in-memory journal.
//
// Execution flow:
//  1. Deploy the registry from scenario.Deployment
//  2. Start the ledger's run loop
//  3. Enqueue setup steps, which must all succeed
//  4. Enqueue flow steps, checking each expect clause
//  5. Stop the loop and evaluate assertions against the trace and the
//     final registry state
//
// The returned error reports a scenario that could not be executed;
// failed expectations are reported in Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deployer, cfg, err := h.deployment()
	if err != nil {
		return nil, err
	}
	h.ledger, err = ledger.Init(ctx, st, deployer, cfg,
		ledger.WithIDGenerator(ledger.NewFixedGenerator(DeploymentID)),
		ledger.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.ledger.Run(gctx) })

	result := NewResult()
	playErr := h.play(gctx, result)
	h.ledger.Stop()
	if err := g.Wait(); err != nil && playErr == nil {
		playErr = fmt.Errorf("ledger run loop: %w", err)
	}
	if playErr != nil {
		return nil, playErr
	}

	actx := &AssertionContext{
		Scenario: scenario,
		Registry: h.ledger.Registry(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// play submits the setup and flow steps in order, waiting for each receipt
// before sending the next.
func (h *Harness) play(ctx context.Context, result *Result) error {
	for i, step := range h.scenario.Setup {
		receipt, err := h.submit(ctx, step, result)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if !receipt.OK() {
			return fmt.Errorf("setup step %d (%s): rejected: %v", i, step.Op, receipt.Err)
		}
	}

	for i, step := range h.scenario.Flow {
		receipt, err := h.submit(ctx, step, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		for _, msg := range checkExpect(step, receipt) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
		h.logger.Info("flow step completed",
			"step", i,
			"op", step.Op,
			"seq", receipt.Tx.Seq,
			"status", string(receipt.Outcome.Status),
			"code", receipt.Outcome.Code,
		)
	}
	return nil
}

func (h *Harness) deployment() (identity.Address, registry.Config, error) {
	d := h.scenario.Deployment
	deployer, err := identity.ParseAddress(h.scenario.resolve(d.Deployer))
	if err != nil {
		return identity.Address{}, registry.Config{}, fmt.Errorf("deployment.deployer: %w", err)
	}
	cfg := registry.Config{
		BaseURI:       d.BaseURI,
		Scheme:        d.Scheme,
		TokenTemplate: d.TokenTemplate,
		ScoreTemplate: d.ScoreTemplate,
	}
	for i, p := range d.Providers {
		addr, err := identity.ParseAddress(h.scenario.resolve(p))
		if err != nil {
			return identity.Address{}, registry.Config{}, fmt.Errorf("deployment.providers[%d]: %w", i, err)
		}
		cfg.Providers = append(cfg.Providers, addr)
	}
	return deployer, cfg, nil
}

// submit queues step on the ledger, waits for its receipt and appends it to
// the trace.
func (h *Harness) submit(ctx context.Context, step Step, result *Result) (ledger.Receipt, error) {
	caller, err := identity.ParseAddress(h.scenario.resolve(step.Caller))
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("caller: %w", err)
	}
	args, err := ir.ObjectFromMap(h.scenario.resolveArgs(step.Args))
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("args: %w", err)
	}

	reply, err := h.ledger.Enqueue(ctx, ledger.Request{
		Op:     registry.Op(step.Op),
		Caller: caller,
		Args:   args,
	})
	if err != nil {
		return ledger.Receipt{}, err
	}
	res := <-reply
	if res.Err != nil {
		return ledger.Receipt{}, res.Err
	}
	receipt := res.Receipt

	ev := TraceEvent{
		Seq:    receipt.Tx.Seq,
		Op:     receipt.Tx.Op,
		Caller: receipt.Tx.Caller,
		Args:   receipt.Tx.Args,
		Status: string(receipt.Outcome.Status),
		Code:   receipt.Outcome.Code,
		Result: receipt.Outcome.Result,
		Events: []TraceEmit{},
	}
	for _, e := range receipt.Events {
		payload, err := ir.ObjectFromMap(e.Fields())
		if err != nil {
			return ledger.Receipt{}, fmt.Errorf("event %d: %w", e.Seq, err)
		}
		ev.Events = append(ev.Events, TraceEmit{Seq: e.Seq, Kind: string(e.Kind), Payload: payload})
	}
	result.Trace = append(result.Trace, ev)
	return receipt, nil
}

// checkExpect compares a receipt with the step's expect clause. A step
// without one must succeed.
func checkExpect(step Step, receipt ledger.Receipt) []string {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{Status: StatusOK}
	}

	var errs []string
	status := string(receipt.Outcome.Status)
	if want := expect.expectedStatus(); status != want {
		errs = append(errs, fmt.Sprintf("expected status %s, got %s (%s)", want, status, receipt.Outcome.Message))
	}
	if expect.Code != "" && receipt.Outcome.Code != expect.Code {
		errs = append(errs, fmt.Sprintf("expected code %s, got %q", expect.Code, receipt.Outcome.Code))
	}
	for key, want := range expect.Result {
		got, ok := receipt.Outcome.Result[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("result field %q missing", key))
			continue
		}
		if !valuesEqual(want, got) {
			errs = append(errs, fmt.Sprintf("result field %q = %v, want %v", key, got, want))
		}
	}
	if expect.Events != nil {
		kinds := make([]string, len(receipt.Events))
		for i, e := range receipt.Events {
			kinds[i] = string(e.Kind)
		}
		if fmt.Sprint(kinds) != fmt.Sprint(expect.Events) {
			errs = append(errs, fmt.Sprintf("expected events %v, got %v", expect.Events, kinds))
		}
	}
	return errs
}

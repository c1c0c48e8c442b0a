package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/ir"
	"github.com/togethercrew/engagement/internal/ledger"
)

// openLedger opens the journal at opts.Database and replays it. The
// returned close function releases the database.
func openLedger(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*ledger.Ledger, func(), error) {
	out := opts.formatter(cmd)

	st, err := openStore(opts, out)
	if err != nil {
		return nil, nil, err
	}

	l, err := ledger.Open(ctx, st, opts.ledgerOptions(cmd)...)
	if err != nil {
		st.Close()
		if ledger.IsDivergence(err) {
			return nil, nil, out.Fail(ExitFailure, ErrCodeDivergence, err)
		}
		return nil, nil, out.Fail(ExitCommandError, ErrCodeJournal, err)
	}
	return l, func() { opts.closeLedger(cmd, st) }, nil
}

// journalExists rejects a missing journal file so that commands other than
// init never create an empty database by accident.
func journalExists(path string) error {
	if path == ":memory:" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("journal %s not found; run init first", path)
	}
	return nil
}

// EventOutput is an emitted event as printed by the CLI.
type EventOutput struct {
	Seq    uint64         `json:"seq"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields"`
}

func newEventOutput(e events.Event) EventOutput {
	return EventOutput{Seq: e.Seq, Kind: string(e.Kind), Fields: e.Fields()}
}

// ReceiptOutput is a journaled transaction as printed by the CLI.
type ReceiptOutput struct {
	Seq     uint64        `json:"seq"`
	TxID    string        `json:"tx_id"`
	Op      string        `json:"op"`
	Caller  string        `json:"caller"`
	Status  string        `json:"status"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
	Result  ir.Object     `json:"result,omitempty"`
	Events  []EventOutput `json:"events"`

	text []string
}

func newReceiptOutput(r ledger.Receipt) ReceiptOutput {
	out := ReceiptOutput{
		Seq:     r.Tx.Seq,
		TxID:    r.Tx.ID,
		Op:      r.Tx.Op,
		Caller:  r.Tx.Caller,
		Status:  string(r.Outcome.Status),
		Code:    r.Outcome.Code,
		Message: r.Outcome.Message,
		Events:  make([]EventOutput, 0, len(r.Events)),
	}
	if len(r.Outcome.Result) > 0 {
		out.Result = r.Outcome.Result
	}
	for _, e := range r.Events {
		out.Events = append(out.Events, newEventOutput(e))
		out.text = append(out.text, e.String())
	}
	return out
}

func (r ReceiptOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tx %d %s by %s: %s", r.Seq, r.Op, r.Caller, r.Status)
	for _, k := range r.Result.SortedKeys() {
		fmt.Fprintf(&b, "\n  %s = %v", k, r.Result[k])
	}
	for _, line := range r.text {
		fmt.Fprintf(&b, "\n  %s", line)
	}
	return b.String()
}

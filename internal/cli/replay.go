package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/ledger"
	"github.com/togethercrew/engagement/internal/store"
)

// ReplayResult is the outcome of a determinism check.
type ReplayResult struct {
	DeploymentID  string `json:"deployment_id"`
	Transactions  int    `json:"transactions"`
	Rejected      int    `json:"rejected"`
	Events        int    `json:"events"`
	LastSeq       uint64 `json:"last_seq"`
	Deterministic bool   `json:"deterministic"`
}

func (r ReplayResult) String() string {
	return fmt.Sprintf("deployment %s: %d transactions (%d rejected), %d events, last seq %d: deterministic",
		r.DeploymentID, r.Transactions, r.Rejected, r.Events, r.LastSeq)
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Replay the journal from genesis into a fresh registry and check that
every transaction id, outcome and event list is reproduced exactly.

Exit codes:
  0 - Journal replays deterministically
  1 - Divergence detected
  2 - Command error (journal not found, etc.)

Examples:
  engagement replay --db ./engagement.db
  engagement replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}
}

func runReplay(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	st, err := openStore(opts, out)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := ledger.Verify(ctx, st, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		if ledger.IsDivergence(err) {
			return out.Fail(ExitFailure, ErrCodeDivergence, err)
		}
		return out.Fail(ExitCommandError, ErrCodeJournal, err)
	}

	out.VerboseLog("replayed %d transactions", report.Transactions)
	return out.Success(ReplayResult{
		DeploymentID:  report.DeploymentID,
		Transactions:  report.Transactions,
		Rejected:      report.Rejected,
		Events:        report.Events,
		LastSeq:       report.LastSeq,
		Deterministic: true,
	})
}

// openStore opens an existing journal without replaying it.
func openStore(opts *RootOptions, out *OutputFormatter) (*store.Store, error) {
	if err := journalExists(opts.Database); err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeNotFound, err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeJournal, err)
	}
	return st, nil
}

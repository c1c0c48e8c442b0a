package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ledger"
	"github.com/togethercrew/engagement/internal/registry"
)

// QueryResult is the answer to a read-only query.
type QueryResult struct {
	Query string `json:"query"`
	Value any    `json:"value"`
}

func (r QueryResult) String() string {
	return fmt.Sprint(r.Value)
}

// InfoResult summarises a deployment.
type InfoResult struct {
	DeploymentID string        `json:"deployment_id"`
	GenesisHash  string        `json:"genesis_hash"`
	Deployer     string        `json:"deployer"`
	BaseURI      string        `json:"base_uri"`
	Paused       bool          `json:"paused"`
	Counter      uint64        `json:"counter"`
	LastSeq      uint64        `json:"last_seq"`
	Admins       []string      `json:"admins"`
	Providers    []string      `json:"providers"`
	Supply       []uint64      `json:"supply"`
	Scores       []ScoreOutput `json:"scores"`
}

// ScoreOutput is one published score record.
type ScoreOutput struct {
	Date uint64 `json:"date"`
	CID  string `json:"cid"`
}

func (r InfoResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deployment %s (genesis %s)\n", r.DeploymentID, r.GenesisHash)
	fmt.Fprintf(&b, "  deployer  %s\n", r.Deployer)
	fmt.Fprintf(&b, "  base uri  %s\n", r.BaseURI)
	fmt.Fprintf(&b, "  paused    %t\n", r.Paused)
	fmt.Fprintf(&b, "  last seq  %d\n", r.LastSeq)
	fmt.Fprintf(&b, "  admins    %s\n", strings.Join(r.Admins, ", "))
	fmt.Fprintf(&b, "  providers %s\n", strings.Join(r.Providers, ", "))
	fmt.Fprintf(&b, "  tokens    %d", r.Counter)
	for id, n := range r.Supply {
		fmt.Fprintf(&b, "\n    %d: supply %d", id, n)
	}
	for _, s := range r.Scores {
		fmt.Fprintf(&b, "\n  scores %d: %s", s.Date, s.CID)
	}
	return b.String()
}

// queryFunc answers a query against a replayed ledger.
type queryFunc func(l *ledger.Ledger, f *queryFlags, args []string) (any, error)

type queryFlags struct {
	Account string
}

type queryCommand struct {
	use   string
	short string
	args  cobra.PositionalArgs
	flags func(cmd *cobra.Command, f *queryFlags)
	run   queryFunc
}

var queryCommands = []queryCommand{
	{
		use:   "uri <token-id>",
		short: "Print the metadata locator of a token class",
		args:  cobra.ExactArgs(1),
		flags: func(cmd *cobra.Command, f *queryFlags) {
			cmd.Flags().StringVar(&f.Account, "account", "", "account for per-account schemes")
		},
		run: func(l *ledger.Ledger, f *queryFlags, args []string) (any, error) {
			id, err := parseTokenID(args[0])
			if err != nil {
				return nil, err
			}
			var account identity.Address
			if f.Account != "" {
				if account, err = identity.ParseAddress(f.Account); err != nil {
					return nil, err
				}
			}
			return l.Registry().URI(id, account)
		},
	},
	{
		use:   "scores <date> <token-id> <account>",
		short: "Print the score locator for an account",
		args:  cobra.ExactArgs(3),
		run: func(l *ledger.Ledger, _ *queryFlags, args []string) (any, error) {
			date, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid date %q", args[0])
			}
			id, err := parseTokenID(args[1])
			if err != nil {
				return nil, err
			}
			account, err := identity.ParseAddress(args[2])
			if err != nil {
				return nil, err
			}
			return l.Registry().GetScores(date, id, account)
		},
	},
	{
		use:   "balance <account> <token-id>",
		short: "Print an account's wrapper balance",
		args:  cobra.ExactArgs(2),
		run: func(l *ledger.Ledger, _ *queryFlags, args []string) (any, error) {
			account, err := identity.ParseAddress(args[0])
			if err != nil {
				return nil, err
			}
			id, err := parseTokenID(args[1])
			if err != nil {
				return nil, err
			}
			return l.Registry().BalanceOf(account, id), nil
		},
	},
	{
		use:   "has-role <role> <account>",
		short: "Report whether an account holds a role",
		args:  cobra.ExactArgs(2),
		run: func(l *ledger.Ledger, _ *queryFlags, args []string) (any, error) {
			role, err := identity.ParseRole(args[0])
			if err != nil {
				return nil, err
			}
			account, err := identity.ParseAddress(args[1])
			if err != nil {
				return nil, err
			}
			return l.Registry().HasRole(role, account), nil
		},
	},
}

func parseTokenID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q", s)
	}
	return id, nil
}

func newQueryCommands(opts *RootOptions) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(queryCommands)+1)
	for _, qc := range queryCommands {
		cmds = append(cmds, newQueryCommand(opts, qc))
	}
	return append(cmds, newInfoCommand(opts))
}

func newQueryCommand(opts *RootOptions, qc queryCommand) *cobra.Command {
	f := &queryFlags{}
	name, _, _ := strings.Cut(qc.use, " ")

	cmd := &cobra.Command{
		Use:   qc.use,
		Short: qc.short,
		Long: qc.short + `.

Exit codes:
  0 - Query answered
  1 - Query failed (unknown token, missing scores, etc.)
  2 - Command error`,
		Args:          qc.args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			l, closeFn, err := openLedger(ctx, opts, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			out := opts.formatter(cmd)
			v, err := qc.run(l, f, args)
			if err != nil {
				if code := registry.ErrorCode(err); code != "" {
					return out.Fail(ExitFailure, code, err)
				}
				return out.Fail(ExitCommandError, ErrCodeArgument, err)
			}
			return out.Success(QueryResult{Query: name, Value: v})
		},
	}
	if qc.flags != nil {
		qc.flags(cmd, f)
	}
	return cmd
}

func newInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "info",
		Short:         "Summarise the deployment and registry state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			l, closeFn, err := openLedger(ctx, opts, cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			return opts.formatter(cmd).Success(newInfoResult(l))
		},
	}
}

func newInfoResult(l *ledger.Ledger) InfoResult {
	g, hash := l.Genesis()
	snap := l.Registry().Snapshot()

	info := InfoResult{
		DeploymentID: g.DeploymentID,
		GenesisHash:  hash,
		Deployer:     g.Deployer,
		BaseURI:      snap.BaseURI,
		Paused:       snap.Paused,
		Counter:      snap.Counter,
		LastSeq:      l.Seq(),
		Admins:       addressStrings(snap.Admins),
		Providers:    addressStrings(snap.Providers),
		Supply:       snap.Supply,
		Scores:       make([]ScoreOutput, 0, len(snap.Scores)),
	}
	for _, s := range snap.Scores {
		info.Scores = append(info.Scores, ScoreOutput{Date: s.Date, CID: s.CID})
	}
	return info
}

func addressStrings(addrs []identity.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

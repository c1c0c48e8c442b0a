package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/ledger"
)

// txFlags holds the flags shared by transaction commands.
type txFlags struct {
	Caller       string
	Account      string
	TokenID      uint64
	Amount       uint64
	Data         string
	Hash         string
	Date         uint64
	CID          string
	Confirmation string
}

// txCommand describes one transaction subcommand.
type txCommand struct {
	use   string
	short string
	args  cobra.PositionalArgs
	flags func(cmd *cobra.Command, f *txFlags)
	build func(f *txFlags, caller identity.Address, args []string) (ledger.Request, error)
}

var txCommands = []txCommand{
	{
		use:   "issue",
		short: "Issue a new token class (admin)",
		args:  cobra.NoArgs,
		flags: func(cmd *cobra.Command, f *txFlags) {
			cmd.Flags().StringVar(&f.Hash, "hash", "", "metadata hash for ipfs locators")
		},
		build: func(f *txFlags, caller identity.Address, _ []string) (ledger.Request, error) {
			return ledger.Issue(caller, f.Hash), nil
		},
	},
	{
		use:   "mint",
		short: "Mint one wrapper unit of a token class",
		args:  cobra.NoArgs,
		flags: func(cmd *cobra.Command, f *txFlags) {
			cmd.Flags().StringVar(&f.Account, "account", "", "receiving account (defaults to --caller)")
			cmd.Flags().Uint64Var(&f.TokenID, "token-id", 0, "token class id")
			cmd.Flags().Uint64Var(&f.Amount, "amount", 1, "amount, capped at one unit")
			cmd.Flags().StringVar(&f.Data, "data", "0x", "opaque hex data")
		},
		build: func(f *txFlags, caller identity.Address, _ []string) (ledger.Request, error) {
			account, err := accountOr(f.Account, caller)
			if err != nil {
				return ledger.Request{}, err
			}
			data, err := hexutil.Decode(f.Data)
			if err != nil {
				return ledger.Request{}, fmt.Errorf("--data: %w", err)
			}
			return ledger.Mint(caller, account, f.TokenID, f.Amount, data), nil
		},
	},
	{
		use:   "burn",
		short: "Burn the caller's wrapper unit",
		args:  cobra.NoArgs,
		flags: func(cmd *cobra.Command, f *txFlags) {
			cmd.Flags().StringVar(&f.Account, "account", "", "holding account (defaults to --caller)")
			cmd.Flags().Uint64Var(&f.TokenID, "token-id", 0, "token class id")
			cmd.Flags().Uint64Var(&f.Amount, "amount", 1, "amount")
		},
		build: func(f *txFlags, caller identity.Address, _ []string) (ledger.Request, error) {
			account, err := accountOr(f.Account, caller)
			if err != nil {
				return ledger.Request{}, err
			}
			return ledger.Burn(caller, account, f.TokenID, f.Amount), nil
		},
	},
	{
		use:   "update-base-uri <uri>",
		short: "Replace the base URI (admin)",
		args:  cobra.ExactArgs(1),
		build: func(_ *txFlags, caller identity.Address, args []string) (ledger.Request, error) {
			return ledger.UpdateBaseURI(caller, args[0]), nil
		},
	},
	{
		use:   "update-scores",
		short: "Publish the score content for a date (provider)",
		args:  cobra.NoArgs,
		flags: func(cmd *cobra.Command, f *txFlags) {
			cmd.Flags().Uint64Var(&f.Date, "date", 0, "score date, e.g. 20240101")
			cmd.Flags().StringVar(&f.CID, "cid", "", "content identifier")
			_ = cmd.MarkFlagRequired("date")
			_ = cmd.MarkFlagRequired("cid")
		},
		build: func(f *txFlags, caller identity.Address, _ []string) (ledger.Request, error) {
			return ledger.UpdateScores(caller, f.Date, f.CID), nil
		},
	},
	{
		use:   "grant-role <role> <account>",
		short: "Grant a role (admin of the role)",
		args:  cobra.ExactArgs(2),
		build: roleBuilder(ledger.GrantRole),
	},
	{
		use:   "revoke-role <role> <account>",
		short: "Revoke a role (admin of the role)",
		args:  cobra.ExactArgs(2),
		build: roleBuilder(ledger.RevokeRole),
	},
	{
		use:   "renounce-role <role>",
		short: "Give up one of the caller's roles",
		args:  cobra.ExactArgs(1),
		flags: func(cmd *cobra.Command, f *txFlags) {
			cmd.Flags().StringVar(&f.Confirmation, "confirmation", "", "the caller's own address (defaults to --caller)")
		},
		build: func(f *txFlags, caller identity.Address, args []string) (ledger.Request, error) {
			role, err := identity.ParseRole(args[0])
			if err != nil {
				return ledger.Request{}, err
			}
			confirmation, err := accountOr(f.Confirmation, caller)
			if err != nil {
				return ledger.Request{}, err
			}
			return ledger.RenounceRole(caller, role, confirmation), nil
		},
	},
	{
		use:   "pause",
		short: "Block mint and burn (admin)",
		args:  cobra.NoArgs,
		build: func(_ *txFlags, caller identity.Address, _ []string) (ledger.Request, error) {
			return ledger.Pause(caller), nil
		},
	},
	{
		use:   "unpause",
		short: "Resume mint and burn (admin)",
		args:  cobra.NoArgs,
		build: func(_ *txFlags, caller identity.Address, _ []string) (ledger.Request, error) {
			return ledger.Unpause(caller), nil
		},
	},
}

func roleBuilder(fn func(identity.Address, identity.Role, identity.Address) ledger.Request) func(*txFlags, identity.Address, []string) (ledger.Request, error) {
	return func(_ *txFlags, caller identity.Address, args []string) (ledger.Request, error) {
		role, err := identity.ParseRole(args[0])
		if err != nil {
			return ledger.Request{}, err
		}
		account, err := identity.ParseAddress(args[1])
		if err != nil {
			return ledger.Request{}, err
		}
		return fn(caller, role, account), nil
	}
}

func accountOr(s string, def identity.Address) (identity.Address, error) {
	if s == "" {
		return def, nil
	}
	return identity.ParseAddress(s)
}

func newTransactionCommands(opts *RootOptions) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(txCommands))
	for _, tc := range txCommands {
		cmds = append(cmds, newTxCommand(opts, tc))
	}
	return cmds
}

func newTxCommand(opts *RootOptions, tc txCommand) *cobra.Command {
	f := &txFlags{}

	cmd := &cobra.Command{
		Use:   tc.use,
		Short: tc.short,
		Long: tc.short + `.

The transaction is sequenced and journaled whether it succeeds or is
rejected.

Exit codes:
  0 - Transaction applied
  1 - Transaction rejected by the registry
  2 - Command error (bad arguments, missing journal, etc.)`,
		Args:          tc.args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			caller, err := identity.ParseAddress(f.Caller)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeArgument, fmt.Errorf("--caller: %w", err))
			}
			req, err := tc.build(f, caller, args)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeArgument, err)
			}
			return submit(cmd.Context(), opts, cmd, req)
		},
	}

	cmd.Flags().StringVar(&f.Caller, "caller", "", "submitting account (required)")
	_ = cmd.MarkFlagRequired("caller")
	if tc.flags != nil {
		tc.flags(cmd, f)
	}
	return cmd
}

// submit applies req to the journal and prints its receipt.
func submit(ctx context.Context, opts *RootOptions, cmd *cobra.Command, req ledger.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l, closeFn, err := openLedger(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	out := opts.formatter(cmd)
	receipt, err := l.Submit(ctx, req)
	if err != nil {
		var ae *ledger.ArgumentError
		if errors.As(err, &ae) {
			return out.Fail(ExitCommandError, ErrCodeArgument, err)
		}
		return out.Fail(ExitCommandError, ErrCodeJournal, err)
	}

	ro := newReceiptOutput(receipt)
	if !receipt.OK() {
		return out.Rejected(receipt.Outcome.Code, receipt.Outcome.Message, ro)
	}
	return out.Success(ro)
}

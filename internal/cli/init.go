package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/config"
	"github.com/togethercrew/engagement/internal/ledger"
	"github.com/togethercrew/engagement/internal/registry"
	"github.com/togethercrew/engagement/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Config string
}

// InitResult describes a new deployment.
type InitResult struct {
	DeploymentID string `json:"deployment_id"`
	GenesisHash  string `json:"genesis_hash"`
	Deployer     string `json:"deployer"`
	BaseURI      string `json:"base_uri"`
	Database     string `json:"database"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("deployment %s\n  genesis  %s\n  deployer %s\n  base uri %s\n  journal  %s",
		r.DeploymentID, r.GenesisHash, r.Deployer, r.BaseURI, r.Database)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a deployment from a config file",
		Long: `Validate a deployment config (.cue, .yaml or .yml) and write its genesis
record to a new journal. The deployer receives the admin role; listed
providers receive the provider role.

The journal path is --db when given, otherwise the config's database field.

Exit codes:
  0 - Deployment created
  1 - Journal already holds a different deployment
  2 - Command error (invalid config, etc.)

Examples:
  engagement init --config deployment.yaml
  engagement init --config deployment.cue --db ./engagement.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "deployment config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runInit(ctx context.Context, opts *InitOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	d, err := config.Load(opts.Config)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	deployer, cfg, err := d.Registry()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	path := d.Database
	if f := cmd.Flag("db"); (f != nil && f.Changed) || path == "" {
		path = opts.Database
	}
	out.VerboseLog("initialising journal %s", path)

	st, err := store.Open(path)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeJournal, err)
	}
	defer opts.closeLedger(cmd, st)

	l, err := ledger.Init(ctx, st, deployer, cfg, opts.ledgerOptions(cmd)...)
	if err != nil {
		if errors.Is(err, store.ErrGenesisMismatch) {
			return out.Fail(ExitFailure, ErrCodeJournal, err)
		}
		if code := registry.ErrorCode(err); code != "" {
			return out.Fail(ExitCommandError, code, err)
		}
		return out.Fail(ExitCommandError, ErrCodeJournal, err)
	}

	g, hash := l.Genesis()
	return out.Success(InitResult{
		DeploymentID: g.DeploymentID,
		GenesisHash:  hash,
		Deployer:     g.Deployer,
		BaseURI:      l.Registry().BaseURI(),
		Database:     path,
	})
}

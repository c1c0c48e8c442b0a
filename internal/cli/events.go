package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/events"
	"github.com/togethercrew/engagement/internal/ir"
)

// EventsResult lists journaled events.
type EventsResult struct {
	Kind   string           `json:"kind,omitempty"`
	Events []ir.EventRecord `json:"events"`
}

func (r EventsResult) String() string {
	if len(r.Events) == 0 {
		return "No events."
	}
	lines := make([]string, len(r.Events))
	for i, e := range r.Events {
		payload, _ := ir.MarshalCanonical(e.Payload)
		lines[i] = fmt.Sprintf("[%d] tx %d %s %s", e.Seq, e.TxSeq, e.Kind, payload)
	}
	return strings.Join(lines, "\n")
}

// NewEventsCommand creates the events command.
func NewEventsCommand(opts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List journaled events",
		Long: `List events from the journal in sequence order.

Examples:
  engagement events
  engagement events --kind Mint --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := opts.formatter(cmd)

			if kind != "" {
				k, err := events.ParseKind(kind)
				if err != nil {
					return out.Fail(ExitCommandError, ErrCodeArgument, err)
				}
				kind = string(k)
			}

			st, err := openStore(opts, out)
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.ReadEvents(ctx, kind)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeJournal, err)
			}
			if recs == nil {
				recs = []ir.EventRecord{}
			}
			return out.Success(EventsResult{Kind: kind, Events: recs})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only events of this kind, e.g. Mint")
	return cmd
}

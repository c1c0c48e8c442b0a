package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/togethercrew/engagement/internal/ledger"
	"github.com/togethercrew/engagement/internal/metrics"
)

// instrument creates a private registry for this invocation when --metrics
// is set. Each command runs once, so nothing outlives it.
func (o *RootOptions) instrument() {
	if !o.Metrics || o.metrics != nil {
		return
	}
	o.gatherer = prometheus.NewRegistry()
	o.metrics = metrics.New(o.gatherer)
}

// ledgerOptions returns the options every command opens or creates a ledger
// with. Metrics is nil unless --metrics was given.
func (o *RootOptions) ledgerOptions(cmd *cobra.Command) []ledger.Option {
	return []ledger.Option{
		ledger.WithLogger(o.logger(cmd.ErrOrStderr())),
		ledger.WithMetrics(o.metrics),
	}
}

// writeMetrics prints the collected metrics in the Prometheus text
// exposition format. It writes nothing without --metrics.
func (o *RootOptions) writeMetrics(w io.Writer) error {
	if o.gatherer == nil {
		return nil
	}
	families, err := o.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// closeLedger releases the journal and reports metrics to stderr so that
// JSON on stdout stays parseable.
func (o *RootOptions) closeLedger(cmd *cobra.Command, closer interface{ Close() error }) {
	closer.Close()
	if err := o.writeMetrics(cmd.ErrOrStderr()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

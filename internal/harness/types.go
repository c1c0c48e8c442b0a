package harness

import "github.com/togethercrew/engagement/internal/ir"

// TraceEvent is one sequenced transaction as observed by the harness.
type TraceEvent struct {
	Seq    uint64      `json:"seq"`
	Op     string      `json:"op"`
	Caller string      `json:"caller"`
	Args   ir.Object   `json:"args"`
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Result ir.Object   `json:"result,omitempty"`
	Events []TraceEmit `json:"events"`
}

// TraceEmit is an event emitted by a traced transaction.
type TraceEmit struct {
	Seq     uint64    `json:"seq"`
	Kind    string    `json:"kind"`
	Payload ir.Object `json:"payload"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists setup and flow transactions in sequence order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Emitted returns every event in the trace in emission order.
func (r *Result) Emitted() []TraceEmit {
	var out []TraceEmit
	for _, ev := range r.Trace {
		out = append(out, ev.Events...)
	}
	return out
}

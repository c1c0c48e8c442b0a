package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/togethercrew/engagement/internal/ir"
)

// GoldenDir holds golden trace files, one per scenario name.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the trace of a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		emitted := make([]any, len(ev.Events))
		for j, e := range ev.Events {
			emitted[j] = map[string]any{
				"seq":     e.Seq,
				"kind":    e.Kind,
				"payload": e.Payload,
			}
		}
		m := map[string]any{
			"seq":    ev.Seq,
			"op":     ev.Op,
			"caller": ev.Caller,
			"args":   ev.Args,
			"status": ev.Status,
			"events": emitted,
		}
		if ev.Args == nil {
			m["args"] = ir.Object{}
		}
		if ev.Code != "" {
			m["code"] = ev.Code
		}
		if len(ev.Result) > 0 {
			m["result"] = ev.Result
		}
		trace[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
}

// Snapshot renders result's trace as canonical JSON, the golden file format.
func Snapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}

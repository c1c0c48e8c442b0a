package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{"alice_and_bob", "scores_and_uri", "pause"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/alice_and_bob.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{
		Seq:    1,
		Op:     "pause",
		Caller: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Status: StatusOK,
		Events: []TraceEmit{},
	})

	got, err := Snapshot("empty", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"empty","trace":[{"args":{},"caller":"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed","events":[],"op":"pause","seq":1,"status":"ok"}]}`,
		string(got))
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_AllFixtures(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			s, err := LoadScenario(f)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Flow)
		})
	}
}

func TestLoadScenario_Fields(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/scores_and_uri.yaml")
	require.NoError(t, err)

	assert.Equal(t, "scores_and_uri", s.Name)
	assert.Equal(t, "admin", s.Deployment.Deployer)
	assert.Equal(t, "hierarchical", s.Deployment.Scheme)
	assert.Equal(t, []string{"provider"}, s.Deployment.Providers)
	require.Len(t, s.Setup, 1)
	require.Len(t, s.Flow, 4)
	assert.Equal(t, "updateScores", s.Flow[0].Op)
	assert.Equal(t, 20240101, s.Flow[0].Args["date"])
	assert.Equal(t, "AccessControlUnauthorizedAccount", s.Flow[1].Expect.Code)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: typo
description: misspelt key
deployment:
  deployer: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
  base_uri: "https://x/"
flow:
  - op: issue
    caller: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
assertion: []
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	const deploy = "deployment:\n  deployer: admin\n  base_uri: x\n"
	const accounts = "accounts:\n  admin: \"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed\"\n"
	const flow = "flow:\n  - op: issue\n    caller: admin\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "description: d\n" + deploy + flow, "name is required"},
		{"no description", "name: n\n" + deploy + flow, "description is required"},
		{"no deployer", "name: n\ndescription: d\n" + flow, "deployment.deployer is required"},
		{"no flow", "name: n\ndescription: d\n" + deploy, "flow list is required"},
		{"bad alias", "name: n\ndescription: d\naccounts:\n  admin: nobody\n" + deploy + flow, "accounts.admin"},
		{"unknown op", "name: n\ndescription: d\n" + accounts + deploy + "flow:\n  - op: transfer\n    caller: admin\n", `unknown op "transfer"`},
		{"no caller", "name: n\ndescription: d\n" + deploy + "flow:\n  - op: issue\n", "caller is required"},
		{"bad status", "name: n\ndescription: d\n" + deploy + flow + "    expect:\n      status: maybe\n", "expect.status"},
		{"ok with code", "name: n\ndescription: d\n" + deploy + flow + "    expect:\n      status: ok\n      code: NotFound\n", "expect.code given with status ok"},
		{"setup expect", "name: n\ndescription: d\n" + deploy + "setup:\n  - op: issue\n    caller: admin\n    expect:\n      status: ok\n" + flow, "setup steps cannot carry expect"},
		{"unknown assertion", "name: n\ndescription: d\n" + deploy + flow + "assertions:\n  - type: vibes\n", `unknown assertion type "vibes"`},
		{"unknown query", "name: n\ndescription: d\n" + deploy + flow + "assertions:\n  - type: query\n    query: owner\n    expect: x\n", `unknown query "owner"`},
		{"query without expect", "name: n\ndescription: d\n" + deploy + flow + "assertions:\n  - type: query\n    query: counter\n", "expect or code is required"},
		{"order without kinds", "name: n\ndescription: d\n" + deploy + flow + "assertions:\n  - type: event_order\n", "kinds list is required"},
		{"count without kind", "name: n\ndescription: d\n" + deploy + flow + "assertions:\n  - type: event_count\n    count: 1\n", "kind is required for event_count"},
		{"negative count", "name: n\ndescription: d\n" + deploy + flow + "assertions:\n  - type: event_count\n    kind: Mint\n    count: -1\n", "count must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenario_Resolve(t *testing.T) {
	s := &Scenario{Accounts: map[string]string{
		"alice": "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
	}}

	assert.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", s.resolve("alice"), "alias checksummed")
	assert.Equal(t, "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", s.resolve("0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb"))
	assert.Equal(t, "carol", s.resolve("carol"), "unknown names pass through")

	args := s.resolveArgs(map[string]any{"account": "alice", "cid": "alice", "token_id": 3})
	assert.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", args["account"])
	assert.Equal(t, "alice", args["cid"], "only address keys resolve")
	assert.Equal(t, 3, args["token_id"])
}

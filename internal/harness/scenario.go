package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/registry"
)

// Scenario is an executable description of registry behaviour.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Accounts maps aliases to addresses.
	Accounts map[string]string `yaml:"accounts,omitempty"`

	// Deployment configures the registry under test.
	Deployment Deployment `yaml:"deployment"`

	// Setup steps run before the flow and must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow steps run in order and may carry expectations.
	Flow []Step `yaml:"flow"`

	// Assertions are evaluated after the flow.
	Assertions []Assertion `yaml:"assertions"`
}

// Deployment mirrors the deployment config file.
type Deployment struct {
	Deployer      string   `yaml:"deployer"`
	BaseURI       string   `yaml:"base_uri"`
	Scheme        string   `yaml:"scheme,omitempty"`
	TokenTemplate string   `yaml:"token_template,omitempty"`
	ScoreTemplate string   `yaml:"score_template,omitempty"`
	Providers     []string `yaml:"providers,omitempty"`
}

// Step submits one operation.
type Step struct {
	// Op is the operation name, e.g. "mint".
	Op string `yaml:"op"`

	// Caller is the submitting account or alias.
	Caller string `yaml:"caller"`

	// Args are the operation arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect validates the receipt. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected receipt.
type ExpectClause struct {
	// Status is "ok" or "rejected". Defaults to "rejected" when Code is
	// set, otherwise "ok".
	Status string `yaml:"status,omitempty"`

	// Code is the expected rejection code.
	Code string `yaml:"code,omitempty"`

	// Result holds expected result fields (subset match).
	Result map[string]any `yaml:"result,omitempty"`

	// Events lists the expected event kinds in order. Nil skips the check.
	Events []string `yaml:"events,omitempty"`
}

// Assertion validates emitted events or final registry state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Kind is the event kind (event_contains, event_count).
	Kind string `yaml:"kind,omitempty"`

	// Fields are expected event fields (event_contains, subset match).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Kinds is the expected event order (event_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of events (event_count).
	Count int `yaml:"count,omitempty"`

	// Query names a registry query (query).
	Query string `yaml:"query,omitempty"`

	// Args are the query arguments (query).
	Args map[string]any `yaml:"args,omitempty"`

	// Expect is the expected query value (query).
	Expect any `yaml:"expect,omitempty"`

	// Code is the expected query error code (query).
	Code string `yaml:"code,omitempty"`
}

// Assertion types.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertQuery         = "query"
)

// Status values accepted by ExpectClause.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Deployment.Deployer == "" {
		return fmt.Errorf("deployment.deployer is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for alias, addr := range s.Accounts {
		if _, err := identity.ParseAddress(addr); err != nil {
			return fmt.Errorf("accounts.%s: %w", alias, err)
		}
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot carry expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if !isOp(step.Op) {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Caller == "" {
		return fmt.Errorf("caller is required")
	}
	if e := step.Expect; e != nil {
		switch e.Status {
		case "", StatusOK, StatusRejected:
		default:
			return fmt.Errorf("expect.status must be %q or %q", StatusOK, StatusRejected)
		}
		if e.Status == StatusOK && e.Code != "" {
			return fmt.Errorf("expect.code given with status ok")
		}
	}
	return nil
}

func isOp(name string) bool {
	for _, op := range registry.Ops() {
		if string(op) == name {
			return true
		}
	}
	return false
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_contains", index)
		}
	case AssertEventOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for event_order", index)
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertQuery:
		if _, ok := queries[a.Query]; !ok {
			return fmt.Errorf("assertions[%d]: unknown query %q", index, a.Query)
		}
		if a.Expect == nil && a.Code == "" {
			return fmt.Errorf("assertions[%d]: expect or code is required for query", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// expectedStatus resolves the status defaulting rule.
func (e *ExpectClause) expectedStatus() string {
	if e.Status != "" {
		return e.Status
	}
	if e.Code != "" {
		return StatusRejected
	}
	return StatusOK
}

// resolve maps an alias to its checksummed address. Unknown names are
// returned unchanged.
func (s *Scenario) resolve(name string) string {
	if addr, ok := s.Accounts[name]; ok {
		name = addr
	}
	if a, err := identity.ParseAddress(name); err == nil {
		return a.String()
	}
	return name
}

// addressKeys are argument and event field names that hold addresses.
var addressKeys = map[string]bool{
	"account":      true,
	"confirmation": true,
	"sender":       true,
}

// resolveArgs copies args, resolving aliases under address keys.
func (s *Scenario) resolveArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if str, ok := v.(string); ok && addressKeys[k] {
			v = s.resolve(str)
		}
		out[k] = v
	}
	return out
}

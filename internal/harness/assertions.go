package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/togethercrew/engagement/internal/identity"
	"github.com/togethercrew/engagement/internal/registry"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Events   []TraceEmit // Emitted events for debugging context
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvents:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Kind, formatFields(ev.Payload))
		}
	}
	return buf.String()
}

// AssertionContext provides what assertions evaluate against.
type AssertionContext struct {
	Scenario *Scenario
	Registry *registry.Registry
}

// EvaluateAssertions evaluates all assertions against the result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	emitted := result.Emitted()
	var scenario *Scenario
	if actx != nil {
		scenario = actx.Scenario
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(emitted, assertion, scenario)
		case AssertEventOrder:
			err = assertEventOrder(emitted, assertion)
		case AssertEventCount:
			err = assertEventCount(emitted, assertion)
		case AssertQuery:
			if actx == nil || actx.Registry == nil {
				err = fmt.Errorf("assertion[%d]: query requires a registry", i)
			} else {
				err = assertQuery(actx.Registry, assertion, scenario)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// assertEventContains checks for an event of the given kind whose payload
// includes every expected field.
func assertEventContains(emitted []TraceEmit, a Assertion, s *Scenario) error {
	fields := a.Fields
	if s != nil {
		fields = s.resolveArgs(a.Fields)
	}
	for _, ev := range emitted {
		if ev.Kind == a.Kind && matchFields(ev.Payload, fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s event with %s", a.Kind, formatFields(fields)),
		Actual:   "not emitted",
		Events:   emitted,
	}
}

// assertEventOrder checks that kinds appear in order. Other events may
// appear in between.
func assertEventOrder(emitted []TraceEmit, a Assertion) error {
	next := 0
	for _, ev := range emitted {
		if next < len(a.Kinds) && ev.Kind == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Kinds),
		Actual:   fmt.Sprintf("%s not found after %v", a.Kinds[next], a.Kinds[:next]),
		Events:   emitted,
	}
}

// assertEventCount checks that exactly Count events of Kind were emitted.
func assertEventCount(emitted []TraceEmit, a Assertion) error {
	count := 0
	for _, ev := range emitted {
		if ev.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d events", count),
			Events:   emitted,
		}
	}
	return nil
}

// assertQuery runs a registry query and compares its value or error code.
func assertQuery(reg *registry.Registry, a Assertion, s *Scenario) error {
	args := a.Args
	if s != nil {
		args = s.resolveArgs(a.Args)
	}
	got, err := queries[a.Query](reg, args)

	desc := fmt.Sprintf("%s(%s)", a.Query, formatFields(args))
	if a.Code != "" {
		if code := registry.ErrorCode(err); code != a.Code {
			return &AssertionError{
				Type:     AssertQuery,
				Expected: fmt.Sprintf("%s fails with %s", desc, a.Code),
				Actual:   fmt.Sprintf("value %v, error %v", got, err),
			}
		}
		return nil
	}
	if err != nil {
		return &AssertionError{
			Type:     AssertQuery,
			Expected: fmt.Sprintf("%s = %v", desc, a.Expect),
			Actual:   fmt.Sprintf("error %v", err),
		}
	}
	if !valuesEqual(a.Expect, got) {
		return &AssertionError{
			Type:     AssertQuery,
			Expected: fmt.Sprintf("%s = %v", desc, a.Expect),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

type queryFunc func(reg *registry.Registry, args map[string]any) (any, error)

var queries = map[string]queryFunc{
	"uri": func(reg *registry.Registry, args map[string]any) (any, error) {
		id, err := uintArg(args, "token_id")
		if err != nil {
			return nil, err
		}
		var account identity.Address
		if _, ok := args["account"]; ok {
			if account, err = addressArg(args, "account"); err != nil {
				return nil, err
			}
		}
		return reg.URI(id, account)
	},
	"scores": func(reg *registry.Registry, args map[string]any) (any, error) {
		date, err := uintArg(args, "date")
		if err != nil {
			return nil, err
		}
		id, err := uintArg(args, "token_id")
		if err != nil {
			return nil, err
		}
		var account identity.Address
		if _, ok := args["account"]; ok {
			if account, err = addressArg(args, "account"); err != nil {
				return nil, err
			}
		}
		return reg.GetScores(date, id, account)
	},
	"balance": func(reg *registry.Registry, args map[string]any) (any, error) {
		account, err := addressArg(args, "account")
		if err != nil {
			return nil, err
		}
		id, err := uintArg(args, "token_id")
		if err != nil {
			return nil, err
		}
		return reg.BalanceOf(account, id), nil
	},
	"total_supply": func(reg *registry.Registry, args map[string]any) (any, error) {
		id, err := uintArg(args, "token_id")
		if err != nil {
			return nil, err
		}
		return reg.TotalSupply(id), nil
	},
	"exists": func(reg *registry.Registry, args map[string]any) (any, error) {
		id, err := uintArg(args, "token_id")
		if err != nil {
			return nil, err
		}
		return reg.Exists(id), nil
	},
	"counter": func(reg *registry.Registry, _ map[string]any) (any, error) {
		return reg.Counter(), nil
	},
	"has_role": func(reg *registry.Registry, args map[string]any) (any, error) {
		role, err := roleArg(args)
		if err != nil {
			return nil, err
		}
		account, err := addressArg(args, "account")
		if err != nil {
			return nil, err
		}
		return reg.HasRole(role, account), nil
	},
	"role_admin": func(reg *registry.Registry, args map[string]any) (any, error) {
		role, err := roleArg(args)
		if err != nil {
			return nil, err
		}
		return reg.GetRoleAdmin(role).Name(), nil
	},
	"base_uri": func(reg *registry.Registry, _ map[string]any) (any, error) {
		return reg.BaseURI(), nil
	},
	"paused": func(reg *registry.Registry, _ map[string]any) (any, error) {
		return reg.Paused(), nil
	},
}

func uintArg(args map[string]any, key string) (uint64, error) {
	switch v := args[key].(type) {
	case int:
		if v >= 0 {
			return uint64(v), nil
		}
	case uint64:
		return v, nil
	case nil:
		return 0, fmt.Errorf("missing argument %q", key)
	}
	return 0, fmt.Errorf("argument %q: want unsigned integer, got %v", key, args[key])
}

func addressArg(args map[string]any, key string) (identity.Address, error) {
	s, ok := args[key].(string)
	if !ok {
		return identity.Address{}, fmt.Errorf("argument %q: want address, got %v", key, args[key])
	}
	return identity.ParseAddress(s)
}

func roleArg(args map[string]any) (identity.Role, error) {
	s, ok := args["role"].(string)
	if !ok {
		return identity.Role{}, fmt.Errorf("argument \"role\": want role name, got %v", args["role"])
	}
	return identity.ParseRole(s)
}

// matchFields reports whether actual contains every expected field.
func matchFields[M ~map[string]V, V any](actual M, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

// valuesEqual compares a YAML-decoded expectation with an observed value by
// their printed forms, so 1 matches uint64(1) and ir.Uint(1).
func valuesEqual(expected, actual any) bool {
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

func formatFields[M ~map[string]V, V any](fields M) string {
	if len(fields) == 0 {
		return "(no fields)"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, ", ")
}

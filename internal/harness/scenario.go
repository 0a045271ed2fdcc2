package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quelaag/evsc/internal/ir"
)

// Scenario defines one conformance scenario: event sources, an optional
// flag namespace, expected compile errors, and an optional tick script
// executed against the reference engine.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Namespace is the symbolic flag-name table for this scenario.
	Namespace map[string]int64 `yaml:"namespace,omitempty"`

	// PoolSize overrides the per-polarity slot pool. Zero keeps the
	// compiler default.
	PoolSize int `yaml:"pool_size,omitempty"`

	// Events are the event definitions to compile, in order.
	Events []EventSpec `yaml:"events"`

	// ExpectErrors lists compile error codes the scenario must produce.
	// When non-empty, compilation is expected to fail and no golden or
	// tick sections may be present.
	ExpectErrors []string `yaml:"expect_errors,omitempty"`

	// Golden enables canonical-listing comparison against
	// testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`

	// Ticks scripts the engine run, one entry per tick.
	Ticks []TickStep `yaml:"ticks,omitempty"`
}

// EventSpec is the YAML form of one event definition.
type EventSpec struct {
	ID int64 `yaml:"id"`

	// Restart lists the restart policy tags applied to the event.
	// Well-formed events carry exactly one; error scenarios may carry
	// zero or several.
	Restart []string `yaml:"restart"`

	Body []NodeSpec `yaml:"body"`
}

// NodeSpec is the YAML form of one statement or condition node. Exactly
// one field group may be set.
type NodeSpec struct {
	// Test names a vocabulary test; Args carries its arguments. Integer
	// args pass through, strings resolve through the namespace, and the
	// string "THIS_FLAG" is the own-flag sentinel.
	Test string `yaml:"test,omitempty"`
	Args []any  `yaml:"args,omitempty"`

	// Not negates the wrapped node.
	Not *NodeSpec `yaml:"not,omitempty"`

	// AllOf / AnyOf build condition groups.
	AllOf []NodeSpec `yaml:"all_of,omitempty"`
	AnyOf []NodeSpec `yaml:"any_of,omitempty"`

	// Hold marks the wrapped node's group as held until the terminator.
	Hold *NodeSpec `yaml:"hold,omitempty"`

	// Await blocks on the wrapped condition.
	Await *NodeSpec `yaml:"await,omitempty"`

	// End / Restart are terminators.
	End     bool `yaml:"end,omitempty"`
	Restart bool `yaml:"restart,omitempty"`
}

// TickStep scripts one engine tick: world mutations and an optional rest
// trigger applied first, then the tick, then task expectations.
type TickStep struct {
	World  *WorldSpec   `yaml:"world,omitempty"`
	Rest   bool         `yaml:"rest,omitempty"`
	Expect []TaskExpect `yaml:"expect,omitempty"`
}

// WorldSpec mutates the scripted world before a tick.
type WorldSpec struct {
	SetFlags map[int64]bool  `yaml:"set_flags,omitempty"`
	Kill     []int64         `yaml:"kill,omitempty"`
	Revive   []int64         `yaml:"revive,omitempty"`
	Give     []int64         `yaml:"give,omitempty"`
	Drop     []int64         `yaml:"drop,omitempty"`
	Enter    map[int64]int64 `yaml:"enter,omitempty"`
	Leave    []int64         `yaml:"leave,omitempty"`
	Destroy  []int64         `yaml:"destroy,omitempty"`
	Activate []int64         `yaml:"activate,omitempty"`
}

// TaskExpect asserts on one task's observable state after a tick.
type TaskExpect struct {
	Event     int64  `yaml:"event"`
	State     string `yaml:"state,omitempty"`
	Suspended *bool  `yaml:"suspended,omitempty"`
	Main      *bool  `yaml:"main,omitempty"`
	LiveSlots *int   `yaml:"live_slots,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", path, err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if len(s.ExpectErrors) > 0 && (s.Golden || len(s.Ticks) > 0) {
		return fmt.Errorf("expect_errors excludes golden and ticks sections")
	}

	ids := map[int64]bool{}
	for i, ev := range s.Events {
		if ev.ID <= 0 {
			return fmt.Errorf("events[%d]: id must be positive", i)
		}
		if ids[ev.ID] {
			return fmt.Errorf("events[%d]: duplicate event id %d", i, ev.ID)
		}
		ids[ev.ID] = true
		for j, n := range ev.Body {
			if err := validateNode(&n); err != nil {
				return fmt.Errorf("events[%d].body[%d]: %w", i, j, err)
			}
		}
	}

	for i, tick := range s.Ticks {
		for j, exp := range tick.Expect {
			if !ids[exp.Event] {
				return fmt.Errorf("ticks[%d].expect[%d]: unknown event id %d", i, j, exp.Event)
			}
			if exp.State != "" {
				if _, err := parseState(exp.State); err != nil {
					return fmt.Errorf("ticks[%d].expect[%d]: %w", i, j, err)
				}
			}
		}
	}
	return nil
}

func validateNode(n *NodeSpec) error {
	set := 0
	if n.Test != "" {
		set++
	}
	if n.Not != nil {
		set++
	}
	if len(n.AllOf) > 0 {
		set++
	}
	if len(n.AnyOf) > 0 {
		set++
	}
	if n.Hold != nil {
		set++
	}
	if n.Await != nil {
		set++
	}
	if n.End {
		set++
	}
	if n.Restart {
		set++
	}
	if set != 1 {
		return fmt.Errorf("node must set exactly one of test/not/all_of/any_of/hold/await/end/restart")
	}
	if n.Test == "" && len(n.Args) > 0 {
		return fmt.Errorf("args only apply to test nodes")
	}

	for i := range n.AllOf {
		if err := validateNode(&n.AllOf[i]); err != nil {
			return fmt.Errorf("all_of[%d]: %w", i, err)
		}
	}
	for i := range n.AnyOf {
		if err := validateNode(&n.AnyOf[i]); err != nil {
			return fmt.Errorf("any_of[%d]: %w", i, err)
		}
	}
	for _, sub := range []*NodeSpec{n.Not, n.Hold, n.Await} {
		if sub != nil {
			if err := validateNode(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// parsePolicy maps a YAML tag name to its restart policy.
func parsePolicy(name string) (ir.RestartPolicy, error) {
	switch name {
	case "never_restart":
		return ir.NeverRestart, nil
	case "restart_on_rest":
		return ir.RestartOnRest, nil
	case "unknown_restart":
		return ir.UnknownRestart, nil
	}
	return ir.PolicyUnset, fmt.Errorf("unknown restart tag %q", name)
}

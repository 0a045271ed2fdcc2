package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quelaag/evsc/internal/compiler"
	"github.com/quelaag/evsc/internal/engine"
	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/ledger"
	"github.com/quelaag/evsc/internal/namespace"
	"github.com/quelaag/evsc/internal/testutil"
)

// Result captures everything a scenario run produced.
type Result struct {
	// Events holds the compiled events in scenario order. Empty when the
	// scenario expects compile errors.
	Events []*ir.Event

	// Errors holds the compile errors, one slice entry per failing
	// event definition.
	Errors []compiler.CompileErrors

	// Tasks maps event ID to its engine task after the tick script ran.
	Tasks map[int64]*engine.Task

	// Records holds the audit ledger rows for the compiled events.
	Records []ledger.Record
}

// Run executes a scenario end to end: compile every event, verify
// expected error codes, record successful compilations in an in-memory
// audit ledger, and drive the tick script against a scripted world.
func Run(s *Scenario, logger *slog.Logger) (*Result, error) {
	res, err := CompileScenario(s, logger)
	if err != nil {
		return nil, err
	}
	if len(s.ExpectErrors) > 0 {
		return res, nil
	}
	if len(s.Ticks) > 0 {
		if err := runTicks(s, res, logger); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// CompileScenario compiles a scenario's events without running the tick
// script. Expected error codes are still enforced and successful
// compilations still land in the audit ledger.
func CompileScenario(s *Scenario, logger *slog.Logger) (*Result, error) {
	ns, err := namespace.FromMap(s.Namespace)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	opts := []compiler.Option{compiler.WithNamespace(ns)}
	if s.PoolSize > 0 {
		opts = append(opts, compiler.WithPoolSize(s.PoolSize))
	}
	if logger != nil {
		opts = append(opts, compiler.WithLogger(logger))
	}

	res := &Result{Tasks: map[int64]*engine.Task{}}

	for i, spec := range s.Events {
		def, err := buildEvent(&spec)
		if err != nil {
			return nil, fmt.Errorf("scenario %q events[%d]: %w", s.Name, i, err)
		}

		ev, err := compiler.Compile(def, opts...)
		if err != nil {
			var errs compiler.CompileErrors
			if !errors.As(err, &errs) {
				return nil, fmt.Errorf("scenario %q events[%d]: %w", s.Name, i, err)
			}
			res.Errors = append(res.Errors, errs)
			continue
		}
		res.Events = append(res.Events, ev)
	}

	if err := checkExpectedErrors(s, res); err != nil {
		return nil, err
	}
	if len(s.ExpectErrors) > 0 {
		return res, nil
	}

	if err := recordAll(res); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return res, nil
}

// recordAll writes every compiled event to a throwaway in-memory ledger
// so scenarios exercise the audit path with deterministic IDs.
func recordAll(res *Result) error {
	l, err := ledger.Open(ledger.InMemory,
		ledger.WithIDGenerator(testutil.NewFixedIDGenerator()),
		ledger.WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()
	for _, ev := range res.Events {
		if _, err := l.Record(ctx, ev); err != nil {
			return err
		}
	}
	recs, err := l.Events(ctx)
	if err != nil {
		return err
	}
	res.Records = recs
	return nil
}

func runTicks(s *Scenario, res *Result, logger *slog.Logger) error {
	world := testutil.NewWorld()

	var engOpts []engine.Option
	if logger != nil {
		engOpts = append(engOpts, engine.WithLogger(logger))
	}
	eng := engine.New(world, engOpts...)

	for _, ev := range res.Events {
		res.Tasks[ev.ID] = eng.Spawn(ev)
	}

	for i, tick := range s.Ticks {
		if tick.World != nil {
			applyWorld(world, tick.World)
		}
		if tick.Rest {
			eng.Rest()
		}
		if err := eng.Tick(); err != nil {
			return fmt.Errorf("scenario %q ticks[%d]: %w", s.Name, i, err)
		}
		for j, exp := range tick.Expect {
			if err := checkTask(res.Tasks[exp.Event], &exp); err != nil {
				return fmt.Errorf("scenario %q ticks[%d].expect[%d]: %w", s.Name, i, j, err)
			}
		}
	}
	return nil
}

func applyWorld(w *testutil.World, spec *WorldSpec) {
	for id, on := range spec.SetFlags {
		w.SetFlag(id, on)
	}
	for _, id := range spec.Kill {
		w.Kill(id)
	}
	for _, id := range spec.Revive {
		w.Revive(id)
	}
	for _, id := range spec.Give {
		w.Give(id)
	}
	for _, id := range spec.Drop {
		w.Drop(id)
	}
	for entity, region := range spec.Enter {
		w.Enter(entity, region)
	}
	for _, id := range spec.Leave {
		w.Leave(id)
	}
	for _, id := range spec.Destroy {
		w.Destroy(id)
	}
	for _, id := range spec.Activate {
		w.Activate(id)
	}
}

// buildEvent converts an EventSpec into a compiler event definition.
func buildEvent(spec *EventSpec) (*compiler.EventDef, error) {
	def := compiler.NewEvent(spec.ID)
	for _, tag := range spec.Restart {
		p, err := parsePolicy(tag)
		if err != nil {
			return nil, err
		}
		def.Tag(p)
	}

	stmts := make([]compiler.Node, 0, len(spec.Body))
	for i, n := range spec.Body {
		node, err := buildNode(&n)
		if err != nil {
			return nil, fmt.Errorf("body[%d]: %w", i, err)
		}
		stmts = append(stmts, node)
	}
	def.Body(stmts...)
	return def, nil
}

func buildNode(n *NodeSpec) (compiler.Node, error) {
	switch {
	case n.Test != "":
		args, err := buildArgs(n.Args)
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", n.Test, err)
		}
		return compiler.Test(n.Test, args...), nil

	case n.Not != nil:
		inner, err := buildNode(n.Not)
		if err != nil {
			return nil, err
		}
		return compiler.Not(inner), nil

	case len(n.AllOf) > 0:
		children, err := buildNodes(n.AllOf)
		if err != nil {
			return nil, err
		}
		return compiler.AllOf(children...), nil

	case len(n.AnyOf) > 0:
		children, err := buildNodes(n.AnyOf)
		if err != nil {
			return nil, err
		}
		return compiler.AnyOf(children...), nil

	case n.Hold != nil:
		inner, err := buildNode(n.Hold)
		if err != nil {
			return nil, err
		}
		return compiler.Hold(inner), nil

	case n.Await != nil:
		inner, err := buildNode(n.Await)
		if err != nil {
			return nil, err
		}
		return compiler.Await(inner), nil

	case n.End:
		return compiler.End(), nil

	case n.Restart:
		return compiler.Restart(), nil
	}
	return nil, fmt.Errorf("empty node")
}

func buildNodes(specs []NodeSpec) ([]compiler.Node, error) {
	out := make([]compiler.Node, 0, len(specs))
	for i := range specs {
		node, err := buildNode(&specs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// buildArgs converts YAML scalar arguments into IR values. Strings go
// through the namespace as symbolic flag names; "THIS_FLAG" is the
// own-flag sentinel.
func buildArgs(raw []any) ([]ir.Value, error) {
	out := make([]ir.Value, 0, len(raw))
	for i, a := range raw {
		switch v := a.(type) {
		case int:
			out = append(out, ir.Int(v))
		case int64:
			out = append(out, ir.Int(v))
		case float64:
			out = append(out, ir.Float(v))
		case string:
			if v == "THIS_FLAG" {
				out = append(out, ir.ThisFlag{})
			} else {
				out = append(out, ir.Sym(v))
			}
		default:
			return nil, fmt.Errorf("args[%d]: unsupported value %T", i, a)
		}
	}
	return out, nil
}

package engine

import (
	"fmt"
	"log/slog"

	"github.com/quelaag/evsc/internal/ir"
)

// TestEvaluator resolves one test line against game state. Implemented by
// the runtime driver in production and by scripted fakes in tests; the VM
// itself has no knowledge of game semantics.
type TestEvaluator interface {
	Eval(op ir.Opcode, args []ir.Value) (bool, error)
}

// DefaultMaxLinesPerTick bounds how many instruction lines one task may
// execute within a single tick. A well-formed stream terminates or
// suspends long before this; the quota catches corrupted streams.
const DefaultMaxLinesPerTick = 1000

// Engine is the single-driver tick loop over event tasks.
//
// All mutation happens inside Tick/Rest, which must be called from one
// goroutine. Tasks run "concurrently" only as interleaved ticks: within a
// tick each task executes in spawn order until it terminates, suspends on
// an await, or exhausts the line quota.
type Engine struct {
	eval   TestEvaluator
	clock  *Clock
	tasks  []*Task
	logger *slog.Logger

	maxLines int
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger enables debug logging of task transitions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxLinesPerTick overrides the per-task line quota. Tests use small
// budgets to exercise quota enforcement.
func WithMaxLinesPerTick(n int) Option {
	return func(e *Engine) { e.maxLines = n }
}

// New creates an engine executing tests against the given evaluator.
func New(eval TestEvaluator, opts ...Option) *Engine {
	e := &Engine{
		eval:     eval,
		clock:    NewClock(),
		maxLines: DefaultMaxLinesPerTick,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spawn registers a compiled event as a task. The task starts in
// StateInitial and first runs on the next Tick.
func (e *Engine) Spawn(ev *ir.Event) *Task {
	t := newTask(ev)
	e.tasks = append(e.tasks, t)
	return t
}

// Tasks returns the spawned tasks in spawn order.
func (e *Engine) Tasks() []*Task { return e.tasks }

// Clock returns the engine's tick clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Tick advances every task by one scheduling step in spawn order.
// Returns the first runtime error encountered; remaining tasks still run
// within the tick (tasks are independent).
func (e *Engine) Tick() error {
	tick := e.clock.Next()

	var first error
	for _, t := range e.tasks {
		if err := e.step(t); err != nil {
			if first == nil {
				first = err
			}
			if e.logger != nil {
				e.logger.Error("task fault", "tick", tick, "event", t.event.ID, "err", err)
			}
		}
	}
	return first
}

// Rest delivers the external rest trigger: every task whose policy is
// restartable returns to its initial state, discarding all slot state.
// NeverRestart tasks ignore the trigger.
func (e *Engine) Rest() {
	for _, t := range e.tasks {
		if !t.event.Policy.Restartable() {
			continue
		}
		if t.state == StateInitial {
			continue
		}
		t.reset()
		if e.logger != nil {
			e.logger.Debug("task restarted by rest trigger", "event", t.event.ID)
		}
	}
}

// step runs one task until it blocks, terminates, or exhausts the quota.
func (e *Engine) step(t *Task) error {
	if t.state == StateInitial {
		t.state = StateRunning
	}
	if t.state != StateRunning {
		return nil
	}
	t.suspended = false

	budget := e.maxLines
	for {
		if budget <= 0 {
			return &RuntimeError{
				Code:    ErrCodeTickQuota,
				Message: fmt.Sprintf("exceeded %d lines in one tick", e.maxLines),
				EventID: t.event.ID,
				Line:    t.pc,
			}
		}
		budget--

		if t.pc >= len(t.event.Lines) {
			// A well-formed stream ends in a terminator before this.
			t.state = StateEnded
			t.cancel()
			return nil
		}

		line := t.event.Lines[t.pc]
		switch line.Op {
		case ir.OpEnd:
			t.state = StateEnded
			t.cancel()
			return nil

		case ir.OpRestart:
			t.state = StateAwaitingRestart
			t.cancel()
			return nil

		case ir.OpEvalGroup:
			src, err := slotArg(t, line)
			if err != nil {
				return err
			}
			reg, ok := t.regs[src]
			if !ok {
				return badSlot(t, src)
			}
			if line.Slot == ir.MainSlot {
				t.main = reg.value
			} else {
				t.fold(line.Slot, reg.value)
			}
			t.pc++

		case ir.OpRelease:
			if _, ok := t.regs[line.Slot]; !ok {
				return badSlot(t, line.Slot)
			}
			delete(t.regs, line.Slot)
			t.pc++

		case ir.OpAwait:
			done, err := e.stepAwait(t, line)
			if err != nil {
				return err
			}
			if !done {
				return nil // parked until next tick
			}

		default:
			if line.Op.IsControl() {
				return &RuntimeError{
					Code:    ErrCodeBadOpcode,
					Message: fmt.Sprintf("cannot dispatch control opcode 0x%04x", uint16(line.Op)),
					EventID: t.event.ID,
					Line:    t.pc,
				}
			}
			v, err := e.eval.Eval(line.Op, line.Args)
			if err != nil {
				return &RuntimeError{
					Code:    ErrCodeEvalFailed,
					Message: fmt.Sprintf("%s: %v", line.Name, err),
					EventID: t.event.ID,
					Line:    t.pc,
				}
			}
			if line.Negate {
				v = !v
			}
			if line.Slot == ir.MainSlot {
				t.main = v
			} else {
				t.fold(line.Slot, v)
			}
			t.pc++
		}
	}
}

// stepAwait checks a suspend marker. When the awaited slot is true the
// group is consumed (non-held registers are freed) and execution falls
// through. Otherwise the task rewinds over the condition span so the next
// tick re-evaluates it, and parks.
func (e *Engine) stepAwait(t *Task, line ir.InstructionLine) (bool, error) {
	reg, ok := t.regs[line.Slot]
	if !ok {
		return false, badSlot(t, line.Slot)
	}

	if reg.value {
		if !t.heldAt(line.Slot, t.pc) {
			delete(t.regs, line.Slot)
		}
		t.pc++
		return true, nil
	}

	span, err := spanArg(t, line)
	if err != nil {
		return false, err
	}

	// Reset the non-held registers the span writes so re-evaluation
	// starts fresh; held registers keep accumulating across ticks.
	for i := t.pc - span; i < t.pc; i++ {
		target := t.event.Lines[i].Slot
		if target == ir.MainSlot || t.heldAt(target, i) {
			continue
		}
		delete(t.regs, target)
	}

	t.pc -= span
	t.suspended = true
	return false, nil
}

func slotArg(t *Task, line ir.InstructionLine) (ir.SlotID, error) {
	if len(line.Args) != 1 {
		return 0, &RuntimeError{
			Code:    ErrCodeBadOpcode,
			Message: "EVALGROUP requires exactly one slot argument",
			EventID: t.event.ID,
			Line:    t.pc,
		}
	}
	n, ok := line.Args[0].(ir.Int)
	if !ok {
		return 0, badSlot(t, line.Slot)
	}
	return ir.SlotID(n), nil
}

func spanArg(t *Task, line ir.InstructionLine) (int, error) {
	if len(line.Args) != 1 {
		return 0, &RuntimeError{
			Code:    ErrCodeBadOpcode,
			Message: "AWAIT requires a span argument",
			EventID: t.event.ID,
			Line:    t.pc,
		}
	}
	n, ok := line.Args[0].(ir.Int)
	if !ok || n <= 0 || int(n) > t.pc {
		return 0, &RuntimeError{
			Code:    ErrCodeBadOpcode,
			Message: fmt.Sprintf("AWAIT has invalid span %s", ir.Render(line.Args[0])),
			EventID: t.event.ID,
			Line:    t.pc,
		}
	}
	return int(n), nil
}

func badSlot(t *Task, slot ir.SlotID) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeBadSlot,
		Message: fmt.Sprintf("slot %d is not live", slot),
		EventID: t.event.ID,
		Line:    t.pc,
	}
}

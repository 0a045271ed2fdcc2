package engine

import (
	"fmt"

	"github.com/quelaag/evsc/internal/ir"
)

// TaskState is the lifecycle state of one event task.
type TaskState uint8

const (
	// StateInitial: spawned but not yet ticked.
	StateInitial TaskState = iota

	// StateRunning: executing, possibly parked on an await.
	StateRunning

	// StateEnded: reached END. A NeverRestart task stays here forever.
	StateEnded

	// StateAwaitingRestart: reached RESTART and is parked until an
	// external restart trigger arrives.
	StateAwaitingRestart
)

// String returns the snake_case state name.
func (s TaskState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	case StateAwaitingRestart:
		return "awaiting_restart"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// groupReg is one live condition-group register. Values fold in as test
// lines execute: AND groups conjoin, OR groups disjoin. Held registers
// survive await rewinds, so their value accumulates across ticks.
type groupReg struct {
	kind  ir.GroupKind
	value bool
	wrote bool
}

// Task is one running event. All mutation happens inside the engine's
// single-driver Tick loop.
type Task struct {
	event *ir.Event

	state TaskState
	pc    int

	// regs holds the live slot registers; main mirrors the last
	// statement-level (MAIN) evaluation for diagnostics.
	regs map[ir.SlotID]*groupReg
	main bool

	// suspended marks a task parked on an unsatisfied await.
	suspended bool
}

func newTask(ev *ir.Event) *Task {
	return &Task{
		event: ev,
		regs:  map[ir.SlotID]*groupReg{},
	}
}

// Event returns the compiled event this task executes.
func (t *Task) Event() *ir.Event { return t.event }

// State returns the task's lifecycle state.
func (t *Task) State() TaskState { return t.state }

// PC returns the current instruction index.
func (t *Task) PC() int { return t.pc }

// Suspended reports whether the task is parked on an await.
func (t *Task) Suspended() bool { return t.suspended }

// Main returns the last statement-level condition result.
func (t *Task) Main() bool { return t.main }

// LiveSlots returns how many slot registers are currently held.
func (t *Task) LiveSlots() int { return len(t.regs) }

// heldAt reports whether the slot is held (persistent) at the given line,
// per the compiled slot table.
func (t *Task) heldAt(slot ir.SlotID, line int) bool {
	for _, use := range t.event.Slots.Uses {
		if use.Slot == slot && use.First <= line && line <= use.Last {
			return use.Held
		}
	}
	return false
}

// fold merges a test result into a slot register, creating it on first
// write.
func (t *Task) fold(slot ir.SlotID, v bool) {
	reg, ok := t.regs[slot]
	if !ok {
		reg = &groupReg{kind: slot.Kind()}
		t.regs[slot] = reg
	}
	if !reg.wrote {
		reg.value = v
		reg.wrote = true
		return
	}
	if reg.kind == ir.GroupOR {
		reg.value = reg.value || v
	} else {
		reg.value = reg.value && v
	}
}

// cancel releases every live slot. Cancellation is all-or-nothing: it
// happens only at terminators and on external restart.
func (t *Task) cancel() {
	t.regs = map[ir.SlotID]*groupReg{}
	t.suspended = false
}

// reset returns the task to its initial state, discarding all slot state.
func (t *Task) reset() {
	t.cancel()
	t.state = StateInitial
	t.pc = 0
	t.main = false
}

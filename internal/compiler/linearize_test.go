package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/registry"
)

func opcodes(ev *ir.Event) []ir.Opcode {
	ops := make([]ir.Opcode, len(ev.Lines))
	for i, line := range ev.Lines {
		ops[i] = line.Op
	}
	return ops
}

// Scenario: a two-test AND statement compiles to one AND-slot group and
// ends with an explicit slot release.
func TestLinearizeConjunctionStatement(t *testing.T) {
	ev, err := Compile(NewEvent(11810000).Tag(ir.NeverRestart).Body(
		AllOf(Test("FlagEnabled", ir.Int(1000)), Test("HasWeapon", ir.Int(5000))),
	))
	require.NoError(t, err)

	require.Equal(t, []ir.Opcode{
		registry.OpFlagEnabled,
		registry.OpHasWeapon,
		ir.OpEvalGroup,
		ir.OpRelease,
		ir.OpEnd,
	}, opcodes(ev))

	assert.Equal(t, ir.SlotID(1), ev.Lines[0].Slot)
	assert.Equal(t, ir.SlotID(1), ev.Lines[1].Slot)
	assert.Equal(t, ir.MainSlot, ev.Lines[2].Slot)
	assert.Equal(t, []ir.Value{ir.Int(1)}, ev.Lines[2].Args)
	assert.Equal(t, ir.SlotID(1), ev.Lines[3].Slot)

	require.Len(t, ev.Slots.Uses, 1)
	assert.Equal(t, ir.SlotUse{Slot: 1, Kind: ir.GroupAND, First: 0, Last: 3}, ev.Slots.Uses[0])
	assert.Equal(t, 1, ev.Slots.HighWaterAND)
	assert.Equal(t, 0, ev.Slots.HighWaterOR)
}

// Scenario: an awaited OR compiles to a suspend marker re-testing an
// OR slot each tick, then falls through.
func TestLinearizeAwaitDisjunction(t *testing.T) {
	ev, err := Compile(NewEvent(11810001).Tag(ir.RestartOnRest).Body(
		Await(AnyOf(Test("IsDead", ir.Int(100)), Test("FlagEnabled", ir.Int(2000)))),
	))
	require.NoError(t, err)

	require.Equal(t, []ir.Opcode{
		registry.OpIsDead,
		registry.OpFlagEnabled,
		ir.OpAwait,
		ir.OpEnd,
	}, opcodes(ev))

	assert.Equal(t, ir.SlotID(-1), ev.Lines[0].Slot)
	assert.Equal(t, ir.SlotID(-1), ev.Lines[1].Slot)

	await := ev.Lines[2]
	assert.Equal(t, ir.SlotID(-1), await.Slot)
	assert.Equal(t, []ir.Value{ir.Int(2)}, await.Args, "await carries its condition span")

	assert.Equal(t, 1, ev.Slots.HighWaterOR)
}

// Await round-trip: exactly one suspend marker referencing the flag's
// condition, followed immediately by the line sequenced after the await.
func TestLinearizeAwaitRoundTrip(t *testing.T) {
	ev, err := Compile(NewEvent(5).Tag(ir.NeverRestart).Body(
		Await(Test("FlagEnabled", ir.Int(777))),
		Test("IsHost"),
	))
	require.NoError(t, err)

	var awaits []int
	for i, line := range ev.Lines {
		if line.Op == ir.OpAwait {
			awaits = append(awaits, i)
		}
	}
	require.Len(t, awaits, 1, "exactly one suspend marker")

	idx := awaits[0]
	assert.Equal(t, registry.OpFlagEnabled, ev.Lines[idx-1].Op)
	assert.Equal(t, []ir.Value{ir.Int(777)}, ev.Lines[idx-1].Args)
	assert.Equal(t, ev.Lines[idx].Slot, ev.Lines[idx-1].Slot)
	assert.Equal(t, registry.OpIsHost, ev.Lines[idx+1].Op,
		"the line after the await is the statement that followed it")
}

// Scenario: a pool of size 2 with three simultaneously-live AND groups
// fails with slot exhaustion.
func TestLinearizeSlotExhaustion(t *testing.T) {
	held := func(flag int64) Node {
		return Hold(AllOf(Test("FlagEnabled", ir.Int(flag))))
	}
	def := NewEvent(7).Tag(ir.NeverRestart).Body(held(1), held(2), held(3))

	ev, err := Compile(def, WithPoolSize(2))
	require.Error(t, err)
	require.Nil(t, ev)
	assert.True(t, IsSlotExhaustion(err))
	assert.Contains(t, err.Error(), "must be split")
}

// Scenario: conflicting restart tags fail before any instruction exists.
func TestLinearizeConflictingPolicy(t *testing.T) {
	def := NewEvent(9).
		Tag(ir.NeverRestart).
		Tag(ir.RestartOnRest).
		Body(Test("IsHost"))

	ev, err := Compile(def)
	require.Nil(t, ev)
	assert.True(t, HasCode(err, ErrConflictingRestartPolicy))
}

func TestLinearizeNestedGroup(t *testing.T) {
	ev, err := Compile(NewEvent(20).Tag(ir.NeverRestart).Body(
		AllOf(
			Test("FlagEnabled", ir.Int(10)),
			AnyOf(Test("IsDead", ir.Int(100)), Test("IsHollow", ir.Int(100))),
		),
	))
	require.NoError(t, err)

	require.Equal(t, []ir.Opcode{
		registry.OpFlagEnabled, // -> slot 1
		registry.OpIsDead,      // -> slot -1
		registry.OpIsHollow,    // -> slot -1
		ir.OpEvalGroup,         // fold -1 into 1
		ir.OpRelease,           // free -1
		ir.OpEvalGroup,         // fold 1 into MAIN
		ir.OpRelease,           // free 1
		ir.OpEnd,
	}, opcodes(ev))

	assert.Equal(t, ir.SlotID(1), ev.Lines[3].Slot)
	assert.Equal(t, []ir.Value{ir.Int(-1)}, ev.Lines[3].Args)

	require.Len(t, ev.Slots.Uses, 2)
	assert.Equal(t, ir.SlotUse{Slot: 1, Kind: ir.GroupAND, First: 0, Last: 6}, ev.Slots.Uses[0])
	assert.Equal(t, ir.SlotUse{Slot: -1, Kind: ir.GroupOR, First: 1, Last: 4}, ev.Slots.Uses[1])
}

// Slot safety: no two conditions live at the same program point share an
// ID. Checked across every line of a compilation with several groups.
func TestLinearizeSlotSafety(t *testing.T) {
	ev, err := Compile(NewEvent(21).Tag(ir.NeverRestart).Body(
		AllOf(Test("IsHost"), AnyOf(Test("IsDead", ir.Int(1)), Test("IsAlive", ir.Int(2)))),
		Await(AnyOf(Test("FlagEnabled", ir.Int(3)), Test("FlagDisabled", ir.Int(4)))),
		Hold(AllOf(Test("HasGood", ir.Int(5)))),
	))
	require.NoError(t, err)

	for line := range ev.Lines {
		seen := map[ir.SlotID]bool{}
		for _, use := range ev.Slots.LiveAt(line) {
			assert.False(t, seen[use.Slot], "slot %d aliased at line %d", use.Slot, line)
			seen[use.Slot] = true
		}
	}
}

func TestLinearizeHeldAwaitKeepsSlot(t *testing.T) {
	ev, err := Compile(NewEvent(30).Tag(ir.RestartOnRest).Body(
		Await(Hold(AllOf(Test("FlagEnabled", ir.Int(50))))),
		Test("IsHost"),
	))
	require.NoError(t, err)

	require.Equal(t, []ir.Opcode{
		registry.OpFlagEnabled,
		ir.OpAwait,
		registry.OpIsHost,
		ir.OpEnd,
	}, opcodes(ev))

	require.Len(t, ev.Slots.Uses, 1)
	use := ev.Slots.Uses[0]
	assert.True(t, use.Held)
	assert.Equal(t, 0, use.First)
	assert.Equal(t, 3, use.Last, "held slot lives until the terminator, not the await")
}

func TestLinearizeHeldStatementReleasedAtTerminator(t *testing.T) {
	ev, err := Compile(NewEvent(31).Tag(ir.NeverRestart).Body(
		Hold(AllOf(Test("FlagEnabled", ir.Int(1)))),
		Test("IsHost"),
	))
	require.NoError(t, err)

	// No RELEASE line for the held group; it is freed by the END.
	for _, line := range ev.Lines {
		assert.NotEqual(t, ir.OpRelease, line.Op)
	}
	use := ev.Slots.Uses[0]
	assert.Equal(t, len(ev.Lines)-1, use.Last)
}

func TestLinearizeRestartTerminator(t *testing.T) {
	ev, err := Compile(NewEvent(40).Tag(ir.RestartOnRest).Body(
		Await(Test("FlagEnabled", ir.Int(5))),
		Restart(),
	))
	require.NoError(t, err)

	last := ev.Lines[len(ev.Lines)-1]
	assert.Equal(t, ir.OpRestart, last.Op)
	assert.Equal(t, "RESTART", last.Name)
}

func TestLinearizeEmptyBodyGetsEnd(t *testing.T) {
	ev, err := Compile(NewEvent(41).Tag(ir.NeverRestart))
	require.NoError(t, err)

	require.Len(t, ev.Lines, 1)
	assert.Equal(t, ir.OpEnd, ev.Lines[0].Op)
}

func TestLinearizeNegationBit(t *testing.T) {
	ev, err := Compile(NewEvent(42).Tag(ir.NeverRestart).Body(
		Not(Test("FlagEnabled", ir.Int(6))),
	))
	require.NoError(t, err)

	assert.Equal(t, registry.OpFlagEnabled, ev.Lines[0].Op)
	assert.True(t, ev.Lines[0].Negate)
}

func TestLinearizeLegacyAuditMarker(t *testing.T) {
	ev, err := Compile(NewEvent(43).Tag(ir.UnknownRestart).Body(Test("IsHost")))
	require.NoError(t, err)

	assert.Equal(t, ir.UnknownRestart, ev.Policy)
	assert.True(t, ev.LegacyRestart, "unknown restart carries the audit marker")

	ev2, err := Compile(NewEvent(43).Tag(ir.RestartOnRest).Body(Test("IsHost")))
	require.NoError(t, err)
	assert.Equal(t, opcodes(ev), opcodes(ev2), "emitted identically, flagged differently")
	assert.False(t, ev2.LegacyRestart)
}

// Determinism: compiling the same tree twice yields byte-identical
// listings and identical slot assignments.
func TestCompileDeterminism(t *testing.T) {
	build := func() *EventDef {
		return NewEvent(11810055).Tag(ir.RestartOnRest).Body(
			Await(AnyOf(Test("IsDead", ir.Int(100)), Test("FlagEnabled", ir.Int(2000)))),
			AllOf(Test("HasWeapon", ir.Int(5000)), Not(Test("IsClient"))),
			End(),
		)
	}

	first, err := Compile(build())
	require.NoError(t, err)
	second, err := Compile(build())
	require.NoError(t, err)

	assert.Equal(t, ir.ProgramHash(first), ir.ProgramHash(second))
	if diff := cmp.Diff(first.Slots, second.Slots); diff != "" {
		t.Fatalf("slot assignments differ (-first +second):\n%s", diff)
	}
}

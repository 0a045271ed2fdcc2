package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/registry"
)

func TestDeterministicClockReset(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	c.Reset()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
}

func TestFixedIDGeneratorSequence(t *testing.T) {
	g := NewFixedIDGenerator()

	first, err := g.NewID()
	require.NoError(t, err)
	second, err := g.NewID()
	require.NoError(t, err)

	assert.Equal(t, "00000000-0000-0000-0000-000000000001", first.String())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", second.String())
}

func TestWorldFlags(t *testing.T) {
	w := NewWorld()

	got, err := w.Eval(registry.OpFlagEnabled, []ir.Value{ir.Int(100)})
	require.NoError(t, err)
	assert.False(t, got, "flags default to off")

	w.SetFlag(100, true)
	got, err = w.Eval(registry.OpFlagEnabled, []ir.Value{ir.Int(100)})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = w.Eval(registry.OpFlagDisabled, []ir.Value{ir.Int(100)})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestWorldRegionsAndDistance(t *testing.T) {
	w := NewWorld()
	w.Enter(10, 500)

	inside, err := w.Eval(registry.OpInsideRegion, []ir.Value{ir.Int(10), ir.Int(500)})
	require.NoError(t, err)
	assert.True(t, inside)

	w.Leave(10)
	outside, err := w.Eval(registry.OpOutsideRegion, []ir.Value{ir.Int(10), ir.Int(500)})
	require.NoError(t, err)
	assert.True(t, outside)

	// Unscripted pairs are infinitely far apart.
	within, err := w.Eval(registry.OpWithinDistance, []ir.Value{ir.Int(10), ir.Int(11), ir.Float(5)})
	require.NoError(t, err)
	assert.False(t, within)

	w.SetDistance(10, 11, 3.5)
	within, err = w.Eval(registry.OpWithinDistance, []ir.Value{ir.Int(10), ir.Int(11), ir.Float(5)})
	require.NoError(t, err)
	assert.True(t, within)

	// Distance is symmetric in the entity arguments.
	within, err = w.Eval(registry.OpWithinDistance, []ir.Value{ir.Int(11), ir.Int(10), ir.Float(5)})
	require.NoError(t, err)
	assert.True(t, within)
}

func TestWorldCharacters(t *testing.T) {
	w := NewWorld()

	alive, err := w.Eval(registry.OpIsAlive, []ir.Value{ir.Int(42)})
	require.NoError(t, err)
	assert.True(t, alive, "characters default to alive")

	w.Kill(42)
	dead, err := w.Eval(registry.OpIsDead, []ir.Value{ir.Int(42)})
	require.NoError(t, err)
	assert.True(t, dead)

	w.Revive(42)
	dead, err = w.Eval(registry.OpIsDead, []ir.Value{ir.Int(42)})
	require.NoError(t, err)
	assert.False(t, dead)
}

func TestWorldItems(t *testing.T) {
	w := NewWorld()
	w.Give(2001)
	w.Drop(2001)

	has, err := w.Eval(registry.OpHasWeapon, []ir.Value{ir.Int(2001)})
	require.NoError(t, err)
	assert.False(t, has, "dropped items are no longer possessed")

	owns, err := w.Eval(registry.OpOwnsWeapon, []ir.Value{ir.Int(2001)})
	require.NoError(t, err)
	assert.True(t, owns, "ownership survives dropping")
}

func TestWorldTendencyComparisons(t *testing.T) {
	w := NewWorld()
	w.SetTendency(0, -30)

	cases := []struct {
		op   int64
		want bool
	}{
		{0, false}, // == -50
		{1, true},  // != -50
		{2, true},  // > -50
		{3, false}, // < -50
		{4, true},  // >= -50
		{5, false}, // <= -50
	}
	for _, tc := range cases {
		got, err := w.Eval(registry.OpWorldTendency, []ir.Value{ir.Int(0), ir.Int(tc.op), ir.Int(-50)})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "comparison op %d", tc.op)
	}
}

func TestWorldUnknownOpcode(t *testing.T) {
	w := NewWorld()
	_, err := w.Eval(ir.Opcode(0x7F01), nil)
	assert.Error(t, err)
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotIDKind(t *testing.T) {
	assert.Equal(t, GroupAND, SlotID(1).Kind())
	assert.Equal(t, GroupAND, SlotID(7).Kind())
	assert.Equal(t, GroupOR, SlotID(-1).Kind())
	assert.Equal(t, GroupOR, SlotID(-7).Kind())
	assert.Equal(t, GroupKind(0), MainSlot.Kind())
}

func TestRestartPolicyStrings(t *testing.T) {
	assert.Equal(t, "never_restart", NeverRestart.String())
	assert.Equal(t, "restart_on_rest", RestartOnRest.String())
	assert.Equal(t, "unknown_restart", UnknownRestart.String())
	assert.Equal(t, "unset", PolicyUnset.String())
}

func TestRestartPolicyBehavior(t *testing.T) {
	assert.False(t, NeverRestart.Restartable())
	assert.True(t, RestartOnRest.Restartable())
	assert.True(t, UnknownRestart.Restartable())

	assert.False(t, RestartOnRest.LegacyAudit())
	assert.True(t, UnknownRestart.LegacyAudit())
}

func TestOpcodeCategory(t *testing.T) {
	assert.True(t, OpEnd.IsControl())
	assert.True(t, OpAwait.IsControl())
	assert.False(t, Opcode(0x0101).IsControl())
	assert.Equal(t, CategoryFlag, Opcode(0x0101).Category())
	assert.Equal(t, CategoryPossession, Opcode(0x0304).Category())
}

func TestSlotTableLiveAt(t *testing.T) {
	table := SlotTable{
		Uses: []SlotUse{
			{Slot: 1, Kind: GroupAND, First: 0, Last: 3},
			{Slot: -1, Kind: GroupOR, First: 1, Last: 2},
		},
	}

	assert.Len(t, table.LiveAt(0), 1)
	assert.Len(t, table.LiveAt(2), 2)
	assert.Len(t, table.LiveAt(4), 0)
}

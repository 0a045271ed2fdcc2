package ir

import "fmt"

// Opcode identifies one VM instruction. Control opcodes occupy the low
// range (category byte 0x00); test opcodes are grouped by category byte.
type Opcode uint16

// Control opcodes understood by the target VM.
const (
	// OpEnd terminates the event. The task releases all live slots.
	OpEnd Opcode = 0x0000

	// OpRestart terminates the event and parks it awaiting a restart
	// trigger, subject to the event's restart policy.
	OpRestart Opcode = 0x0001

	// OpAwait suspends the task until the referenced slot evaluates true.
	// Its single argument is the length of the condition span immediately
	// preceding it, which the VM re-executes once per tick while suspended.
	OpAwait Opcode = 0x0010

	// OpEvalGroup folds the boolean value of the source slot (single
	// argument) into the destination slot reference.
	OpEvalGroup Opcode = 0x0011

	// OpRelease frees the referenced slot register.
	OpRelease Opcode = 0x0012
)

// Test opcode category bytes. Each registered test's opcode is
// (category << 8) | index.
const (
	CategoryControl     uint8 = 0x00
	CategoryFlag        uint8 = 0x01
	CategoryRegion      uint8 = 0x02
	CategoryPossession  uint8 = 0x03
	CategoryCharacter   uint8 = 0x04
	CategoryObject      uint8 = 0x05
	CategoryMultiplayer uint8 = 0x06
	CategoryWorld       uint8 = 0x07
)

// Category returns the opcode's category byte.
func (op Opcode) Category() uint8 { return uint8(op >> 8) }

// IsControl reports whether the opcode is a control instruction rather
// than a registered test.
func (op Opcode) IsControl() bool { return op.Category() == CategoryControl }

// SlotID is a condition-group register in the target VM. Positive IDs are
// AND-rooted groups, negative IDs are OR-rooted groups, and MainSlot (0)
// is the implicit statement-level target. The sign convention mirrors how
// the VM segregates combinator semantics.
type SlotID int8

// MainSlot is the statement-level result register.
const MainSlot SlotID = 0

// GroupKind distinguishes AND-rooted from OR-rooted condition groups.
type GroupKind uint8

const (
	GroupAND GroupKind = iota + 1
	GroupOR
)

// String returns "AND" or "OR".
func (k GroupKind) String() string {
	switch k {
	case GroupAND:
		return "AND"
	case GroupOR:
		return "OR"
	default:
		return fmt.Sprintf("GroupKind(%d)", uint8(k))
	}
}

// Kind returns the group kind encoded by the slot's sign. MainSlot has no
// kind and returns 0.
func (s SlotID) Kind() GroupKind {
	switch {
	case s > 0:
		return GroupAND
	case s < 0:
		return GroupOR
	default:
		return 0
	}
}

// RestartPolicy is the lifecycle rule governing whether an event re-enters
// its initial state after ending. Exactly one policy is fixed per event at
// compile time.
type RestartPolicy uint8

const (
	// PolicyUnset is the zero value; compiling an event in this state fails.
	PolicyUnset RestartPolicy = iota

	// NeverRestart: once the event ends it never re-enters Initial.
	// Restart triggers are ignored.
	NeverRestart

	// RestartOnRest: on an external rest trigger the event returns to
	// Initial and runs again from its first instruction, discarding all
	// slot state.
	RestartOnRest

	// UnknownRestart behaves as RestartOnRest at runtime but carries a
	// compile-time marker flagging its restart semantics as legacy and
	// unverified, for downstream audit.
	UnknownRestart
)

// String returns the snake_case policy name used in listings and scenarios.
func (p RestartPolicy) String() string {
	switch p {
	case NeverRestart:
		return "never_restart"
	case RestartOnRest:
		return "restart_on_rest"
	case UnknownRestart:
		return "unknown_restart"
	default:
		return "unset"
	}
}

// Restartable reports whether a rest trigger returns the event to Initial.
func (p RestartPolicy) Restartable() bool {
	return p == RestartOnRest || p == UnknownRestart
}

// LegacyAudit reports whether the policy carries the unverified-semantics
// audit marker.
func (p RestartPolicy) LegacyAudit() bool { return p == UnknownRestart }

// SemanticType classifies a test argument for schema validation.
type SemanticType uint8

const (
	TypeFlagID SemanticType = iota + 1
	TypeEntityID
	TypeRegionID
	TypeItemID
	TypeObjectID
	TypeCollisionID
	TypeDistance
	TypeEnum
	TypeCount
)

// String returns the lower-case type name used in error messages.
func (t SemanticType) String() string {
	switch t {
	case TypeFlagID:
		return "flag_id"
	case TypeEntityID:
		return "entity_id"
	case TypeRegionID:
		return "region_id"
	case TypeItemID:
		return "item_id"
	case TypeObjectID:
		return "object_id"
	case TypeCollisionID:
		return "collision_id"
	case TypeDistance:
		return "distance"
	case TypeEnum:
		return "enum"
	case TypeCount:
		return "count"
	default:
		return fmt.Sprintf("semantic_type(%d)", uint8(t))
	}
}

// ArgSpec describes one positional argument of a test.
type ArgSpec struct {
	Name string       `json:"name"`
	Type SemanticType `json:"type"`

	// Min and Max bound the accepted value range for TypeEnum arguments.
	// Ignored for other types.
	Min int64 `json:"min,omitempty"`
	Max int64 `json:"max,omitempty"`
}

// TestSpec is the immutable descriptor of one named test: its opcode and
// ordered argument schema. Registered once at process start, read-only
// thereafter.
type TestSpec struct {
	Name      string    `json:"name"`
	Op        Opcode    `json:"op"`
	Args      []ArgSpec `json:"args,omitempty"`
	Negatable bool      `json:"negatable"`
}

// InstructionLine is the atomic unit of the emitted sequence. Execution is
// sequential; jumps and suspensions happen only at explicit control lines.
type InstructionLine struct {
	Op Opcode `json:"op"`

	// Name is the test mnemonic, or the control mnemonic for control
	// opcodes. Carried for listings and diagnostics; the external
	// serializer writes only Op.
	Name string `json:"name"`

	// Slot is the condition-group register this line targets. MainSlot
	// for statement-level lines and terminators.
	Slot SlotID `json:"slot"`

	// Negate is the per-test negation bit. Always false on control lines.
	Negate bool `json:"negate,omitempty"`

	// Args are the resolved positional arguments.
	Args []Value `json:"args,omitempty"`
}

// SlotUse records one allocation of a condition-group register, for the
// diagnostics slot table.
type SlotUse struct {
	Slot SlotID    `json:"slot"`
	Kind GroupKind `json:"kind"`

	// Held marks a persistent group: its register stays live until the
	// event's terminator and is not reset between ticks.
	Held bool `json:"held,omitempty"`

	// First and Last are the line indexes bounding the slot's liveness.
	First int `json:"first"`
	Last  int `json:"last"`
}

// SlotTable is the per-event slot usage summary produced by linearization.
type SlotTable struct {
	Uses []SlotUse `json:"uses,omitempty"`

	// HighWaterAND and HighWaterOR are the peak simultaneously-live group
	// counts per polarity.
	HighWaterAND int `json:"high_water_and"`
	HighWaterOR  int `json:"high_water_or"`
}

// LiveAt returns the slots live at the given line index.
func (t *SlotTable) LiveAt(line int) []SlotUse {
	var live []SlotUse
	for _, u := range t.Uses {
		if u.First <= line && line <= u.Last {
			live = append(live, u)
		}
	}
	return live
}

// Event is the top-level compiled unit: an ordered instruction sequence,
// one restart policy, and a private slot namespace. Immutable once emitted;
// consumed by the external binary serializer.
type Event struct {
	ID     int64         `json:"id"`
	Policy RestartPolicy `json:"policy"`

	// LegacyRestart is the UnknownRestart audit marker. Compile-time
	// annotation only; the VM treats the event as RestartOnRest.
	LegacyRestart bool `json:"legacy_restart,omitempty"`

	Lines []InstructionLine `json:"lines"`
	Slots SlotTable         `json:"slots"`
}

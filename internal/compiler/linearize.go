package compiler

import (
	"errors"
	"fmt"

	"github.com/quelaag/evsc/internal/ir"
)

// emitter walks the resolved statement body in a single deterministic
// pre-order traversal (children left-to-right before the combinator that
// consumes them), emitting instruction lines and tracking slot liveness.
// It only reads tree nodes; slot assignments land in the slot table.
type emitter struct {
	c     *config
	alloc *allocator

	lines []ir.InstructionLine
	uses  []ir.SlotUse

	// open maps a live slot to its index in uses. Held slots stay open
	// until the terminator.
	open map[ir.SlotID]int
}

// linearize produces the final event from a resolved body. A body that
// does not end in a terminator gets an implicit END appended.
func (c *config) linearize(id int64, policy ir.RestartPolicy, body []Node) (*ir.Event, error) {
	em := &emitter{
		c:     c,
		alloc: newAllocator(c.pool),
		open:  map[ir.SlotID]int{},
	}

	if len(body) == 0 || !isTerminator(body[len(body)-1]) {
		body = append(append([]Node{}, body...), End())
	}

	for i, stmt := range body {
		if err := em.emitStatement(stmt); err != nil {
			var ex *exhaustedError
			if errors.As(err, &ex) {
				return nil, CompileErrors{*slotError(ex, fmt.Sprintf("body[%d]", i), c.pool)}
			}
			return nil, err
		}
	}

	return &ir.Event{
		ID:            id,
		Policy:        policy,
		LegacyRestart: policy.LegacyAudit(),
		Lines:         em.lines,
		Slots: ir.SlotTable{
			Uses:         em.uses,
			HighWaterAND: em.alloc.highWaterAND,
			HighWaterOR:  em.alloc.highWaterOR,
		},
	}, nil
}

func isTerminator(n Node) bool {
	_, ok := n.(*TerminatorNode)
	return ok
}

// exhaustedError is the internal sentinel the emitter returns on pool
// exhaustion; linearize converts it into the surfaced CompileError.
type exhaustedError struct {
	kind ir.GroupKind
}

func (e *exhaustedError) Error() string {
	return fmt.Sprintf("%s slot pool exhausted", e.kind)
}

func slotError(err error, where string, pool int) *CompileError {
	return &CompileError{
		Code:  ErrSlotExhaustion,
		Where: where,
		Message: fmt.Sprintf("%s (pool size %d per polarity); "+
			"the expression is too broadly composed for one event and must be split", err, pool),
	}
}

func (em *emitter) emitStatement(stmt Node) error {
	switch node := stmt.(type) {
	case *TerminatorNode:
		idx := em.emit(node.Op, controlName(node.Op), ir.MainSlot, false, nil)
		// Reaching a terminator cancels the task wholesale: every slot
		// still live (held groups) is released here.
		em.closeAllOpen(idx)
		return nil

	case *TestNode:
		// A bare statement-level test evaluates straight into MAIN; no
		// group register is consumed.
		em.emitTest(node, ir.MainSlot)
		return nil

	case *GroupNode:
		slot, err := em.emitGroup(node)
		if err != nil {
			return err
		}
		em.emit(ir.OpEvalGroup, "EVALGROUP", ir.MainSlot, false, []ir.Value{ir.Int(slot)})
		if !node.Held {
			idx := em.emit(ir.OpRelease, "RELEASE", slot, false, nil)
			em.closeUse(slot, idx)
		}
		return nil

	case *AwaitNode:
		return em.emitAwait(node)

	default:
		// Unreachable: resolveBody rejects everything else.
		return fmt.Errorf("linearize: unexpected statement %T", stmt)
	}
}

// emitAwait lowers a blocking wait: the condition's lines, then one
// suspend marker carrying the span the VM re-executes each tick. The
// suspension consumes the group, so a non-held slot is freed implicitly
// and the next emitted line is whatever followed the await.
func (em *emitter) emitAwait(node *AwaitNode) error {
	start := len(em.lines)

	var slot ir.SlotID
	held := false
	switch cond := node.Cond.(type) {
	case *TestNode:
		// A single awaited test still needs a register for the VM to poll;
		// a one-test conjunction is the cheapest encoding.
		s, ok := em.acquire(ir.GroupAND, false)
		if !ok {
			return &exhaustedError{kind: ir.GroupAND}
		}
		em.emitTest(cond, s)
		slot = s
	case *GroupNode:
		s, err := em.emitGroup(cond)
		if err != nil {
			return err
		}
		slot = s
		held = cond.Held
	default:
		return fmt.Errorf("linearize: unexpected await condition %T", node.Cond)
	}

	span := len(em.lines) - start
	idx := em.emit(ir.OpAwait, "AWAIT", slot, false, []ir.Value{ir.Int(span)})
	if !held {
		em.closeUse(slot, idx)
	}
	return nil
}

// emitGroup lowers one condition group into a freshly acquired slot and
// returns it. Child groups are emitted first and consumed with EVALGROUP;
// non-held children release as soon as the parent has folded them in.
func (em *emitter) emitGroup(g *GroupNode) (ir.SlotID, error) {
	slot, ok := em.acquire(g.Kind, g.Held)
	if !ok {
		return 0, &exhaustedError{kind: g.Kind}
	}

	for _, child := range g.Children {
		switch node := child.(type) {
		case *TestNode:
			em.emitTest(node, slot)
		case *GroupNode:
			sub, err := em.emitGroup(node)
			if err != nil {
				return 0, err
			}
			em.emit(ir.OpEvalGroup, "EVALGROUP", slot, false, []ir.Value{ir.Int(sub)})
			if !node.Held {
				idx := em.emit(ir.OpRelease, "RELEASE", sub, false, nil)
				em.closeUse(sub, idx)
			}
		default:
			return 0, fmt.Errorf("linearize: unexpected group child %T", child)
		}
	}
	return slot, nil
}

func (em *emitter) emitTest(node *TestNode, slot ir.SlotID) {
	// Lookup cannot fail here: resolveBody already bound every test.
	spec, err := em.c.reg.Lookup(node.Name)
	if err != nil {
		panic(fmt.Sprintf("linearize: unbound test %q: %v", node.Name, err))
	}
	em.emit(spec.Op, spec.Name, slot, node.Negated, node.Args)
}

func (em *emitter) emit(op ir.Opcode, name string, slot ir.SlotID, negate bool, args []ir.Value) int {
	em.lines = append(em.lines, ir.InstructionLine{
		Op:     op,
		Name:   name,
		Slot:   slot,
		Negate: negate,
		Args:   args,
	})
	return len(em.lines) - 1
}

func (em *emitter) acquire(kind ir.GroupKind, held bool) (ir.SlotID, bool) {
	slot, ok := em.alloc.acquire(kind)
	if !ok {
		return 0, false
	}
	em.uses = append(em.uses, ir.SlotUse{
		Slot:  slot,
		Kind:  kind,
		Held:  held,
		First: len(em.lines),
	})
	em.open[slot] = len(em.uses) - 1
	return slot, true
}

// closeUse ends a slot's liveness at the given line and returns the
// register to the pool.
func (em *emitter) closeUse(slot ir.SlotID, lastLine int) {
	idx, ok := em.open[slot]
	if !ok {
		panic(fmt.Sprintf("linearize: closing slot %d that is not open", slot))
	}
	em.uses[idx].Last = lastLine
	delete(em.open, slot)
	em.alloc.release(slot)
}

// closeAllOpen releases every live slot at a terminator, in acquisition
// order for determinism.
func (em *emitter) closeAllOpen(lastLine int) {
	for _, use := range em.uses {
		if _, ok := em.open[use.Slot]; ok {
			em.closeUse(use.Slot, lastLine)
		}
	}
}

func controlName(op ir.Opcode) string {
	switch op {
	case ir.OpEnd:
		return "END"
	case ir.OpRestart:
		return "RESTART"
	default:
		return fmt.Sprintf("CTRL_%04X", uint16(op))
	}
}

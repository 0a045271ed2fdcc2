// Package registry maps DSL test names to opcode descriptors and validates
// test arguments against their schemas.
//
// The vocabulary is a closed, enumerable instruction set: every surface
// test name maps 1:1 to a TestSpec. The default registry is populated once
// at first use and is read-only thereafter; the read path is pure.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/quelaag/evsc/internal/ir"
)

// Registry holds the test-name → descriptor table.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]ir.TestSpec
	byOp  map[ir.Opcode]string
}

// New creates an empty registry. Most callers want Default instead.
func New() *Registry {
	return &Registry{
		specs: make(map[string]ir.TestSpec),
		byOp:  make(map[ir.Opcode]string),
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry populated with the fixed DSL
// vocabulary. Built once; safe for concurrent use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
		if err := RegisterVocabulary(defaultReg); err != nil {
			panic(fmt.Sprintf("registry: building default vocabulary: %v", err))
		}
	})
	return defaultReg
}

// Register adds a test descriptor. Fails with DuplicateTestError if the
// name is already registered, and rejects opcode collisions and control
// opcodes outright.
func (r *Registry) Register(spec ir.TestSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.specs[spec.Name]; ok {
		return &DuplicateTestError{Name: spec.Name}
	}
	if spec.Op.IsControl() {
		return fmt.Errorf("test %q: opcode 0x%04x is in the control range", spec.Name, uint16(spec.Op))
	}
	if prev, ok := r.byOp[spec.Op]; ok {
		return fmt.Errorf("test %q: opcode 0x%04x already used by %q", spec.Name, uint16(spec.Op), prev)
	}

	r.specs[spec.Name] = spec
	r.byOp[spec.Op] = spec.Name
	return nil
}

// Lookup returns the descriptor for a test name, or UnknownTestError.
func (r *Registry) Lookup(name string) (ir.TestSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	if !ok {
		return ir.TestSpec{}, &UnknownTestError{Name: name}
	}
	return spec, nil
}

// Bind looks up a test and validates concrete arguments against its schema:
// arity, per-argument semantic type, and value range. Arguments must be
// fully resolved (no symbolic or sentinel values). Bind has no side
// effects.
func (r *Registry) Bind(name string, args []ir.Value) (ir.TestSpec, error) {
	spec, err := r.Lookup(name)
	if err != nil {
		return ir.TestSpec{}, err
	}

	if len(args) != len(spec.Args) {
		return ir.TestSpec{}, &ArgumentTypeError{
			Test:    name,
			Message: fmt.Sprintf("expected %d argument(s), got %d", len(spec.Args), len(args)),
		}
	}

	for i, arg := range args {
		if err := checkArg(spec, i, arg); err != nil {
			return ir.TestSpec{}, err
		}
	}
	return spec, nil
}

// Names returns all registered test names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameForOpcode returns the mnemonic registered for an opcode.
func (r *Registry) NameForOpcode(op ir.Opcode) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byOp[op]
	return name, ok
}

func checkArg(spec ir.TestSpec, i int, arg ir.Value) error {
	as := spec.Args[i]
	fail := func(msg string) error {
		return &ArgumentTypeError{Test: spec.Name, Param: as.Name, Index: i, Message: msg}
	}

	if !ir.Resolved(arg) {
		return fail(fmt.Sprintf("unresolved value %s", ir.Render(arg)))
	}

	switch as.Type {
	case ir.TypeDistance:
		f, ok := arg.(ir.Float)
		if !ok {
			// Whole-number distances are accepted as integers.
			n, isInt := arg.(ir.Int)
			if !isInt {
				return fail("expected a distance")
			}
			f = ir.Float(n)
		}
		if f < 0 {
			return fail("distance must be non-negative")
		}
	case ir.TypeEnum:
		n, ok := arg.(ir.Int)
		if !ok {
			return fail("expected an enum value")
		}
		if int64(n) < as.Min || int64(n) > as.Max {
			return fail(fmt.Sprintf("value %d outside range %d..%d", n, as.Min, as.Max))
		}
	case ir.TypeCount:
		if _, ok := arg.(ir.Int); !ok {
			return fail("expected an integer")
		}
	default:
		// All ID types: non-negative integers.
		n, ok := arg.(ir.Int)
		if !ok {
			return fail(fmt.Sprintf("expected a %s", as.Type))
		}
		if n < 0 {
			return fail(fmt.Sprintf("%s must be non-negative", as.Type))
		}
	}
	return nil
}

package ir

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the argument types a test may carry.
// Only Int, Float, Sym, and ThisFlag implement it. Game-specific IDs arrive
// already resolved as Int; Float exists only for distance arguments.
type Value interface {
	value() // sealed
}

// Int is a resolved integer argument (flag, entity, item, enum, count).
type Int int64

func (Int) value() {}

// Float is a non-negative distance argument.
type Float float64

func (Float) value() {}

// Sym is a symbolic flag name resolved through the compile-time namespace
// table. Never survives compilation: the compiler replaces it with Int.
type Sym string

func (Sym) value() {}

// ThisFlag is the sentinel for the compiling event's own flag ID. Resolved
// to Int(event.ID) before schema validation; never survives compilation.
type ThisFlag struct{}

func (ThisFlag) value() {}

// Render returns the canonical text form of a value. Floats use the
// shortest round-trip representation so identical inputs always render
// identically.
func Render(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Sym:
		return string(val)
	case ThisFlag:
		return "THIS_FLAG"
	default:
		return fmt.Sprintf("?%T", v)
	}
}

// Resolved reports whether the value is fully resolved (no sentinel or
// symbolic forms remaining).
func Resolved(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}

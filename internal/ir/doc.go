// Package ir provides the canonical intermediate representation for evsc.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This ensures IR remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Emitted events are immutable once built; consumers only read them
//   - Slot assignments live in the SlotTable, never inside tree nodes
//   - Listing serialization is canonical (NFC strings, fixed number
//     formatting) so identical events hash identically
package ir

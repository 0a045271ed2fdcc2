// Package engine is the reference virtual machine for compiled events.
//
// It models the target execution environment: a single-threaded,
// cooperative, tick-driven scheduler. One task runs per compiled event;
// tasks advance only when the external driver calls Tick, are never
// preempted mid-instruction, and suspend only at explicit await markers.
// Cross-task ordering within a tick follows spawn order and must not be
// relied upon by scripts.
//
// Game-specific test semantics stay outside the VM: every test line is
// delegated to a TestEvaluator, so the engine knows opcodes and slots but
// nothing about flags, characters, or regions.
package engine

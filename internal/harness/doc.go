// Package harness runs YAML-defined conformance scenarios end to end:
// build event definitions, compile them, compare canonical listings
// against golden files, and drive the compiled streams through the
// reference engine with a scripted world.
//
// Scenarios live in testdata/*.yaml; golden listings in testdata/golden.
// Regenerate goldens with:
//
//	go test ./internal/harness -update
package harness

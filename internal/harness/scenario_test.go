package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quelaag/evsc/internal/ir"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: catches field typos
events:
  - id: 1
    restart: [never_restart]
    body:
      - end: true
assertion: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestLoadScenarioRequiresNameAndEvents(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "description: no name\nevents: [{id: 1, body: [{end: true}]}]\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadScenario(writeScenario(t, "name: x\ndescription: no events\n"))
	assert.ErrorContains(t, err, "events list is required")
}

func TestLoadScenarioRejectsAmbiguousNode(t *testing.T) {
	path := writeScenario(t, `
name: ambiguous
description: node sets two kinds
events:
  - id: 1
    restart: [never_restart]
    body:
      - test: FlagEnabled
        args: [1]
        end: true
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "exactly one of")
}

func TestLoadScenarioRejectsErrorAndGoldenTogether(t *testing.T) {
	path := writeScenario(t, `
name: both
description: errors and golden are mutually exclusive
events:
  - id: 1
    body:
      - end: true
expect_errors: [E105]
golden: true
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "expect_errors excludes")
}

func TestLoadScenarioRejectsUnknownExpectState(t *testing.T) {
	path := writeScenario(t, `
name: bad-state
description: unknown task state in expectation
events:
  - id: 1
    restart: [never_restart]
    body:
      - end: true
ticks:
  - expect:
      - event: 1
        state: exploded
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, `unknown task state "exploded"`)
}

func TestLoadScenarioRejectsExpectForUnknownEvent(t *testing.T) {
	path := writeScenario(t, `
name: bad-event
description: expectation references an unspawned event
events:
  - id: 1
    restart: [never_restart]
    body:
      - end: true
ticks:
  - expect:
      - event: 2
        state: ended
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "unknown event id 2")
}

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]ir.RestartPolicy{
		"never_restart":   ir.NeverRestart,
		"restart_on_rest": ir.RestartOnRest,
		"unknown_restart": ir.UnknownRestart,
	} {
		got, err := parsePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parsePolicy("sometimes")
	assert.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	got, err := buildArgs([]any{100, 1.5, "boss_defeated", "THIS_FLAG"})
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Int(100), ir.Float(1.5), ir.Sym("boss_defeated"), ir.ThisFlag{}}, got)

	_, err = buildArgs([]any{true})
	assert.ErrorContains(t, err, "unsupported value")
}

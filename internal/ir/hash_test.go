package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramHashDeterministic(t *testing.T) {
	assert.Equal(t, ProgramHash(sampleEvent()), ProgramHash(sampleEvent()))
}

func TestProgramHashSensitivity(t *testing.T) {
	a := sampleEvent()
	b := sampleEvent()
	b.Lines[0].Args = []Value{Int(1001)}

	assert.NotEqual(t, ProgramHash(a), ProgramHash(b), "different flag IDs must hash differently")

	c := sampleEvent()
	c.Policy = NeverRestart
	assert.NotEqual(t, ProgramHash(a), ProgramHash(c), "policy is part of event identity")
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte("payload")
	assert.NotEqual(t, hashWithDomain("evsc/event/v1", data), hashWithDomain("evsc/other/v1", data))
}

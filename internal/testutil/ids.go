package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FixedIDGenerator hands out UUIDs from a deterministic sequence.
//
// The ledger's production generator uses UUIDv7, which embeds wall-clock
// time; tests substitute this generator so records compare byte-for-byte
// across runs. IDs look like 00000000-0000-0000-0000-000000000001.
type FixedIDGenerator struct {
	mu  sync.Mutex
	seq uint64
}

// NewFixedIDGenerator creates a generator starting at 1.
func NewFixedIDGenerator() *FixedIDGenerator {
	return &FixedIDGenerator{}
}

// NewID returns the next UUID in the sequence.
func (g *FixedIDGenerator) NewID() (uuid.UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return uuid.Parse(fmt.Sprintf("00000000-0000-0000-0000-%012d", g.seq))
}

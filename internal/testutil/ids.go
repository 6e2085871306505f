package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predictable run ids for tests.
//
// Ids are "<prefix>-0001", "<prefix>-0002", ... so golden output and stored
// run records are identical across test runs.
//
// Thread-safety: Generate is safe for concurrent use.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator. An empty prefix means "test-run".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *FixedIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

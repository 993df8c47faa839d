package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator produces "<prefix>-1", "<prefix>-2", ... so search
// ids in tests and golden files are stable. It satisfies
// directory.IDGenerator.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix defaults to
// "search".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "search"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

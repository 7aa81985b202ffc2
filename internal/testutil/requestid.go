package testutil

import (
	"fmt"
	"sync"
)

// SequentialRequestIDs returns "<prefix>-1", "<prefix>-2", ... and satisfies
// engine.RequestIDGenerator. Two runs of the same scenario get the same ids,
// and therefore the same transition IDs.
type SequentialRequestIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRequestIDs creates a generator; an empty prefix becomes "req".
func NewSequentialRequestIDs(prefix string) *SequentialRequestIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialRequestIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialRequestIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts numbering at 1.
func (g *SequentialRequestIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

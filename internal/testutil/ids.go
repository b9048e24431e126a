// Package testutil holds deterministic generators and shared fixtures for
// tests across dtable packages.
package testutil

import (
	"fmt"
	"sync"
)

// FixedEpisodeGenerator returns predetermined episode IDs in order.
//
// This enables deterministic test execution and golden trace comparison.
//
// Thread-safety: FixedEpisodeGenerator is safe for concurrent use via internal mutex.
type FixedEpisodeGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedEpisodeGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedEpisodeGenerator("ep-1", "ep-2")
//	gen.Generate() // "ep-1"
//	gen.Generate() // "ep-2"
//	gen.Generate() // panic: all IDs exhausted
func NewFixedEpisodeGenerator(ids ...string) *FixedEpisodeGenerator {
	return &FixedEpisodeGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed. This is a fail-fast approach
// to catch a test that ran more episodes than it declared.
func (g *FixedEpisodeGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedEpisodeGenerator: all IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SequentialEpisodeGenerator returns prefix-0001, prefix-0002, ...
//
// The same scenario with a fresh generator produces byte-identical
// episode logs.
type SequentialEpisodeGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialEpisodeGenerator creates a generator. An empty prefix
// becomes "episode".
func NewSequentialEpisodeGenerator(prefix string) *SequentialEpisodeGenerator {
	if prefix == "" {
		prefix = "episode"
	}
	return &SequentialEpisodeGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialEpisodeGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

package history

import (
	"context"
	"sync"
)

// Depths is one actor's position in its undo/redo log.
type Depths struct {
	Undo int
	Redo int
}

// Counters loads and saves Depths per (world, actor). An unknown pair loads
// as the zero Depths.
type Counters interface {
	Load(ctx context.Context, worldID, actorID string) (Depths, error)
	Save(ctx context.Context, worldID, actorID string, d Depths) error
}

type counterKey struct {
	world, actor string
}

// MemoryCounters keeps counters in process memory.
type MemoryCounters struct {
	mu sync.Mutex
	m  map[counterKey]Depths
}

func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{m: map[counterKey]Depths{}}
}

func (c *MemoryCounters) Load(_ context.Context, worldID, actorID string) (Depths, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[counterKey{worldID, actorID}], nil
}

func (c *MemoryCounters) Save(_ context.Context, worldID, actorID string, d Depths) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[counterKey{worldID, actorID}] = d
	return nil
}

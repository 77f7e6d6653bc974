package store

import (
	"fmt"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/tile"
	genpkg "worldedit.ai/internal/sim/world/terrain/gen"
)

// ExportWorld captures the whole world, generating any chunk not yet loaded.
func ExportWorld(s *ChunkStore) *snapshot.Snapshot {
	return snapshot.Capture(s, s.WorldRect())
}

// ImportWorld rebuilds a store from a full-world snapshot. The snapshot must
// start at the origin.
func ImportWorld(gen genpkg.Params, limits Limits, snap *snapshot.Snapshot) (*ChunkStore, error) {
	if snap.X != 0 || snap.Y != 0 {
		return nil, fmt.Errorf("world snapshot origin must be 0,0: got %d,%d", snap.X, snap.Y)
	}
	s, err := NewChunkStore(snap.Width, snap.Height, gen, limits)
	if err != nil {
		return nil, err
	}
	for cy := 0; cy*ChunkSize < s.Height; cy++ {
		for cx := 0; cx*ChunkSize < s.Width; cx++ {
			k := ChunkKey{CX: cx, CY: cy}
			s.Chunks[k] = &Chunk{CX: cx, CY: cy, Tiles: make([]tile.Tile, ChunkSize*ChunkSize)}
		}
	}
	snapshot.Restore(s, snap)
	return s, nil
}

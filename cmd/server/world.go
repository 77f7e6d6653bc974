package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/tuning"
	genpkg "worldedit.ai/internal/sim/world/terrain/gen"
	"worldedit.ai/internal/sim/world/terrain/store"
)

// loadOrCreateWorld reads a full-world snapshot from path, or generates a
// fresh world from tuning when the file does not exist.
func loadOrCreateWorld(path string, codec snapshot.Codec, tune tuning.Tuning, logger *log.Logger) (*store.ChunkStore, error) {
	snap, err := codec.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		gen := genpkg.DefaultParams(tune.Seed, tune.WorldHeight)
		logger.Printf("generating world %s %dx%d seed=%d", tune.WorldID, tune.WorldWidth, tune.WorldHeight, tune.Seed)
		return store.NewChunkStore(tune.WorldWidth, tune.WorldHeight, gen, tune.Limits())
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if snap.Width != tune.WorldWidth || snap.Height != tune.WorldHeight {
		logger.Printf("world file is %dx%d; tuning says %dx%d; using the file", snap.Width, snap.Height, tune.WorldWidth, tune.WorldHeight)
	}
	gen := genpkg.DefaultParams(tune.Seed, snap.Height)
	w, err := store.ImportWorld(gen, tune.Limits(), snap)
	if err != nil {
		return nil, err
	}
	logger.Printf("loaded world %s %dx%d objects=%d", tune.WorldID, snap.Width, snap.Height, snap.ObjectCount())
	return w, nil
}

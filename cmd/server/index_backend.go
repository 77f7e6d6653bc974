package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/persistence/indexdb"
)

// openRuntimeIndex opens the sqlite index that persists actor counters. With
// the index disabled, counters live in memory and reset on restart.
func openRuntimeIndex(dataDir string, disableDB bool, logger *log.Logger) (*indexdb.SQLiteIndex, history.Counters, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("WE_INDEX_BACKEND")))
	if disableDB {
		backend = "none"
	}
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		logger.Printf("index disabled; undo/redo depths will not survive a restart")
		return nil, history.NewMemoryCounters(), nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "worldedit.sqlite"))
		if err != nil {
			return nil, nil, err
		}
		return idx, idx, nil
	default:
		return nil, nil, fmt.Errorf("unsupported WE_INDEX_BACKEND: %s", backend)
	}
}

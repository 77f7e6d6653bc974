package history

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/tile"
)

type Direction string

const (
	DirUndo Direction = "undo"
	DirRedo Direction = "redo"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidID reports whether s can appear in a log file name.
func ValidID(s string) bool { return idPattern.MatchString(s) }

// FileName is the numbered-file contract: <dir>-<world>-<actor>-<depth>.dat.
func FileName(dir Direction, worldID, actorID string, depth int) string {
	return fmt.Sprintf("%s-%s-%s-%d.dat", dir, worldID, actorID, depth)
}

// FileInfo is one snapshot file in an actor's log.
type FileInfo struct {
	Direction Direction
	Depth     int
	Path      string
	Bounds    tile.Rect
	Size      int64
}

// ListFiles returns the undo and redo files of one actor sorted by direction
// then depth. Files whose header cannot be read are listed with zero bounds.
func ListFiles(dir, worldID, actorID string) ([]FileInfo, error) {
	if !ValidID(worldID) || !ValidID(actorID) {
		return nil, fmt.Errorf("invalid world or actor id")
	}
	var out []FileInfo
	for _, d := range []Direction{DirUndo, DirRedo} {
		files, err := globDepths(dir, d, worldID, actorID)
		if err != nil {
			return nil, err
		}
		for _, fi := range files {
			if st, err := os.Stat(fi.Path); err == nil {
				fi.Size = st.Size()
			}
			if b, err := snapshot.ReadBoundsFile(fi.Path); err == nil {
				fi.Bounds = b
			}
			out = append(out, fi)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Direction != out[j].Direction {
			return out[i].Direction == DirUndo
		}
		return out[i].Depth < out[j].Depth
	})
	return out, nil
}

// globDepths finds every numbered file of one direction, whatever the
// counters say.
func globDepths(dir string, d Direction, worldID, actorID string) ([]FileInfo, error) {
	prefix := fmt.Sprintf("%s-%s-%s-", d, worldID, actorID)
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.dat"))
	if err != nil {
		return nil, err
	}
	var out []FileInfo
	for _, p := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p), prefix), ".dat")
		depth, err := strconv.Atoi(num)
		if err != nil || depth <= 0 {
			continue
		}
		out = append(out, FileInfo{Direction: d, Depth: depth, Path: p})
	}
	return out, nil
}

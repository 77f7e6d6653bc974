package tuning

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/catalogs"
)

// MaxWorldDim is the largest width or height addressable with 16-bit coordinates.
const MaxWorldDim = 32767

type Tuning struct {
	WorldID     string `yaml:"world_id"`
	WorldWidth  int    `yaml:"world_width"`
	WorldHeight int    `yaml:"world_height"`
	Seed        int64  `yaml:"seed"`

	MaxUndoDepth     int `yaml:"max_undo_depth"`
	WandTileLimit    int `yaml:"wand_tile_limit"`
	DefaultUndoSteps int `yaml:"default_undo_steps"`

	HistoryDir string `yaml:"history_dir"`
	// LegacySnapshots writes undo files without the coating byte.
	LegacySnapshots bool `yaml:"legacy_snapshots"`

	ObjectLimits map[string]int `yaml:"object_limits"`
	Regions      []RegionSpec   `yaml:"regions"`
}

type RegionSpec struct {
	Name   string `yaml:"name"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func Defaults() Tuning {
	return Tuning{
		WorldID:          "world",
		WorldWidth:       4200,
		WorldHeight:      1200,
		Seed:             1337,
		MaxUndoDepth:     10,
		WandTileLimit:    10000,
		DefaultUndoSteps: 1,
		HistoryDir:       "worldedit",
		ObjectLimits: map[string]int{
			"sign":  1000,
			"chest": 8000,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.WorldID = strings.TrimSpace(t.WorldID)
	if t.DefaultUndoSteps <= 0 {
		t.DefaultUndoSteps = 1
	}
	if t.HistoryDir == "" {
		t.HistoryDir = "worldedit"
	}
	for i := range t.Regions {
		t.Regions[i].Name = strings.TrimSpace(t.Regions[i].Name)
	}
}

func (t Tuning) Validate() error {
	if !idPattern.MatchString(t.WorldID) {
		return fmt.Errorf("world_id %q must match [A-Za-z0-9_]+", t.WorldID)
	}
	if t.WorldWidth <= 0 || t.WorldWidth > MaxWorldDim {
		return fmt.Errorf("world_width must be in [1, %d]", MaxWorldDim)
	}
	if t.WorldHeight <= 0 || t.WorldHeight > MaxWorldDim {
		return fmt.Errorf("world_height must be in [1, %d]", MaxWorldDim)
	}
	if area := int64(t.WorldWidth) * int64(t.WorldHeight); area > snapshot.MaxArea {
		return fmt.Errorf("world_width*world_height = %d exceeds the snapshot limit of %d tiles", area, int64(snapshot.MaxArea))
	}
	if t.MaxUndoDepth < 0 {
		return fmt.Errorf("max_undo_depth must be >= 0")
	}
	if t.WandTileLimit < 0 {
		return fmt.Errorf("wand_tile_limit must be >= 0")
	}
	for name, n := range t.ObjectLimits {
		if _, ok := snapshot.ParseKind(name); !ok {
			return fmt.Errorf("object_limits: unknown object kind %q", name)
		}
		if n < 0 {
			return fmt.Errorf("object_limits.%s must be >= 0", name)
		}
	}
	seen := map[string]bool{}
	for i, r := range t.Regions {
		if r.Name == "" {
			return fmt.Errorf("regions[%d] name must not be empty", i)
		}
		key := catalogs.Fold(r.Name)
		if !filterable(key) {
			return fmt.Errorf("region name %q must be letters, digits and spaces", r.Name)
		}
		if seen[key] {
			return fmt.Errorf("duplicate region name: %s", r.Name)
		}
		seen[key] = true
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("region %s width and height must be > 0", r.Name)
		}
	}
	return nil
}

// filterable reports whether a folded region name survives the filter
// tokenizer as a single term.
func filterable(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Limits converts ObjectLimits to per-kind caps. Call after Validate.
func (t Tuning) Limits() map[snapshot.Kind]int {
	out := make(map[snapshot.Kind]int, len(t.ObjectLimits))
	for name, n := range t.ObjectLimits {
		if k, ok := snapshot.ParseKind(name); ok {
			out[k] = n
		}
	}
	return out
}

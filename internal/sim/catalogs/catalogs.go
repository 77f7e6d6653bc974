package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
)

// Category selects one of the name tables.
type Category int

const (
	Tile Category = iota
	Wall
	Color
	Coat
	Slope

	numCategories
)

func (c Category) String() string {
	switch c {
	case Tile:
		return "tile"
	case Wall:
		return "wall"
	case Color:
		return "color"
	case Coat:
		return "coat"
	case Slope:
		return "slope"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

func (c Category) file() string {
	return c.String() + "s.json"
}

type Entry struct {
	Name           string `json:"name"`
	ID             int    `json:"id"`
	FrameImportant bool   `json:"frame_important,omitempty"`
}

type tableFile struct {
	MaxID   int     `json:"max_id"`
	Entries []Entry `json:"entries"`
}

// Table maps folded names to ids in [0, MaxID).
type Table struct {
	Category Category
	MaxID    int
	Names    []string // folded, sorted
	Index    map[string]int
	Digest   string
}

type Catalogs struct {
	tables         [numCategories]*Table
	frameImportant map[uint16]bool
}

//go:embed catalog.schema.json
var schemaJSON []byte

var folder = cases.Fold()

// Fold normalizes a name the way lookups compare them: case folded with all
// whitespace removed.
func Fold(s string) string {
	return strings.Join(strings.Fields(folder.String(s)), "")
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("catalog.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile("catalog.schema.json")
}

// Load reads tiles.json, walls.json, colors.json, coats.json and slopes.json
// from dir.
func Load(dir string) (*Catalogs, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	c := &Catalogs{frameImportant: map[uint16]bool{}}
	for cat := Category(0); cat < numCategories; cat++ {
		raw, err := os.ReadFile(filepath.Join(dir, cat.file()))
		if err != nil {
			return nil, err
		}
		t, entries, err := parseTable(cat, raw, schema)
		if err != nil {
			return nil, err
		}
		c.tables[cat] = t
		if cat == Tile {
			for _, e := range entries {
				if e.FrameImportant {
					c.frameImportant[uint16(e.ID)] = true
				}
			}
		}
	}
	return c, nil
}

func parseTable(cat Category, raw []byte, schema *jsonschema.Schema) (*Table, []Entry, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cat.file(), err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cat.file(), err)
	}
	var f tableFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cat.file(), err)
	}

	t := &Table{
		Category: cat,
		MaxID:    f.MaxID,
		Index:    make(map[string]int, len(f.Entries)),
		Digest:   sha256Hex(raw),
	}
	for _, e := range f.Entries {
		if e.ID >= f.MaxID {
			return nil, nil, fmt.Errorf("%s: %q id %d not below max_id %d", cat.file(), e.Name, e.ID, f.MaxID)
		}
		name := Fold(e.Name)
		if prev, ok := t.Index[name]; ok && prev != e.ID {
			return nil, nil, fmt.Errorf("%s: %q maps to both %d and %d", cat.file(), e.Name, prev, e.ID)
		}
		t.Index[name] = e.ID
	}
	t.Names = make([]string, 0, len(t.Index))
	for n := range t.Index {
		t.Names = append(t.Names, n)
	}
	sort.Strings(t.Names)
	return t, f.Entries, nil
}

func (c *Catalogs) Table(cat Category) *Table {
	if cat < 0 || cat >= numCategories {
		return nil
	}
	return c.tables[cat]
}

// FrameImportant reports whether a tile type stores frame offsets.
func (c *Catalogs) FrameImportant(typ uint16) bool {
	return c.frameImportant[typ]
}

// Name returns the first folded name mapped to id, or "" when none is.
func (c *Catalogs) Name(cat Category, id int) string {
	t := c.Table(cat)
	if t == nil {
		return ""
	}
	for _, n := range t.Names {
		if t.Index[n] == id {
			return n
		}
	}
	return ""
}

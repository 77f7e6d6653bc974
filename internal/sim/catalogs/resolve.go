package catalogs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownName   = errors.New("unknown name")
	ErrAmbiguousName = errors.New("ambiguous name")
	ErrOutOfRange    = errors.New("id out of range")
)

// Resolve maps an operand to an id. An integer literal must lie in
// [0, MaxID). Otherwise an exact name wins; failing that, the prefix must
// select exactly one id.
func (c *Catalogs) Resolve(cat Category, name string) (int, error) {
	t := c.Table(cat)
	if t == nil {
		return 0, fmt.Errorf("%s: no table", cat)
	}
	return t.Resolve(name)
}

func (t *Table) Resolve(name string) (int, error) {
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n >= t.MaxID {
			return 0, fmt.Errorf("%s %d: %w (0..%d)", t.Category, n, ErrOutOfRange, t.MaxID-1)
		}
		return n, nil
	}

	key := Fold(name)
	if key == "" {
		return 0, fmt.Errorf("%s %q: %w", t.Category, name, ErrUnknownName)
	}
	if id, ok := t.Index[key]; ok {
		return id, nil
	}

	found := -1
	var candidates []string
	for _, n := range t.Names {
		if !strings.HasPrefix(n, key) {
			continue
		}
		id := t.Index[n]
		candidates = append(candidates, n)
		if found == -1 {
			found = id
		} else if found != id {
			found = -2
		}
	}
	switch {
	case found == -1:
		return 0, fmt.Errorf("%s %q: %w", t.Category, name, ErrUnknownName)
	case found == -2:
		if len(candidates) > 5 {
			candidates = append(candidates[:5], "...")
		}
		return 0, fmt.Errorf("%s %q: %w (%s)", t.Category, name, ErrAmbiguousName, strings.Join(candidates, ", "))
	}
	return found, nil
}

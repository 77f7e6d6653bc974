package regions

import (
	"sort"

	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/tile"
	"worldedit.ai/internal/sim/tuning"
)

// Region is a named rectangle of the world.
type Region struct {
	Name string
	Area tile.Rect
}

func (r Region) InArea(x, y int) bool {
	return r.Area.Contains(x, y)
}

// Set holds the named regions of one world. The zero value is empty and usable.
type Set struct {
	byName map[string]Region
}

func New(regions ...Region) *Set {
	s := &Set{byName: make(map[string]Region, len(regions))}
	for _, r := range regions {
		s.byName[catalogs.Fold(r.Name)] = r
	}
	return s
}

func FromTuning(specs []tuning.RegionSpec) *Set {
	rs := make([]Region, 0, len(specs))
	for _, sp := range specs {
		rs = append(rs, Region{Name: sp.Name, Area: tile.Rect{X: sp.X, Y: sp.Y, W: sp.Width, H: sp.Height}})
	}
	return New(rs...)
}

// Lookup compares names after catalogs.Fold, so "Main Hall" and "mainhall"
// name the same region.
func (s *Set) Lookup(name string) (Region, bool) {
	if s == nil {
		return Region{}, false
	}
	r, ok := s.byName[catalogs.Fold(name)]
	return r, ok
}

// InAnyArea reports whether any region covers (x, y).
func (s *Set) InAnyArea(x, y int) bool {
	if s == nil {
		return false
	}
	for _, r := range s.byName {
		if r.InArea(x, y) {
			return true
		}
	}
	return false
}

func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.byName))
	for _, r := range s.byName {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out
}

package wand

import (
	"errors"
	"fmt"

	"worldedit.ai/internal/expr"
	"worldedit.ai/internal/sim/encoding"
	"worldedit.ai/internal/sim/tile"
)

var (
	ErrSelectionTooLarge = errors.New("selection too large")
	// ErrSeedRejected means the seed is outside the world or fails the predicate.
	ErrSeedRejected = errors.New("seed rejected")
)

// TooLargeError reports the ceiling a flood fill ran into.
type TooLargeError struct {
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("selection too large: more than %d tiles", e.Limit)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrSelectionTooLarge }

// Grid is the read side of the tile world.
type Grid interface {
	Bounds() (width, height int)
	Tile(x, y int) tile.Tile
}

// Selection is either unconstrained or an explicit set of points in
// discovery order. A nil *Selection is unconstrained.
type Selection struct {
	points []tile.Point
	set    map[tile.Point]struct{}
}

// All returns the unconstrained selection.
func All() *Selection { return nil }

func (s *Selection) Unconstrained() bool { return s == nil }

func (s *Selection) Contains(x, y int) bool {
	if s == nil {
		return true
	}
	_, ok := s.set[tile.P(x, y)]
	return ok
}

func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Points returns a copy of the points in discovery order.
func (s *Selection) Points() []tile.Point {
	if s == nil {
		return nil
	}
	out := make([]tile.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Bounds is the smallest rectangle holding every point.
func (s *Selection) Bounds() tile.Rect {
	if s.Len() == 0 {
		return tile.Rect{}
	}
	minX, minY := int(s.points[0].X), int(s.points[0].Y)
	maxX, maxY := minX, minY
	for _, p := range s.points[1:] {
		minX, maxX = min(minX, int(p.X)), max(maxX, int(p.X))
		minY, maxY = min(minY, int(p.Y)), max(maxY, int(p.Y))
	}
	return tile.RectFromCorners(minX, minY, maxX, maxY)
}

// Mask encodes the selection as a row-major bitmask over Bounds.
func (s *Selection) Mask() (tile.Rect, string) {
	if s == nil {
		return tile.Rect{}, ""
	}
	r := s.Bounds()
	bits := make([]bool, r.W*r.H)
	for _, p := range s.points {
		bits[(int(p.Y)-r.Y)*r.W+int(p.X)-r.X] = true
	}
	return r, encoding.EncodeMask(bits)
}

// FromMask rebuilds a selection from Mask output. Points are ordered row-major.
func FromMask(r tile.Rect, mask string) (*Selection, error) {
	bits, err := encoding.DecodeMask(mask, r.W*r.H)
	if err != nil {
		return nil, err
	}
	s := &Selection{set: map[tile.Point]struct{}{}}
	for i, b := range bits {
		if b {
			s.add(tile.P(r.X+i%r.W, r.Y+i/r.W))
		}
	}
	return s, nil
}

func (s *Selection) add(p tile.Point) {
	s.points = append(s.points, p)
	s.set[p] = struct{}{}
}

// Grow flood-fills from (x, y) over 4-connected neighbours for which pred
// holds. The seed counts toward limit; a region of exactly limit tiles is
// accepted and anything larger fails with *TooLargeError and no selection.
// limit <= 0 disables the ceiling.
func Grow(g Grid, x, y int, pred expr.Predicate, limit int) (*Selection, error) {
	if pred == nil {
		pred = expr.Always()
	}
	w, h := g.Bounds()
	if !tile.InBounds(x, y, w, h) || !pred(g.Tile(x, y), x, y) {
		return nil, ErrSeedRejected
	}

	seed := tile.P(x, y)
	sel := &Selection{set: map[tile.Point]struct{}{}}
	sel.add(seed)
	visited := map[tile.Point]struct{}{seed: {}}
	if limit > 0 && sel.Len() > limit {
		return nil, &TooLargeError{Limit: limit}
	}

	for i := 0; i < len(sel.points); i++ {
		p := sel.points[i]
		px, py := int(p.X), int(p.Y)
		for _, n := range [4][2]int{{px + 1, py}, {px - 1, py}, {px, py + 1}, {px, py - 1}} {
			nx, ny := n[0], n[1]
			if !tile.InBounds(nx, ny, w, h) {
				continue
			}
			np := tile.P(nx, ny)
			if _, seen := visited[np]; seen {
				continue
			}
			visited[np] = struct{}{}
			if !pred(g.Tile(nx, ny), nx, ny) {
				continue
			}
			sel.add(np)
			if limit > 0 && sel.Len() > limit {
				return nil, &TooLargeError{Limit: limit}
			}
		}
	}
	return sel, nil
}

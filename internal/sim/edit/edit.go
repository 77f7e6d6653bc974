// Package edit applies actor commands to the shared world: wand selections,
// counts, fills and undo/redo. One operation holds the world at a time.
package edit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"worldedit.ai/internal/expr"
	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/tile"
	"worldedit.ai/internal/sim/world/regions"
	"worldedit.ai/internal/sim/world/wand"
)

// ErrBadTarget reports a fill target that does not name a tile or wall.
var ErrBadTarget = errors.New("bad fill target")

type Layer int

const (
	LayerTile Layer = iota
	LayerWall
)

func (l Layer) String() string {
	if l == LayerWall {
		return "wall"
	}
	return "tile"
}

// Target is what Fill writes. ID -1 clears the layer.
type Target struct {
	Layer Layer
	ID    int
}

type Options struct {
	World    snapshot.World
	History  *history.Log
	Catalogs *catalogs.Catalogs
	Regions  *regions.Set

	WandLimit    int
	DefaultSteps int
	Logger       *log.Logger
}

type Editor struct {
	mu    sync.Mutex
	world snapshot.World
	hist  *history.Log
	cats  *catalogs.Catalogs
	env   expr.Env

	wandLimit    int
	defaultSteps int
	logger       *log.Logger

	selMu      sync.Mutex
	selections map[string]*wand.Selection
}

func New(opts Options) (*Editor, error) {
	if opts.World == nil {
		return nil, fmt.Errorf("edit: world required")
	}
	if opts.History == nil {
		return nil, fmt.Errorf("edit: history required")
	}
	e := &Editor{
		world:        opts.World,
		hist:         opts.History,
		cats:         opts.Catalogs,
		wandLimit:    opts.WandLimit,
		defaultSteps: opts.DefaultSteps,
		logger:       opts.Logger,
		selections:   map[string]*wand.Selection{},
	}
	if opts.Catalogs != nil {
		e.env.IDs = opts.Catalogs
	}
	if opts.Regions != nil {
		e.env.Regions = opts.Regions
	}
	if e.defaultSteps <= 0 {
		e.defaultSteps = 1
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	return e, nil
}

func (e *Editor) Env() expr.Env { return e.env }

// Filter compiles a filter expression. Blank text matches every tile.
func (e *Editor) Filter(text string) (expr.Predicate, error) {
	if strings.TrimSpace(text) == "" {
		return expr.Always(), nil
	}
	n, err := expr.Parse(text, e.env)
	if err != nil {
		return nil, err
	}
	return expr.Compile(n), nil
}

// ResolveTarget maps a tile or wall name (or id) to a fill target. The names
// "air" and "none" clear the layer.
func (e *Editor) ResolveTarget(layer Layer, name string) (Target, error) {
	switch catalogs.Fold(name) {
	case "air", "none", "-1":
		return Target{Layer: layer, ID: -1}, nil
	}
	if e.cats == nil {
		return Target{}, fmt.Errorf("%w: no catalogs loaded", ErrBadTarget)
	}
	cat := catalogs.Tile
	if layer == LayerWall {
		cat = catalogs.Wall
	}
	id, err := e.cats.Resolve(cat, name)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s %q: %w", ErrBadTarget, layer, name, err)
	}
	return Target{Layer: layer, ID: id}, nil
}

// Selection returns the actor's wand selection; nil means unconstrained.
func (e *Editor) Selection(actorID string) *wand.Selection {
	e.selMu.Lock()
	defer e.selMu.Unlock()
	return e.selections[actorID]
}

func (e *Editor) ClearWand(actorID string) {
	e.selMu.Lock()
	delete(e.selections, actorID)
	e.selMu.Unlock()
}

// Wand flood-fills from (x, y) and stores the result as the actor's
// selection. On error the previous selection is kept.
func (e *Editor) Wand(actorID string, x, y int, filter string) (*wand.Selection, error) {
	pred, err := e.Filter(filter)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	sel, err := wand.Grow(e.world, x, y, pred, e.wandLimit)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	e.selMu.Lock()
	e.selections[actorID] = sel
	e.selMu.Unlock()
	return sel, nil
}

// Count returns how many tiles inside r match filter.
func (e *Editor) Count(r tile.Rect, filter string) (int, error) {
	pred, err := e.Filter(filter)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	r = e.clamp(r)
	n := 0
	for x := r.X; x < r.X+r.W; x++ {
		for y := r.Y; y < r.Y+r.H; y++ {
			if pred(e.world.Tile(x, y), x, y) {
				n++
			}
		}
	}
	return n, nil
}

type FillResult struct {
	Rect    tile.Rect
	Changed int
}

// Fill writes target to every tile of r that lies inside the actor's
// selection and matches filter. The affected area is recorded for undo
// before anything changes; nothing is recorded when no tile matches.
func (e *Editor) Fill(ctx context.Context, actorID string, r tile.Rect, target Target, filter string) (FillResult, error) {
	pred, err := e.Filter(filter)
	if err != nil {
		return FillResult{}, err
	}
	if target.ID < -1 {
		return FillResult{}, fmt.Errorf("%w: id %d", ErrBadTarget, target.ID)
	}
	sel := e.Selection(actorID)

	e.mu.Lock()
	defer e.mu.Unlock()

	r = e.clamp(r)
	if !sel.Unconstrained() {
		r = intersect(r, sel.Bounds())
	}
	var hits []tile.Point
	for x := r.X; x < r.X+r.W; x++ {
		for y := r.Y; y < r.Y+r.H; y++ {
			if sel.Contains(x, y) && pred(e.world.Tile(x, y), x, y) {
				hits = append(hits, tile.P(x, y))
			}
		}
	}
	if len(hits) == 0 {
		return FillResult{Rect: r}, nil
	}
	area := bounds(hits)
	if err := e.hist.Record(ctx, e.world, actorID, area); err != nil {
		return FillResult{}, err
	}

	changed := 0
	for _, p := range hits {
		x, y := int(p.X), int(p.Y)
		t := e.world.Tile(x, y)
		before := t
		apply(&t, target)
		if t != before {
			e.world.SetTile(x, y, t)
			changed++
		}
	}
	e.logger.Printf("fill actor=%s rect=%+v %s=%d changed=%d", actorID, area, target.Layer, target.ID, changed)
	return FillResult{Rect: area, Changed: changed}, nil
}

func apply(t *tile.Tile, target Target) {
	switch target.Layer {
	case LayerWall:
		if target.ID < 0 {
			t.Wall = 0
			t.SetWallColor(0)
			t.SetFullBrightWall(false)
			t.SetInvisibleWall(false)
			return
		}
		t.Wall = uint16(target.ID)
	default:
		if target.ID < 0 {
			t.Clear()
			return
		}
		if t.Active() && t.Type == uint16(target.ID) {
			return
		}
		t.Place(uint16(target.ID))
	}
}

// Undo reverts up to steps of the actor's edits; steps <= 0 uses the
// configured default.
func (e *Editor) Undo(ctx context.Context, actorID string, steps int) (int, error) {
	if steps <= 0 {
		steps = e.defaultSteps
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Undo(ctx, e.world, actorID, steps)
}

func (e *Editor) Redo(ctx context.Context, actorID string, steps int) (int, error) {
	if steps <= 0 {
		steps = e.defaultSteps
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Redo(ctx, e.world, actorID, steps)
}

// Depths reports how many undo and redo steps the actor can run.
func (e *Editor) Depths(ctx context.Context, actorID string) (history.Depths, error) {
	return e.hist.Usable(ctx, actorID)
}

// Snapshot captures the whole world.
func (e *Editor) Snapshot() *snapshot.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, h := e.world.Bounds()
	return snapshot.Capture(e.world, tile.Rect{W: w, H: h})
}

func (e *Editor) clamp(r tile.Rect) tile.Rect {
	w, h := e.world.Bounds()
	return r.Clamp(w, h)
}

func intersect(a, b tile.Rect) tile.Rect {
	x0, y0 := max(a.X, b.X), max(a.Y, b.Y)
	x1, y1 := min(a.X+a.W, b.X+b.W), min(a.Y+a.H, b.Y+b.H)
	if x1 <= x0 || y1 <= y0 {
		return tile.Rect{X: x0, Y: y0}
	}
	return tile.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func bounds(pts []tile.Point) tile.Rect {
	x0, y0 := int(pts[0].X), int(pts[0].Y)
	x1, y1 := x0, y0
	for _, p := range pts[1:] {
		x0, y0 = min(x0, int(p.X)), min(y0, int(p.Y))
		x1, y1 = max(x1, int(p.X)), max(y1, int(p.Y))
	}
	return tile.RectFromCorners(x0, y0, x1, y1)
}

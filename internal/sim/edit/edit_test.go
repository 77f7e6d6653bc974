package edit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"worldedit.ai/internal/expr"
	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/tile"
	"worldedit.ai/internal/sim/world/regions"
	"worldedit.ai/internal/sim/world/terrain/store"
	"worldedit.ai/internal/sim/world/wand"
	genpkg "worldedit.ai/internal/sim/world/terrain/gen"
)

const (
	dirt  = 0
	stone = 1
)

func newEditor(t *testing.T, wandLimit int) (*Editor, *store.ChunkStore) {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs", "catalogs"))
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	w, err := store.NewChunkStore(40, 40, genpkg.DefaultParams(5, 40), nil)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	// A flat world: stone everywhere except a dirt square at (10..14, 10..14).
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			var tl tile.Tile
			tl.Place(stone)
			if x >= 10 && x < 15 && y >= 10 && y < 15 {
				tl.Place(dirt)
			}
			w.SetTile(x, y, tl)
		}
	}
	h, err := history.New(history.Options{Dir: t.TempDir(), WorldID: "w1", Counters: history.NewMemoryCounters()})
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	e, err := New(Options{
		World:     w,
		History:   h,
		Catalogs:  cats,
		Regions:   regions.New(regions.Region{Name: "Spawn", Area: tile.Rect{X: 0, Y: 0, W: 5, H: 5}}),
		WandLimit: wandLimit,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, w
}

func TestCount(t *testing.T) {
	e, _ := newEditor(t, 0)
	cases := []struct {
		name   string
		rect   tile.Rect
		filter string
		want   int
	}{
		{"no filter", tile.Rect{W: 4, H: 3}, "", 12},
		{"dirt", tile.Rect{W: 40, H: 40}, "t=dirt", 25},
		{"not dirt", tile.Rect{W: 40, H: 40}, "t!=dirt", 1600 - 25},
		{"clamped", tile.Rect{X: 38, Y: 38, W: 10, H: 10}, "", 4},
		{"region", tile.Rect{W: 40, H: 40}, "r=spawn", 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Count(tc.rect, tc.filter)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}

	if _, err := e.Count(tile.Rect{W: 1, H: 1}, "t=dirt &&"); !errors.Is(err, expr.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestFillThenUndoRedo(t *testing.T) {
	ctx := context.Background()
	e, w := newEditor(t, 0)
	all := tile.Rect{W: 40, H: 40}
	before := w.Digest()

	target, err := e.ResolveTarget(LayerTile, "iron")
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	res, err := e.Fill(ctx, "alice", all, target, "t=dirt")
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if res.Changed != 25 || res.Rect != (tile.Rect{X: 10, Y: 10, W: 5, H: 5}) {
		t.Fatalf("Fill result: %+v", res)
	}
	if n, _ := e.Count(all, "t=dirt"); n != 0 {
		t.Fatalf("dirt left after fill: %d", n)
	}
	after := w.Digest()

	if n, err := e.Undo(ctx, "alice", 0); n != 1 || err != nil {
		t.Fatalf("Undo: %d %v", n, err)
	}
	if w.Digest() != before {
		t.Fatalf("undo did not restore the world")
	}
	if n, err := e.Redo(ctx, "alice", 0); n != 1 || err != nil {
		t.Fatalf("Redo: %d %v", n, err)
	}
	if w.Digest() != after {
		t.Fatalf("redo did not reapply the fill")
	}
	if d, _ := e.Depths(ctx, "alice"); d != (history.Depths{Undo: 1}) {
		t.Fatalf("depths: %+v", d)
	}
}

func TestFillWithoutMatchesRecordsNothing(t *testing.T) {
	ctx := context.Background()
	e, _ := newEditor(t, 0)
	res, err := e.Fill(ctx, "bob", tile.Rect{W: 5, H: 5}, Target{Layer: LayerWall, ID: 4}, "t=dirt")
	if err != nil || res.Changed != 0 {
		t.Fatalf("Fill: %+v %v", res, err)
	}
	if _, err := e.Undo(ctx, "bob", 1); !errors.Is(err, history.ErrNothingToUndo) {
		t.Fatalf("expected nothing to undo, got %v", err)
	}
}

func TestWandConstrainsFill(t *testing.T) {
	ctx := context.Background()
	e, w := newEditor(t, 0)

	sel, err := e.Wand("carol", 12, 12, "t=dirt")
	if err != nil {
		t.Fatalf("Wand: %v", err)
	}
	if sel.Len() != 25 {
		t.Fatalf("selection size %d", sel.Len())
	}
	res, err := e.Fill(ctx, "carol", tile.Rect{W: 40, H: 40}, Target{Layer: LayerTile, ID: -1}, "")
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if res.Changed != 25 {
		t.Fatalf("changed %d want 25", res.Changed)
	}
	if w.Tile(12, 12).Active() || !w.Tile(9, 9).Active() {
		t.Fatalf("fill escaped the selection")
	}

	// Selections are per actor.
	if e.Selection("dave") != nil {
		t.Fatalf("selection leaked to another actor")
	}
	e.ClearWand("carol")
	if !e.Selection("carol").Unconstrained() {
		t.Fatalf("ClearWand kept the selection")
	}
}

func TestWandTooLargeKeepsPreviousSelection(t *testing.T) {
	e, _ := newEditor(t, 25)
	if _, err := e.Wand("erin", 10, 10, "t=dirt"); err != nil {
		t.Fatalf("Wand at limit: %v", err)
	}
	_, err := e.Wand("erin", 0, 0, "t=stone")
	var tooLarge *wand.TooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Limit != 25 {
		t.Fatalf("expected TooLargeError, got %v", err)
	}
	if e.Selection("erin").Len() != 25 {
		t.Fatalf("previous selection lost")
	}
	if _, err := e.Wand("erin", 0, 0, "t=dirt"); !errors.Is(err, wand.ErrSeedRejected) {
		t.Fatalf("expected seed rejection, got %v", err)
	}
}

func TestResolveTarget(t *testing.T) {
	e, _ := newEditor(t, 0)
	cases := []struct {
		layer   Layer
		name    string
		want    int
		wantErr bool
	}{
		{LayerTile, "stone", 1, false},
		{LayerTile, "air", -1, false},
		{LayerWall, "dirt wall", 2, false},
		{LayerWall, "none", -1, false},
		{LayerTile, "copper", 0, true},
		{LayerTile, "no such tile", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.layer.String()+"/"+tc.name, func(t *testing.T) {
			got, err := e.ResolveTarget(tc.layer, tc.name)
			if tc.wantErr {
				if !errors.Is(err, ErrBadTarget) {
					t.Fatalf("expected ErrBadTarget, got %v", err)
				}
				return
			}
			if err != nil || got.ID != tc.want || got.Layer != tc.layer {
				t.Fatalf("got %+v %v", got, err)
			}
		})
	}
}

func TestSnapshotCoversWorld(t *testing.T) {
	e, _ := newEditor(t, 0)
	s := e.Snapshot()
	if s.Bounds() != (tile.Rect{W: 40, H: 40}) {
		t.Fatalf("snapshot bounds %+v", s.Bounds())
	}
}

package tile

import "testing"

func TestTileBitsAreIndependent(t *testing.T) {
	var tl Tile
	tl.Place(7)
	tl.SetColor(12)
	tl.SetWallColor(31)
	tl.SetSlope(3)
	tl.SetLiquidKind(Shimmer)
	tl.SetWire(1, true)
	tl.SetWire(4, true)
	tl.SetActuator(true)
	tl.SetInvisibleWall(true)

	if !tl.Active() || tl.Type != 7 {
		t.Fatalf("expected active type 7, got active=%v type=%d", tl.Active(), tl.Type)
	}
	if tl.Color() != 12 || tl.WallColor() != 31 {
		t.Fatalf("paint: got %d/%d", tl.Color(), tl.WallColor())
	}
	if tl.Slope() != 3 || tl.HalfBrick() {
		t.Fatalf("slope: got %d half=%v", tl.Slope(), tl.HalfBrick())
	}
	if tl.LiquidKind() != Shimmer {
		t.Fatalf("liquid kind: got %d", tl.LiquidKind())
	}
	if !tl.Wire(1) || tl.Wire(2) || tl.Wire(3) || !tl.Wire(4) {
		t.Fatalf("wires: %v %v %v %v", tl.Wire(1), tl.Wire(2), tl.Wire(3), tl.Wire(4))
	}
	if !tl.Actuator() || !tl.InvisibleWall() || tl.InvisibleBlock() || tl.FullBrightWall() {
		t.Fatalf("flags mismatch: %+v", tl)
	}

	tl.SetColor(0)
	if tl.Slope() != 3 || !tl.Active() {
		t.Fatalf("clearing paint touched other bits: %+v", tl)
	}
}

func TestClearKeepsWallAndWiring(t *testing.T) {
	var tl Tile
	tl.Place(3)
	tl.Wall = 5
	tl.SetWire(2, true)
	tl.SetHalfBrick(true)
	tl.Clear()
	if tl.Active() || tl.Type != 0 || tl.HalfBrick() {
		t.Fatalf("block not cleared: %+v", tl)
	}
	if tl.Wall != 5 || !tl.Wire(2) {
		t.Fatalf("wall/wire lost: %+v", tl)
	}
}

func TestRectClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{X: 1, Y: 1, W: 2, H: 2}, Rect{X: 1, Y: 1, W: 2, H: 2}},
		{"negative origin", Rect{X: -2, Y: -1, W: 4, H: 3}, Rect{X: 0, Y: 0, W: 2, H: 2}},
		{"past edge", Rect{X: 8, Y: 8, W: 5, H: 5}, Rect{X: 8, Y: 8, W: 2, H: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamp(10, 10)
			if got != tt.want {
				t.Fatalf("got %+v want %+v", got, tt.want)
			}
		})
	}
	if !(Rect{X: 20, Y: 20, W: 3, H: 3}).Clamp(10, 10).Empty() {
		t.Fatalf("rect outside the world should clamp to empty")
	}
}

func TestRectFromCorners(t *testing.T) {
	r := RectFromCorners(5, 9, 2, 3)
	if r != (Rect{X: 2, Y: 3, W: 4, H: 7}) {
		t.Fatalf("got %+v", r)
	}
	if !r.Contains(5, 9) || r.Contains(6, 9) {
		t.Fatalf("corner containment wrong for %+v", r)
	}
}

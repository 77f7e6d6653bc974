package gen

import "testing"

func TestTileAtIsDeterministic(t *testing.T) {
	p := DefaultParams(42, 300)
	q := DefaultParams(42, 300)
	for x := 0; x < 200; x += 7 {
		for y := 0; y < 300; y += 5 {
			if p.TileAt(x, y) != q.TileAt(x, y) {
				t.Fatalf("tile %d,%d differs between equal params", x, y)
			}
		}
	}
}

func TestSkyAboveSurfaceIsEmpty(t *testing.T) {
	p := DefaultParams(7, 300)
	for x := 0; x < 100; x++ {
		s := p.SurfaceAt(x)
		if s < p.SurfaceY-p.SurfaceJitter || s > p.SurfaceY+p.SurfaceJitter {
			t.Fatalf("surface at %d = %d outside jitter band", x, s)
		}
		for y := 0; y < s; y++ {
			if got := p.TileAt(x, y); got.Active() || got.Wall != 0 {
				t.Fatalf("sky tile %d,%d not empty: %+v", x, y, got)
			}
		}
		if got := p.TileAt(x, s); !got.Active() || got.Type != p.Grass {
			t.Fatalf("surface tile %d,%d: %+v", x, s, got)
		}
	}
}

func TestFloorDivAndMod(t *testing.T) {
	tests := []struct{ a, b, q, m int }{
		{7, 4, 1, 3},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, tt := range tests {
		if q := FloorDiv(tt.a, tt.b); q != tt.q {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", tt.a, tt.b, q, tt.q)
		}
		if m := Mod(tt.a, tt.b); m != tt.m {
			t.Fatalf("Mod(%d,%d)=%d want %d", tt.a, tt.b, m, tt.m)
		}
	}
}

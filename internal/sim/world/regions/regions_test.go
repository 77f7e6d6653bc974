package regions

import (
	"testing"

	"worldedit.ai/internal/sim/tile"
	"worldedit.ai/internal/sim/tuning"
)

func TestLookupAndMembership(t *testing.T) {
	s := FromTuning([]tuning.RegionSpec{
		{Name: "Spawn", X: 10, Y: 10, Width: 5, Height: 5},
		{Name: "arena", X: 100, Y: 0, Width: 1, Height: 1},
	})

	r, ok := s.Lookup("SPAWN")
	if !ok || r.Name != "Spawn" {
		t.Fatalf("Lookup: %+v %v", r, ok)
	}
	if !r.InArea(14, 14) || r.InArea(15, 14) {
		t.Fatalf("InArea edges wrong")
	}
	if _, ok := s.Lookup("spa"); ok {
		t.Fatalf("region lookup must be exact")
	}
	if !s.InAnyArea(100, 0) || s.InAnyArea(50, 50) {
		t.Fatalf("InAnyArea wrong")
	}
	if got := s.Names(); len(got) != 2 || got[0] != "Spawn" {
		t.Fatalf("Names: %v", got)
	}
}

func TestLookupFoldsNames(t *testing.T) {
	s := New(
		Region{Name: "Main Hall", Area: tile.Rect{W: 4, H: 4}},
		Region{Name: "Straße", Area: tile.Rect{X: 10, W: 1, H: 1}},
	)
	tests := []struct {
		query string
		want  string
	}{
		{"Main Hall", "Main Hall"},
		{"mainhall", "Main Hall"},
		{"MAIN  HALL", "Main Hall"},
		{"strasse", "Straße"},
		{"STRASSE", "Straße"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r, ok := s.Lookup(tt.query)
			if !ok || r.Name != tt.want {
				t.Fatalf("Lookup(%q) = %+v, %v", tt.query, r, ok)
			}
		})
	}
}

func TestNilSet(t *testing.T) {
	var s *Set
	if _, ok := s.Lookup("x"); ok || s.InAnyArea(0, 0) {
		t.Fatalf("nil set should be empty")
	}
}

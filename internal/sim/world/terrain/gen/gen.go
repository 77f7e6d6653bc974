package gen

import "worldedit.ai/internal/sim/tile"

// Params describes a side-view world: open sky above a jittered surface
// line, a dirt band, then stone with ore veins and water-filled caves.
type Params struct {
	Seed int64

	SurfaceY      int
	SurfaceJitter int
	SurfaceSpan   int
	DirtDepth     int

	OreClusterProbScalePermille int
	CavePermille                int
	CaveWaterPermille           int

	Dirt      uint16
	Stone     uint16
	Grass     uint16
	IronOre   uint16
	CopperOre uint16
	GoldOre   uint16
	DirtWall  uint16
	StoneWall uint16
}

// DefaultParams uses the stock tile and wall ids of the bundled catalogs.
func DefaultParams(seed int64, height int) Params {
	return Params{
		Seed:              seed,
		SurfaceY:          height / 3,
		SurfaceJitter:     4,
		SurfaceSpan:       8,
		DirtDepth:         12,
		CavePermille:      350,
		CaveWaterPermille: 300,
		Dirt:              0,
		Stone:             1,
		Grass:             2,
		IronOre:           6,
		CopperOre:         7,
		GoldOre:           8,
		DirtWall:          2,
		StoneWall:         1,
	}
}

// SurfaceAt returns the first solid row of column x.
func (p Params) SurfaceAt(x int) int {
	span := p.SurfaceSpan
	if span <= 0 {
		span = 1
	}
	if p.SurfaceJitter <= 0 {
		return p.SurfaceY
	}
	j := uint64(2*p.SurfaceJitter + 1)
	a := int(Hash2(p.Seed, FloorDiv(x, span), 0)%j) - p.SurfaceJitter
	b := int(Hash2(p.Seed, FloorDiv(x, span)+1, 0)%j) - p.SurfaceJitter
	t := Mod(x, span)
	return p.SurfaceY + a + (b-a)*t/span
}

// TileAt is a pure function of the params and the coordinate.
func (p Params) TileAt(x, y int) tile.Tile {
	var t tile.Tile
	surface := p.SurfaceAt(x)
	if y < surface {
		return t
	}

	depth := y - surface
	if depth > 0 {
		if depth <= p.DirtDepth {
			t.Wall = p.DirtWall
		} else {
			t.Wall = p.StoneWall
		}
	}

	if depth > 3 && InCluster(p.Seed+501, x, y, 24, 4, uint64(ClampPermille(p.CavePermille))) {
		if Hash2(p.Seed+502, x, y)%1000 < uint64(ClampPermille(p.CaveWaterPermille)) {
			t.SetLiquidKind(tile.Water)
			t.Liquid = 255
		}
		return t
	}

	switch {
	case depth == 0:
		t.Place(p.Grass)
	case depth <= p.DirtDepth:
		t.Place(p.Dirt)
	case InCluster(p.Seed+101, x, y, 64, 2, ScalePermille(250, p.OreClusterProbScalePermille)):
		t.Place(p.GoldOre)
	case InCluster(p.Seed+102, x, y, 48, 3, ScalePermille(450, p.OreClusterProbScalePermille)):
		t.Place(p.IronOre)
	case InCluster(p.Seed+103, x, y, 32, 3, ScalePermille(550, p.OreClusterProbScalePermille)):
		t.Place(p.CopperOre)
	default:
		t.Place(p.Stone)
	}
	return t
}

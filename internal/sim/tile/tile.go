package tile

// Tile is a single world cell. The attribute bits are kept in the same packed
// header words the snapshot format stores, so copying a Tile copies everything.
//
// Header bits: 0-4 paint, 5 active, 6 inactive, 7 wire1, 8 wire2, 9 wire3,
// 10 half brick, 11 actuator, 12-14 slope.
// Header1 bits: 0-4 wall paint, 7 wire4.
// Header2 bits: 0-1 liquid kind.
// Header3 bits: 0 full-bright block, 1 invisible block, 2 full-bright wall,
// 3 invisible wall.
type Tile struct {
	Header  uint16
	Header1 uint8
	Header2 uint8
	Header3 uint8

	Type   uint16
	FrameX int16
	FrameY int16
	Wall   uint16
	Liquid uint8
}

type Liquid uint8

const (
	Water Liquid = iota
	Lava
	Honey
	Shimmer
)

// LiquidNames maps liquid kind names to kinds.
var LiquidNames = map[string]Liquid{
	"water":   Water,
	"lava":    Lava,
	"honey":   Honey,
	"shimmer": Shimmer,
}

type Coat int

const (
	CoatNone Coat = iota
	CoatFullBright
	CoatInvisible
)

// Slope kinds as used by filters: 0 flat, 1 half brick, 2..5 the stored
// slope values 1..4.
const (
	SlopeNone = 0
	SlopeHalf = 1
	MaxSlope  = 6
)

const (
	MaxPaint = 32
)

const (
	hPaintMask = 0x1f
	hActive    = 1 << 5
	hInactive  = 1 << 6
	hWire1     = 1 << 7
	hWire2     = 1 << 8
	hWire3     = 1 << 9
	hHalfBrick = 1 << 10
	hActuator  = 1 << 11
	hSlopeShft = 12
	hSlopeMask = 0x7 << hSlopeShft

	h1PaintMask = 0x1f
	h1Wire4     = 1 << 7

	h2LiquidMask = 0x3

	h3BrightBlock    = 1 << 0
	h3InvisibleBlock = 1 << 1
	h3BrightWall     = 1 << 2
	h3InvisibleWall  = 1 << 3
)

func setBit16(v *uint16, bit uint16, on bool) {
	if on {
		*v |= bit
	} else {
		*v &^= bit
	}
}

func setBit8(v *uint8, bit uint8, on bool) {
	if on {
		*v |= bit
	} else {
		*v &^= bit
	}
}

func (t Tile) Active() bool       { return t.Header&hActive != 0 }
func (t Tile) Inactive() bool     { return t.Header&hInactive != 0 }
func (t Tile) HalfBrick() bool    { return t.Header&hHalfBrick != 0 }
func (t Tile) Actuator() bool     { return t.Header&hActuator != 0 }
func (t Tile) Color() uint8       { return uint8(t.Header & hPaintMask) }
func (t Tile) WallColor() uint8   { return t.Header1 & h1PaintMask }
func (t Tile) Slope() uint8       { return uint8((t.Header & hSlopeMask) >> hSlopeShft) }
func (t Tile) LiquidKind() Liquid { return Liquid(t.Header2 & h2LiquidMask) }

func (t Tile) FullBrightBlock() bool { return t.Header3&h3BrightBlock != 0 }
func (t Tile) InvisibleBlock() bool  { return t.Header3&h3InvisibleBlock != 0 }
func (t Tile) FullBrightWall() bool  { return t.Header3&h3BrightWall != 0 }
func (t Tile) InvisibleWall() bool   { return t.Header3&h3InvisibleWall != 0 }

// Wire reports whether wire channel 1..4 is set.
func (t Tile) Wire(channel int) bool {
	switch channel {
	case 1:
		return t.Header&hWire1 != 0
	case 2:
		return t.Header&hWire2 != 0
	case 3:
		return t.Header&hWire3 != 0
	case 4:
		return t.Header1&h1Wire4 != 0
	default:
		return false
	}
}

func (t *Tile) SetActive(on bool)    { setBit16(&t.Header, hActive, on) }
func (t *Tile) SetInactive(on bool)  { setBit16(&t.Header, hInactive, on) }
func (t *Tile) SetHalfBrick(on bool) { setBit16(&t.Header, hHalfBrick, on) }
func (t *Tile) SetActuator(on bool)  { setBit16(&t.Header, hActuator, on) }

func (t *Tile) SetColor(c uint8) {
	t.Header = t.Header&^hPaintMask | uint16(c)&hPaintMask
}

func (t *Tile) SetWallColor(c uint8) {
	t.Header1 = t.Header1&^h1PaintMask | c&h1PaintMask
}

func (t *Tile) SetSlope(s uint8) {
	t.Header = t.Header&^hSlopeMask | (uint16(s)<<hSlopeShft)&hSlopeMask
}

func (t *Tile) SetLiquidKind(l Liquid) {
	t.Header2 = t.Header2&^h2LiquidMask | uint8(l)&h2LiquidMask
}

func (t *Tile) SetFullBrightBlock(on bool) { setBit8(&t.Header3, h3BrightBlock, on) }
func (t *Tile) SetInvisibleBlock(on bool)  { setBit8(&t.Header3, h3InvisibleBlock, on) }
func (t *Tile) SetFullBrightWall(on bool)  { setBit8(&t.Header3, h3BrightWall, on) }
func (t *Tile) SetInvisibleWall(on bool)   { setBit8(&t.Header3, h3InvisibleWall, on) }

func (t *Tile) SetWire(channel int, on bool) {
	switch channel {
	case 1:
		setBit16(&t.Header, hWire1, on)
	case 2:
		setBit16(&t.Header, hWire2, on)
	case 3:
		setBit16(&t.Header, hWire3, on)
	case 4:
		setBit8(&t.Header1, h1Wire4, on)
	}
}

// Place makes the tile an active block of the given type. Frames reset.
func (t *Tile) Place(typ uint16) {
	t.SetActive(true)
	t.Type = typ
	t.FrameX, t.FrameY = 0, 0
}

// Clear removes the block while keeping wall, liquid and wiring.
func (t *Tile) Clear() {
	t.SetActive(false)
	t.SetInactive(false)
	t.SetHalfBrick(false)
	t.SetSlope(0)
	t.SetColor(0)
	t.SetFullBrightBlock(false)
	t.SetInvisibleBlock(false)
	t.Type = 0
	t.FrameX, t.FrameY = 0, 0
}

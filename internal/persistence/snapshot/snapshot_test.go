package snapshot

import (
	"bufio"
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"worldedit.ai/internal/sim/tile"
)

// memWorld is a minimal World for codec tests.
type memWorld struct {
	w, h    int
	tiles   []tile.Tile
	objects []Placed
	full    map[Kind]bool
}

func newMemWorld(w, h int) *memWorld {
	return &memWorld{w: w, h: h, tiles: make([]tile.Tile, w*h), full: map[Kind]bool{}}
}

func (m *memWorld) Bounds() (int, int)            { return m.w, m.h }
func (m *memWorld) Tile(x, y int) tile.Tile       { return m.tiles[y*m.w+x] }
func (m *memWorld) SetTile(x, y int, t tile.Tile) { m.tiles[y*m.w+x] = t }

func (m *memWorld) ObjectsIn(r tile.Rect) []Placed {
	var out []Placed
	for _, o := range m.objects {
		if r.Contains(o.X, o.Y) {
			out = append(out, o)
		}
	}
	return out
}

func (m *memWorld) ClearObjects(r tile.Rect) {
	kept := m.objects[:0]
	for _, o := range m.objects {
		if !r.Contains(o.X, o.Y) {
			kept = append(kept, o)
		}
	}
	m.objects = kept
}

func (m *memWorld) PlaceObject(p Placed) bool {
	if m.full[p.Kind] {
		return false
	}
	m.objects = append(m.objects, p)
	return true
}

func randomTile(rng *rand.Rand) tile.Tile {
	var t tile.Tile
	if rng.Intn(3) > 0 {
		t.Place(uint16(rng.Intn(600)))
		t.SetColor(uint8(rng.Intn(tile.MaxPaint)))
		t.SetSlope(uint8(rng.Intn(5)))
		t.SetFullBrightBlock(rng.Intn(2) == 0)
		if t.Type%10 == 0 {
			t.FrameX = int16(rng.Intn(200))
			t.FrameY = int16(rng.Intn(200))
		}
	}
	t.Wall = uint16(rng.Intn(300))
	t.SetWallColor(uint8(rng.Intn(tile.MaxPaint)))
	t.SetWire(1+rng.Intn(4), true)
	t.SetLiquidKind(tile.Liquid(rng.Intn(4)))
	t.Liquid = uint8(rng.Intn(256))
	t.SetInvisibleWall(rng.Intn(2) == 0)
	return t
}

func tensFrameImportant(typ uint16) bool { return typ%10 == 0 }

func fullSnapshot() *Snapshot {
	rng := rand.New(rand.NewSource(42))
	s := New(100, 200, 7, 5)
	for i := range s.Tiles {
		for j := range s.Tiles[i] {
			s.Tiles[i][j] = randomTile(rng)
		}
	}
	items := []Item{{NetID: 1, Stack: 99, Prefix: 3}, {NetID: 4400, Stack: 1, Prefix: 0}}
	s.Signs = []Sign{{Position: Position{X: 1, Y: 0}, Text: "hello, world"}, {Position: Position{X: 6, Y: 4}, Text: ""}}
	s.Chests = []Chest{{Position: Position{X: 2, Y: 2}, Items: items}}
	s.ItemFrames = []DisplayItem{{Position: Position{X: 0, Y: 1}, Item: items[0]}}
	s.LogicSensors = []LogicSensor{{Position: Position{X: 3, Y: 3}, Mode: 5}}
	s.TrainingDummies = []Position{{X: 4, Y: 0}}
	s.WeaponsRacks = []DisplayItem{{Position: Position{X: 5, Y: 1}, Item: items[1]}}
	s.TeleportationPylons = []Position{{X: 6, Y: 0}}
	s.DisplayDolls = []DisplayItems{{Position: Position{X: 1, Y: 3}, Items: items, Dyes: []Item{}}}
	s.HatRacks = []DisplayItems{{Position: Position{X: 2, Y: 4}, Items: []Item{}, Dyes: items}}
	s.FoodPlatters = []DisplayItem{{Position: Position{X: 3, Y: 1}, Item: Item{NetID: 7, Stack: 1}}}
	return s
}

func TestCodecRoundTrip(t *testing.T) {
	c := Codec{FrameImportant: tensFrameImportant}
	in := fullSnapshot()

	var buf bytes.Buffer
	if err := c.Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestCodecThreeByTwoWithSign(t *testing.T) {
	s := New(10, 20, 3, 2)
	for i := range s.Tiles {
		for j := range s.Tiles[i] {
			s.Tiles[i][j].Place(2)
		}
	}
	s.Signs = append(s.Signs, Sign{Position: Position{X: 1, Y: 0}, Text: "hi"})

	var buf bytes.Buffer
	if err := (Codec{}).Encode(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := (Codec{}).Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Width != 3 || got.Height != 2 || got.X != 10 || got.Y != 20 {
		t.Fatalf("bounds: got %+v", got.Bounds())
	}
	cells := 0
	for i := range got.Tiles {
		for j := range got.Tiles[i] {
			if !got.Tiles[i][j].Active() || got.Tiles[i][j].Type != 2 {
				t.Fatalf("tile %d,%d: %+v", i, j, got.Tiles[i][j])
			}
			cells++
		}
	}
	if cells != 6 {
		t.Fatalf("expected 6 cells, got %d", cells)
	}
	if len(got.Signs) != 1 || got.Signs[0].Text != "hi" || got.Signs[0].X != 1 || got.Signs[0].Y != 0 {
		t.Fatalf("signs: %+v", got.Signs)
	}
}

func TestDecodeToleratesMissingObjectSections(t *testing.T) {
	c := Codec{FrameImportant: tensFrameImportant}
	in := fullSnapshot()

	var buf bytes.Buffer
	if err := writeHeader(&buf, in.Bounds()); err != nil {
		t.Fatalf("header: %v", err)
	}
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	bw := bufio.NewWriter(enc)
	c.writeTiles(&writer{w: bw}, in)
	if err := bw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := c.Decode(&buf)
	if err != nil {
		t.Fatalf("decode of tile-only snapshot: %v", err)
	}
	if !reflect.DeepEqual(in.Tiles, out.Tiles) {
		t.Fatalf("tiles differ")
	}
	if out.ObjectCount() != 0 || out.Signs == nil || out.FoodPlatters == nil {
		t.Fatalf("expected empty non-nil object lists, got %d objects", out.ObjectCount())
	}
}

func TestDecodeStopsAtSectionBoundary(t *testing.T) {
	in := New(0, 0, 1, 1)
	in.Signs = []Sign{{Text: "a"}}
	in.Chests = []Chest{{Items: []Item{{NetID: 2, Stack: 1}}}}
	in.ItemFrames = []DisplayItem{{Item: Item{NetID: 3}}}

	var buf bytes.Buffer
	_ = writeHeader(&buf, in.Bounds())
	enc, _ := zstd.NewWriter(&buf)
	ew := &writer{w: enc}
	(Codec{}).writeTiles(ew, in)
	// Only the first three sections, as older files were written.
	ew.i32(1)
	ew.pos(Position{})
	ew.str("a")
	ew.i32(1)
	ew.pos(Position{})
	ew.items(in.Chests[0].Items)
	ew.displayItems(in.ItemFrames)
	if ew.err != nil {
		t.Fatalf("write: %v", ew.err)
	}
	_ = enc.Close()

	out, err := (Codec{}).Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Signs) != 1 || len(out.Chests) != 1 || len(out.ItemFrames) != 1 {
		t.Fatalf("leading sections lost: %+v", out)
	}
	if len(out.LogicSensors) != 0 || len(out.HatRacks) != 0 {
		t.Fatalf("trailing sections should be empty")
	}
}

func TestDecodeCorrupt(t *testing.T) {
	in := fullSnapshot()
	var buf bytes.Buffer
	if err := (Codec{FrameImportant: tensFrameImportant}).Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	full := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"short header", full[:10]},
		{"header only", full[:headerSize]},
		{"negative width", append([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 1, 0, 0, 0}, full[headerSize:]...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (Codec{FrameImportant: tensFrameImportant}).Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestAreaLimit(t *testing.T) {
	if err := (Codec{}).Encode(&bytes.Buffer{}, &Snapshot{Width: 9000, Height: 9000}); err == nil {
		t.Fatalf("expected encode of 9000x9000 to fail")
	}

	var hdr bytes.Buffer
	_ = writeHeader(&hdr, tile.Rect{W: 8192, H: 8192})
	if _, err := ReadBounds(&hdr); err != nil {
		t.Fatalf("8192x8192 header should be accepted: %v", err)
	}
	hdr.Reset()
	_ = writeHeader(&hdr, tile.Rect{W: 8192, H: 8193})
	if _, err := ReadBounds(&hdr); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt above MaxArea, got %v", err)
	}
}

func TestDecodePartialSectionIsCorrupt(t *testing.T) {
	in := New(0, 0, 1, 1)
	var buf bytes.Buffer
	_ = writeHeader(&buf, in.Bounds())
	enc, _ := zstd.NewWriter(&buf)
	ew := &writer{w: enc}
	(Codec{}).writeTiles(ew, in)
	ew.i32(2) // two signs announced, one written
	ew.pos(Position{X: 0, Y: 0})
	ew.str("only one")
	_ = enc.Close()

	_, err := (Codec{}).Decode(&buf)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLegacyFormatDropsCoatings(t *testing.T) {
	in := New(0, 0, 2, 1)
	in.Tiles[0][0].Place(5)
	in.Tiles[0][0].SetFullBrightBlock(true)
	in.Tiles[1][0].Wall = 9
	in.Tiles[1][0].SetInvisibleWall(true)

	c := Codec{Format: FormatLegacy}
	var buf bytes.Buffer
	if err := c.Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := c.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Tiles[0][0].Type != 5 || out.Tiles[0][0].FullBrightBlock() {
		t.Fatalf("legacy tile 0: %+v", out.Tiles[0][0])
	}
	if out.Tiles[1][0].Wall != 9 || out.Tiles[1][0].InvisibleWall() {
		t.Fatalf("legacy tile 1: %+v", out.Tiles[1][0])
	}
}

func TestCaptureApplyRoundTrip(t *testing.T) {
	w := newMemWorld(8, 8)
	w.tiles[2*8+3].Place(11)
	w.objects = []Placed{
		{Kind: KindSign, X: 3, Y: 2, Payload: Payload{Text: "keep"}},
		{Kind: KindChest, X: 7, Y: 7, Payload: Payload{Items: []Item{{NetID: 1, Stack: 2}}}},
	}

	s := Capture(w, tile.Rect{X: 2, Y: 1, W: 3, H: 3})
	if len(s.Signs) != 1 || s.Signs[0].X != 1 || s.Signs[0].Y != 1 {
		t.Fatalf("sign not captured relative to origin: %+v", s.Signs)
	}
	if len(s.Chests) != 0 {
		t.Fatalf("chest outside rect captured")
	}

	w.tiles[2*8+3] = tile.Tile{}
	w.objects = append(w.objects, Placed{Kind: KindLogicSensor, X: 2, Y: 1})

	placed := Restore(w, s)
	if placed != 1 {
		t.Fatalf("placed %d objects, want 1", placed)
	}
	if got := w.Tile(3, 2); !got.Active() || got.Type != 11 {
		t.Fatalf("tile not restored: %+v", got)
	}
	kinds := map[Kind]int{}
	for _, o := range w.objects {
		kinds[o.Kind]++
	}
	if kinds[KindLogicSensor] != 0 || kinds[KindSign] != 1 || kinds[KindChest] != 1 {
		t.Fatalf("objects after restore: %+v", w.objects)
	}
}

func TestApplySkipsOutOfBoundsAndFailedPlacements(t *testing.T) {
	s := New(0, 0, 3, 3)
	for i := range s.Tiles {
		for j := range s.Tiles[i] {
			s.Tiles[i][j].Place(1)
		}
	}
	s.Signs = []Sign{{Position: Position{X: 0, Y: 0}, Text: "in"}, {Position: Position{X: 2, Y: 2}, Text: "out"}}
	s.Chests = []Chest{{Position: Position{X: 0, Y: 1}, Items: []Item{}}}

	w := newMemWorld(4, 4)
	w.full[KindChest] = true
	placed := Apply(w, s, 2, 2)

	if placed != 1 {
		t.Fatalf("placed %d, want 1 (one sign out of bounds, chest slot full)", placed)
	}
	if !w.Tile(3, 3).Active() || w.Tile(1, 1).Active() {
		t.Fatalf("unexpected tile writes")
	}
}

func TestWriteFileAndReadBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "undo-w-a-1.dat")
	s := fullSnapshot()
	c := Codec{FrameImportant: tensFrameImportant}
	if err := c.WriteFile(path, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := ReadBoundsFile(path)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	if b != s.Bounds() {
		t.Fatalf("bounds: got %+v want %+v", b, s.Bounds())
	}
	got, err := c.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(s, got) {
		t.Fatalf("file round trip mismatch")
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp-*"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

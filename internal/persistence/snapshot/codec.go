package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"worldedit.ai/internal/sim/tile"
)

// ErrCorrupt marks a snapshot whose header or mandatory tile block cannot be
// decoded.
var ErrCorrupt = errors.New("snapshot corrupt")

// Format selects the per-tile record layout.
type Format int

const (
	// FormatLegacy tiles carry three header bytes (no coating byte).
	FormatLegacy Format = 1
	// FormatCurrent tiles carry all four header bytes.
	FormatCurrent Format = 2
)

const (
	headerSize = 16
	bufSize    = 256 * 1024

	maxCount     = 1 << 20
	maxItems     = 1 << 12
	maxTextBytes = 1 << 16
)

// MaxArea is the largest tile count a snapshot may declare. Full-world saves
// are bound by it too.
const MaxArea = 1 << 26

// Codec reads and writes the binary snapshot format: a little-endian header
// (x, y, width, height as int32) followed by a zstd stream with the tile
// array in column-major order and the placed-object sections.
type Codec struct {
	Format Format
	// FrameImportant reports tile types that store frame offsets. Nil means none.
	FrameImportant func(typ uint16) bool
}

func (c Codec) format() Format {
	if c.Format == 0 {
		return FormatCurrent
	}
	return c.Format
}

func (c Codec) frameImportant(typ uint16) bool {
	return c.FrameImportant != nil && c.FrameImportant(typ)
}

func (c Codec) Encode(w io.Writer, s *Snapshot) error {
	if err := checkShape(s); err != nil {
		return err
	}
	if err := writeHeader(w, s.Bounds()); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, bufSize)
	ew := &writer{w: bw}
	c.writeTiles(ew, s)
	writeObjects(ew, s)
	if ew.err != nil {
		_ = enc.Close()
		return ew.err
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (c Codec) Decode(r io.Reader) (*Snapshot, error) {
	bounds, err := ReadBounds(r)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	rd := &reader{r: bufio.NewReaderSize(dec, bufSize)}
	s := New(bounds.X, bounds.Y, bounds.W, bounds.H)
	for i := 0; i < s.Width; i++ {
		for j := 0; j < s.Height; j++ {
			s.Tiles[i][j] = c.readTile(rd)
		}
	}
	if rd.err != nil {
		return nil, fmt.Errorf("%w: tile block: %v", ErrCorrupt, rd.err)
	}
	if err := readObjects(rd, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadBounds reads only the uncompressed header.
func ReadBounds(r io.Reader) (tile.Rect, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return tile.Rect{}, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	b := tile.Rect{
		X: int(int32(binary.LittleEndian.Uint32(hdr[0:]))),
		Y: int(int32(binary.LittleEndian.Uint32(hdr[4:]))),
		W: int(int32(binary.LittleEndian.Uint32(hdr[8:]))),
		H: int(int32(binary.LittleEndian.Uint32(hdr[12:]))),
	}
	if b.W < 0 || b.H < 0 || int64(b.W)*int64(b.H) > MaxArea {
		return tile.Rect{}, fmt.Errorf("%w: bad dimensions %dx%d", ErrCorrupt, b.W, b.H)
	}
	return b, nil
}

func writeHeader(w io.Writer, b tile.Rect) error {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(int32(b.X)))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(int32(b.Y)))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(int32(b.W)))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(int32(b.H)))
	_, err := w.Write(hdr[:])
	return err
}

func checkShape(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("nil snapshot")
	}
	if s.Width < 0 || s.Height < 0 || int64(s.Width)*int64(s.Height) > MaxArea {
		return fmt.Errorf("snapshot dimensions %dx%d out of range", s.Width, s.Height)
	}
	if s.X < math.MinInt32 || s.X > math.MaxInt32 || s.Y < math.MinInt32 || s.Y > math.MaxInt32 {
		return fmt.Errorf("snapshot origin %d,%d out of range", s.X, s.Y)
	}
	if len(s.Tiles) != s.Width {
		return fmt.Errorf("snapshot tile columns: got %d want %d", len(s.Tiles), s.Width)
	}
	for i, col := range s.Tiles {
		if len(col) != s.Height {
			return fmt.Errorf("snapshot tile column %d: got %d rows want %d", i, len(col), s.Height)
		}
	}
	return nil
}

func (c Codec) writeTiles(w *writer, s *Snapshot) {
	legacy := c.format() == FormatLegacy
	for i := 0; i < s.Width; i++ {
		for j := 0; j < s.Height; j++ {
			t := s.Tiles[i][j]
			w.u16(t.Header)
			w.u8(t.Header1)
			w.u8(t.Header2)
			if !legacy {
				w.u8(t.Header3)
			}
			if t.Active() {
				w.u16(t.Type)
				if c.frameImportant(t.Type) {
					w.i16(t.FrameX)
					w.i16(t.FrameY)
				}
			}
			w.u16(t.Wall)
			w.u8(t.Liquid)
		}
	}
}

func (c Codec) readTile(r *reader) tile.Tile {
	var t tile.Tile
	t.Header = r.u16()
	t.Header1 = r.u8()
	t.Header2 = r.u8()
	if c.format() != FormatLegacy {
		t.Header3 = r.u8()
	}
	if t.Active() {
		t.Type = r.u16()
		if c.frameImportant(t.Type) {
			t.FrameX = r.i16()
			t.FrameY = r.i16()
		}
	}
	t.Wall = r.u16()
	t.Liquid = r.u8()
	return t
}

type writer struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
	err error
}

func (w *writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) u8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:], v)
	w.write(w.buf[:2])
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) i32(v int32) {
	binary.LittleEndian.PutUint32(w.buf[:], uint32(v))
	w.write(w.buf[:4])
}

// str writes a 7-bit varint byte length followed by UTF-8 bytes.
func (w *writer) str(s string) {
	n := binary.PutUvarint(w.buf[:], uint64(len(s)))
	w.write(w.buf[:n])
	w.write([]byte(s))
}

type reader struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func (r *reader) read(n int) []byte {
	if r.err != nil {
		return r.buf[:n]
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		r.err = err
	}
	return r.buf[:n]
}

func (r *reader) u8() uint8 { return r.read(1)[0] }

func (r *reader) u16() uint16 { return binary.LittleEndian.Uint16(r.read(2)) }

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) i32() int32 { return int32(binary.LittleEndian.Uint32(r.read(4))) }

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	n, err := binary.ReadUvarint(r.r)
	if err != nil {
		r.err = err
		return ""
	}
	if n > maxTextBytes {
		r.err = fmt.Errorf("string length %d too large", n)
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = err
		return ""
	}
	return string(b)
}

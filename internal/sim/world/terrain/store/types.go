package store

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/tile"
	genpkg "worldedit.ai/internal/sim/world/terrain/gen"
)

const (
	ChunkSize = 16
	// MaxDim keeps every coordinate inside the 16-bit signed range.
	MaxDim = 32767
)

type ChunkKey struct {
	CX int
	CY int
}

type Chunk struct {
	CX, CY int
	Tiles  []tile.Tile // len = ChunkSize*ChunkSize, row-major

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y int) int {
	return x + y*ChunkSize
}

func (c *Chunk) Get(x, y int) tile.Tile {
	return c.Tiles[c.index(x, y)]
}

func (c *Chunk) Set(x, y int, t tile.Tile) {
	i := c.index(x, y)
	if c.Tiles[i] == t {
		return
	}
	c.Tiles[i] = t
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [tileBytes]byte
		for _, t := range c.Tiles {
			putTile(tmp[:], t)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

const tileBytes = 15

func putTile(b []byte, t tile.Tile) {
	binary.LittleEndian.PutUint16(b[0:], t.Header)
	b[2] = t.Header1
	b[3] = t.Header2
	b[4] = t.Header3
	binary.LittleEndian.PutUint16(b[5:], t.Type)
	binary.LittleEndian.PutUint16(b[7:], uint16(t.FrameX))
	binary.LittleEndian.PutUint16(b[9:], uint16(t.FrameY))
	binary.LittleEndian.PutUint16(b[11:], t.Wall)
	b[13] = t.Liquid
	b[14] = 0
}

// Limits caps how many objects of each kind the store accepts. A missing
// kind is unlimited.
type Limits map[snapshot.Kind]int

type objectKey struct {
	kind snapshot.Kind
	x, y int
}

// ChunkStore is a bounded side-view tile world. Chunks are generated on
// first access.
type ChunkStore struct {
	Width  int
	Height int
	Gen    genpkg.Params
	Chunks map[ChunkKey]*Chunk

	limits  Limits
	objects map[objectKey]snapshot.Payload
	counts  map[snapshot.Kind]int
}

func NewChunkStore(width, height int, gen genpkg.Params, limits Limits) (*ChunkStore, error) {
	if width <= 0 || height <= 0 || width > MaxDim || height > MaxDim {
		return nil, fmt.Errorf("world size %dx%d out of range (1..%d)", width, height, MaxDim)
	}
	return &ChunkStore{
		Width:   width,
		Height:  height,
		Gen:     gen,
		Chunks:  map[ChunkKey]*Chunk{},
		limits:  limits,
		objects: map[objectKey]snapshot.Payload{},
		counts:  map[snapshot.Kind]int{},
	}, nil
}

package store

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"worldedit.ai/internal/sim/tile"
)

func (s *ChunkStore) Bounds() (int, int) {
	return s.Width, s.Height
}

func (s *ChunkStore) InBounds(x, y int) bool {
	return tile.InBounds(x, y, s.Width, s.Height)
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
	return keys
}

// Tile returns the zero tile outside the world.
func (s *ChunkStore) Tile(x, y int) tile.Tile {
	if !s.InBounds(x, y) {
		return tile.Tile{}
	}
	ch := s.GetOrGenChunk(x/ChunkSize, y/ChunkSize)
	return ch.Get(x%ChunkSize, y%ChunkSize)
}

// SetTile ignores coordinates outside the world.
func (s *ChunkStore) SetTile(x, y int, t tile.Tile) {
	if !s.InBounds(x, y) {
		return
	}
	ch := s.GetOrGenChunk(x/ChunkSize, y/ChunkSize)
	ch.Set(x%ChunkSize, y%ChunkSize, t)
}

func (s *ChunkStore) GetOrGenChunk(cx, cy int) *Chunk {
	k := ChunkKey{CX: cx, CY: cy}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:    cx,
		CY:    cy,
		Tiles: make([]tile.Tile, ChunkSize*ChunkSize),
	}
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}

// GenerateChunk fills ch from the generator. Cells past the world edge stay zero.
func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			wx, wy := ch.CX*ChunkSize+x, ch.CY*ChunkSize+y
			if !s.InBounds(wx, wy) {
				continue
			}
			ch.Tiles[ch.index(x, y)] = s.Gen.TileAt(wx, wy)
		}
	}
}

// RegionDigest hashes every tile and placed object inside r (clamped to the
// world). Two regions with equal digests are equal bit for bit.
func (s *ChunkStore) RegionDigest(r tile.Rect) [32]byte {
	r = r.Clamp(s.Width, s.Height)
	h := sha256.New()
	var tmp [tileBytes]byte
	binary.LittleEndian.PutUint32(tmp[0:], uint32(r.X))
	binary.LittleEndian.PutUint32(tmp[4:], uint32(r.Y))
	binary.LittleEndian.PutUint32(tmp[8:], uint32(r.W)<<16|uint32(r.H))
	h.Write(tmp[:12])
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			putTile(tmp[:], s.Tile(x, y))
			h.Write(tmp[:])
		}
	}
	for _, o := range s.ObjectsIn(r) {
		writeObject(h, o)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Digest hashes the loaded chunks in key order.
func (s *ChunkStore) Digest() [32]byte {
	h := sha256.New()
	for _, k := range s.LoadedChunkKeys() {
		d := s.Chunks[k].Digest()
		h.Write(d[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// WorldRect covers the whole world.
func (s *ChunkStore) WorldRect() tile.Rect {
	return tile.Rect{W: s.Width, H: s.Height}
}


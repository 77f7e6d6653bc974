package store

import (
	"encoding/binary"
	"hash"
	"sort"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/tile"
)

// ObjectsIn lists the placed objects inside r ordered by kind, then row, then column.
func (s *ChunkStore) ObjectsIn(r tile.Rect) []snapshot.Placed {
	var out []snapshot.Placed
	for k, pl := range s.objects {
		if r.Contains(k.x, k.y) {
			out = append(out, snapshot.Placed{Kind: k.kind, X: k.x, Y: k.y, Payload: pl})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

func (s *ChunkStore) ClearObjects(r tile.Rect) {
	for k := range s.objects {
		if r.Contains(k.x, k.y) {
			delete(s.objects, k)
			s.counts[k.kind]--
		}
	}
}

// PlaceObject fails when the position is outside the world, already holds an
// object of the same kind, or the kind is at its limit.
func (s *ChunkStore) PlaceObject(p snapshot.Placed) bool {
	if !s.InBounds(p.X, p.Y) {
		return false
	}
	k := objectKey{kind: p.Kind, x: p.X, y: p.Y}
	if _, ok := s.objects[k]; ok {
		return false
	}
	if max, ok := s.limits[p.Kind]; ok && s.counts[p.Kind] >= max {
		return false
	}
	s.objects[k] = p.Payload
	s.counts[p.Kind]++
	return true
}

func (s *ChunkStore) ObjectCount(kind snapshot.Kind) int {
	return s.counts[kind]
}

func writeObject(h hash.Hash, o snapshot.Placed) {
	var tmp [13]byte
	tmp[0] = byte(o.Kind)
	binary.LittleEndian.PutUint32(tmp[1:], uint32(o.X))
	binary.LittleEndian.PutUint32(tmp[5:], uint32(o.Y))
	binary.LittleEndian.PutUint32(tmp[9:], uint32(o.Payload.Mode))
	h.Write(tmp[:])
	h.Write([]byte(o.Payload.Text))
	h.Write([]byte{0})
	writeItems(h, []snapshot.Item{o.Payload.Item})
	writeItems(h, o.Payload.Items)
	writeItems(h, o.Payload.Dyes)
}

func writeItems(h hash.Hash, items []snapshot.Item) {
	var tmp [9]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(items)))
	h.Write(tmp[:4])
	for _, it := range items {
		binary.LittleEndian.PutUint32(tmp[0:], uint32(it.NetID))
		binary.LittleEndian.PutUint32(tmp[4:], uint32(it.Stack))
		tmp[8] = it.Prefix
		h.Write(tmp[:])
	}
}

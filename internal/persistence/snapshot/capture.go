package snapshot

import "worldedit.ai/internal/sim/tile"

// Capture copies the part of r that lies inside the world. The returned
// snapshot's bounds are the clamped rectangle.
func Capture(w World, r tile.Rect) *Snapshot {
	width, height := w.Bounds()
	r = r.Clamp(width, height)
	s := New(r.X, r.Y, r.W, r.H)
	for i := 0; i < r.W; i++ {
		for j := 0; j < r.H; j++ {
			s.Tiles[i][j] = w.Tile(r.X+i, r.Y+j)
		}
	}
	if r.Empty() {
		return s
	}
	for _, p := range w.ObjectsIn(r) {
		s.add(p)
	}
	return s
}

func (s *Snapshot) add(p Placed) {
	pos := Position{X: int32(p.X - s.X), Y: int32(p.Y - s.Y)}
	pl := p.Payload
	switch p.Kind {
	case KindSign:
		s.Signs = append(s.Signs, Sign{Position: pos, Text: pl.Text})
	case KindChest:
		s.Chests = append(s.Chests, Chest{Position: pos, Items: cloneItems(pl.Items)})
	case KindItemFrame:
		s.ItemFrames = append(s.ItemFrames, DisplayItem{Position: pos, Item: pl.Item})
	case KindLogicSensor:
		s.LogicSensors = append(s.LogicSensors, LogicSensor{Position: pos, Mode: pl.Mode})
	case KindTrainingDummy:
		s.TrainingDummies = append(s.TrainingDummies, pos)
	case KindWeaponsRack:
		s.WeaponsRacks = append(s.WeaponsRacks, DisplayItem{Position: pos, Item: pl.Item})
	case KindTeleportationPylon:
		s.TeleportationPylons = append(s.TeleportationPylons, pos)
	case KindDisplayDoll:
		s.DisplayDolls = append(s.DisplayDolls, DisplayItems{Position: pos, Items: cloneItems(pl.Items), Dyes: cloneItems(pl.Dyes)})
	case KindHatRack:
		s.HatRacks = append(s.HatRacks, DisplayItems{Position: pos, Items: cloneItems(pl.Items), Dyes: cloneItems(pl.Dyes)})
	case KindFoodPlatter:
		s.FoodPlatters = append(s.FoodPlatters, DisplayItem{Position: pos, Item: pl.Item})
	}
}

// Placed lists the snapshot's objects at absolute positions for an origin of (x, y).
func (s *Snapshot) Placed(x, y int) []Placed {
	out := make([]Placed, 0, s.ObjectCount())
	at := func(k Kind, p Position, pl Payload) {
		out = append(out, Placed{Kind: k, X: x + int(p.X), Y: y + int(p.Y), Payload: pl})
	}
	for _, v := range s.Signs {
		at(KindSign, v.Position, Payload{Text: v.Text})
	}
	for _, v := range s.ItemFrames {
		at(KindItemFrame, v.Position, Payload{Item: v.Item})
	}
	for _, v := range s.Chests {
		at(KindChest, v.Position, Payload{Items: cloneItems(v.Items)})
	}
	for _, v := range s.LogicSensors {
		at(KindLogicSensor, v.Position, Payload{Mode: v.Mode})
	}
	for _, v := range s.TrainingDummies {
		at(KindTrainingDummy, v, Payload{})
	}
	for _, v := range s.WeaponsRacks {
		at(KindWeaponsRack, v.Position, Payload{Item: v.Item})
	}
	for _, v := range s.TeleportationPylons {
		at(KindTeleportationPylon, v, Payload{})
	}
	for _, v := range s.DisplayDolls {
		at(KindDisplayDoll, v.Position, Payload{Items: cloneItems(v.Items), Dyes: cloneItems(v.Dyes)})
	}
	for _, v := range s.HatRacks {
		at(KindHatRack, v.Position, Payload{Items: cloneItems(v.Items), Dyes: cloneItems(v.Dyes)})
	}
	for _, v := range s.FoodPlatters {
		at(KindFoodPlatter, v.Position, Payload{Item: v.Item})
	}
	return out
}

// Apply writes the snapshot with its origin at (x, y). Cells outside the
// world are skipped. Every existing object in the destination rectangle is
// removed before the captured objects are placed; objects that cannot be
// placed are skipped. It returns the number of objects placed.
func Apply(w World, s *Snapshot, x, y int) int {
	width, height := w.Bounds()
	for i := 0; i < s.Width; i++ {
		for j := 0; j < s.Height; j++ {
			tx, ty := x+i, y+j
			if !tile.InBounds(tx, ty, width, height) {
				continue
			}
			w.SetTile(tx, ty, s.Tiles[i][j])
		}
	}

	dst := tile.Rect{X: x, Y: y, W: s.Width, H: s.Height}.Clamp(width, height)
	if !dst.Empty() {
		w.ClearObjects(dst)
	}

	placed := 0
	for _, p := range s.Placed(x, y) {
		if !tile.InBounds(p.X, p.Y, width, height) {
			continue
		}
		if w.PlaceObject(p) {
			placed++
		}
	}
	return placed
}

// Restore applies the snapshot at the position it was captured from.
func Restore(w World, s *Snapshot) int {
	return Apply(w, s, s.X, s.Y)
}

func cloneItems(in []Item) []Item {
	out := make([]Item, len(in))
	copy(out, in)
	return out
}

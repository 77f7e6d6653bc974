package snapshot

import (
	"errors"
	"fmt"
	"io"
)

func writeObjects(w *writer, s *Snapshot) {
	w.i32(int32(len(s.Signs)))
	for _, v := range s.Signs {
		w.pos(v.Position)
		w.str(v.Text)
	}
	w.i32(int32(len(s.Chests)))
	for _, v := range s.Chests {
		w.pos(v.Position)
		w.items(v.Items)
	}
	w.displayItems(s.ItemFrames)
	w.i32(int32(len(s.LogicSensors)))
	for _, v := range s.LogicSensors {
		w.pos(v.Position)
		w.i32(v.Mode)
	}
	w.positions(s.TrainingDummies)
	w.displayItems(s.WeaponsRacks)
	w.positions(s.TeleportationPylons)
	w.multiItems(s.DisplayDolls)
	w.multiItems(s.HatRacks)
	w.displayItems(s.FoodPlatters)
}

func (w *writer) pos(p Position) {
	w.i32(p.X)
	w.i32(p.Y)
}

func (w *writer) item(it Item) {
	w.i32(it.NetID)
	w.i32(it.Stack)
	w.u8(it.Prefix)
}

func (w *writer) items(items []Item) {
	w.i32(int32(len(items)))
	for _, it := range items {
		w.item(it)
	}
}

func (w *writer) positions(list []Position) {
	w.i32(int32(len(list)))
	for _, p := range list {
		w.pos(p)
	}
}

func (w *writer) displayItems(list []DisplayItem) {
	w.i32(int32(len(list)))
	for _, v := range list {
		w.pos(v.Position)
		w.item(v.Item)
	}
}

func (w *writer) multiItems(list []DisplayItems) {
	w.i32(int32(len(list)))
	for _, v := range list {
		w.pos(v.Position)
		w.items(v.Items)
		w.items(v.Dyes)
	}
}

// readObjects reads the object sections in file order. Files written before a
// category existed simply end early; a clean end of data where a section
// count is expected leaves that section and all following ones empty.
func readObjects(r *reader, s *Snapshot) error {
	sections := []struct {
		name string
		read func(n int)
	}{
		{"signs", func(n int) {
			s.Signs = make([]Sign, n)
			for i := range s.Signs {
				s.Signs[i] = Sign{Position: r.pos(), Text: r.str()}
			}
		}},
		{"chests", func(n int) {
			s.Chests = make([]Chest, n)
			for i := range s.Chests {
				s.Chests[i] = Chest{Position: r.pos(), Items: r.items()}
			}
		}},
		{"item frames", func(n int) { s.ItemFrames = r.displayItems(n) }},
		{"logic sensors", func(n int) {
			s.LogicSensors = make([]LogicSensor, n)
			for i := range s.LogicSensors {
				s.LogicSensors[i] = LogicSensor{Position: r.pos(), Mode: r.i32()}
			}
		}},
		{"training dummies", func(n int) { s.TrainingDummies = r.positions(n) }},
		{"weapons racks", func(n int) { s.WeaponsRacks = r.displayItems(n) }},
		{"teleportation pylons", func(n int) { s.TeleportationPylons = r.positions(n) }},
		{"display dolls", func(n int) { s.DisplayDolls = r.multiItems(n) }},
		{"hat racks", func(n int) { s.HatRacks = r.multiItems(n) }},
		{"food platters", func(n int) { s.FoodPlatters = r.displayItems(n) }},
	}

	for _, sec := range sections {
		n, ok := r.count(maxCount)
		if r.err != nil {
			return fmt.Errorf("%w: %s count: %v", ErrCorrupt, sec.name, r.err)
		}
		if !ok {
			return nil
		}
		sec.read(n)
		if r.err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCorrupt, sec.name, r.err)
		}
	}
	return nil
}

// count reads a section or array length. ok is false only when the stream
// ended cleanly before the first byte of the count.
func (r *reader) count(limit int) (n int, ok bool) {
	if r.err != nil {
		return 0, false
	}
	if _, err := io.ReadFull(r.r, r.buf[:4]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, false
		}
		r.err = err
		return 0, false
	}
	v := int32(uint32(r.buf[0]) | uint32(r.buf[1])<<8 | uint32(r.buf[2])<<16 | uint32(r.buf[3])<<24)
	if v < 0 || int(v) > limit {
		r.err = fmt.Errorf("count %d out of range", v)
		return 0, false
	}
	return int(v), true
}

func (r *reader) pos() Position {
	return Position{X: r.i32(), Y: r.i32()}
}

func (r *reader) item() Item {
	return Item{NetID: r.i32(), Stack: r.i32(), Prefix: r.u8()}
}

func (r *reader) items() []Item {
	n, ok := r.count(maxItems)
	if !ok {
		if r.err == nil {
			r.err = io.ErrUnexpectedEOF
		}
		return []Item{}
	}
	out := make([]Item, n)
	for i := range out {
		out[i] = r.item()
	}
	return out
}

func (r *reader) positions(n int) []Position {
	out := make([]Position, n)
	for i := range out {
		out[i] = r.pos()
	}
	return out
}

func (r *reader) displayItems(n int) []DisplayItem {
	out := make([]DisplayItem, n)
	for i := range out {
		out[i] = DisplayItem{Position: r.pos(), Item: r.item()}
	}
	return out
}

func (r *reader) multiItems(n int) []DisplayItems {
	out := make([]DisplayItems, n)
	for i := range out {
		out[i] = DisplayItems{Position: r.pos(), Items: r.items(), Dyes: r.items()}
	}
	return out
}

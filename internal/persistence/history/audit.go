package history

import (
	"errors"
	"time"

	"worldedit.ai/internal/sim/tile"
)

type Action string

const (
	ActionRecord Action = "RECORD"
	ActionUndo   Action = "UNDO"
	ActionRedo   Action = "REDO"
)

// AuditEntry describes one completed log step.
type AuditEntry struct {
	Time      time.Time `json:"time"`
	WorldID   string    `json:"world_id"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	UndoDepth int       `json:"undo_depth"`
	RedoDepth int       `json:"redo_depth"`
	File      string    `json:"file"`
}

func (e AuditEntry) Rect() tile.Rect {
	return tile.Rect{X: e.X, Y: e.Y, W: e.Width, H: e.Height}
}

type Auditor interface {
	WriteAudit(e AuditEntry) error
}

// MultiAuditor writes to every auditor and joins their errors.
type MultiAuditor []Auditor

func (m MultiAuditor) WriteAudit(e AuditEntry) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.WriteAudit(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package history keeps a per-actor undo/redo log of region snapshots as
// numbered files on disk.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"worldedit.ai/internal/persistence/snapshot"
	"worldedit.ai/internal/sim/tile"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

type Options struct {
	Dir     string
	WorldID string
	// Retain is the number of undo snapshots kept per actor; 0 keeps all.
	Retain   int
	Codec    snapshot.Codec
	Counters Counters
	Auditor  Auditor
	Logger   *log.Logger
	Now      func() time.Time
}

// Log is the undo/redo log of one world. Calls for the same actor must not
// overlap; the caller also owns exclusive access to the world during a call.
type Log struct {
	dir      string
	worldID  string
	retain   int
	codec    snapshot.Codec
	counters Counters
	audit    Auditor
	logger   *log.Logger
	now      func() time.Time
}

func New(opts Options) (*Log, error) {
	if !ValidID(opts.WorldID) {
		return nil, fmt.Errorf("history: invalid world id %q", opts.WorldID)
	}
	if opts.Counters == nil {
		return nil, fmt.Errorf("history: counters required")
	}
	if opts.Retain < 0 {
		return nil, fmt.Errorf("history: retain must be >= 0")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	l := &Log{
		dir:      opts.Dir,
		worldID:  opts.WorldID,
		retain:   opts.Retain,
		codec:    opts.Codec,
		counters: opts.Counters,
		audit:    opts.Auditor,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard, "", 0)
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l, nil
}

func (l *Log) WorldID() string { return l.worldID }

func (l *Log) Path(dir Direction, actorID string, depth int) string {
	return filepath.Join(l.dir, FileName(dir, l.worldID, actorID, depth))
}

// Depths returns the stored counters. They number the next files and may
// point past files that retention has already removed; Usable reports how
// many steps can actually run.
func (l *Log) Depths(ctx context.Context, actorID string) (Depths, error) {
	if !ValidID(actorID) {
		return Depths{}, fmt.Errorf("history: invalid actor id %q", actorID)
	}
	return l.counters.Load(ctx, l.worldID, actorID)
}

// Usable counts the consecutive files present below each counter, which is
// the number of undo and redo steps that would succeed.
func (l *Log) Usable(ctx context.Context, actorID string) (Depths, error) {
	d, err := l.Depths(ctx, actorID)
	if err != nil {
		return Depths{}, err
	}
	return Depths{
		Undo: l.present(DirUndo, actorID, d.Undo),
		Redo: l.present(DirRedo, actorID, d.Redo),
	}, nil
}

func (l *Log) present(dir Direction, actorID string, top int) int {
	n := 0
	for depth := top; depth > 0; depth-- {
		if _, err := os.Stat(l.Path(dir, actorID, depth)); err != nil {
			break
		}
		n++
	}
	return n
}

func (l *Log) Files(actorID string) ([]FileInfo, error) {
	return ListFiles(l.dir, l.worldID, actorID)
}

// Record snapshots r before a destructive edit. It invalidates the actor's
// redo chain and drops the undo file that falls out of the retention window.
func (l *Log) Record(ctx context.Context, w snapshot.World, actorID string, r tile.Rect) error {
	d, err := l.Depths(ctx, actorID)
	if err != nil {
		return err
	}

	snap := snapshot.Capture(w, r)
	n := d.Undo + 1
	path := l.Path(DirUndo, actorID, n)
	if err := l.codec.WriteFile(path, snap); err != nil {
		return fmt.Errorf("history: write %s: %w", filepath.Base(path), err)
	}

	next := Depths{Undo: n, Redo: 0}
	if err := l.counters.Save(ctx, l.worldID, actorID, next); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("history: save counters: %w", err)
	}

	redo, err := globDepths(l.dir, DirRedo, l.worldID, actorID)
	if err != nil {
		l.logger.Printf("list redo files of %s: %v", actorID, err)
	}
	for _, f := range redo {
		l.remove(f.Path)
	}
	if l.retain > 0 && n > l.retain {
		l.remove(l.Path(DirUndo, actorID, n-l.retain))
	}

	l.emit(ActionRecord, actorID, snap.Bounds(), next, path)
	return nil
}

// Undo steps back up to steps times. It returns how many steps completed
// and the error that stopped it, if any. ErrNothingToUndo is returned when
// the log runs out.
func (l *Log) Undo(ctx context.Context, w snapshot.World, actorID string, steps int) (int, error) {
	return l.batch(ctx, steps, func() error { return l.step(ctx, w, actorID, DirUndo) })
}

// Redo mirrors Undo.
func (l *Log) Redo(ctx context.Context, w snapshot.World, actorID string, steps int) (int, error) {
	return l.batch(ctx, steps, func() error { return l.step(ctx, w, actorID, DirRedo) })
}

func (l *Log) batch(ctx context.Context, steps int, step func() error) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	done := 0
	for done < steps {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := step(); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

// step consumes the newest file of direction from and pushes the state it
// overwrites onto the opposite direction.
func (l *Log) step(ctx context.Context, w snapshot.World, actorID string, from Direction) error {
	d, err := l.Depths(ctx, actorID)
	if err != nil {
		return err
	}

	src, dst, nothing := d.Undo, d.Redo, ErrNothingToUndo
	to, action := DirRedo, ActionUndo
	if from == DirRedo {
		src, dst, nothing = d.Redo, d.Undo, ErrNothingToRedo
		to, action = DirUndo, ActionRedo
	}
	if src <= 0 {
		return nothing
	}

	srcPath := l.Path(from, actorID, src)
	snap, err := l.codec.ReadFile(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nothing
		}
		return fmt.Errorf("history: read %s: %w", filepath.Base(srcPath), err)
	}

	current := snapshot.Capture(w, snap.Bounds())
	dstPath := l.Path(to, actorID, dst+1)
	if err := l.codec.WriteFile(dstPath, current); err != nil {
		return fmt.Errorf("history: write %s: %w", filepath.Base(dstPath), err)
	}

	snapshot.Restore(w, snap)

	next := Depths{Undo: d.Undo - 1, Redo: d.Redo + 1}
	if from == DirRedo {
		next = Depths{Undo: d.Undo + 1, Redo: d.Redo - 1}
	}
	if err := l.counters.Save(ctx, l.worldID, actorID, next); err != nil {
		return fmt.Errorf("history: save counters: %w", err)
	}
	l.remove(srcPath)

	l.emit(action, actorID, snap.Bounds(), next, srcPath)
	return nil
}

func (l *Log) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Printf("remove %s: %v", filepath.Base(path), err)
	}
}

func (l *Log) emit(action Action, actorID string, r tile.Rect, d Depths, path string) {
	if l.audit == nil {
		return
	}
	e := AuditEntry{
		Time:      l.now().UTC(),
		WorldID:   l.worldID,
		ActorID:   actorID,
		Action:    action,
		X:         r.X,
		Y:         r.Y,
		Width:     r.W,
		Height:    r.H,
		UndoDepth: d.Undo,
		RedoDepth: d.Redo,
		File:      filepath.Base(path),
	}
	if err := l.audit.WriteAudit(e); err != nil {
		l.logger.Printf("audit %s %s: %v", action, actorID, err)
	}
}

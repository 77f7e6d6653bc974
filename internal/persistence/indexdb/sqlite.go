package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"worldedit.ai/internal/persistence/history"
	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/tuning"
)

// SQLiteIndex stores actor undo/redo counters and an index of edit audits.
// Counters are read and written synchronously; audits go through a buffered
// writer goroutine and are dropped when it falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan history.AuditEntry
	wg   sync.WaitGroup
	once sync.Once

	closed    atomic.Bool
	dropAudit atomic.Uint64
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropAuditTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan history.AuditEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS counters (
			world_id TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			undo_depth INTEGER NOT NULL,
			redo_depth INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (world_id, actor_id)
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			world_id TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			undo_depth INTEGER NOT NULL,
			redo_depth INTEGER NOT NULL,
			file TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_actor ON edits(world_id, actor_id, id);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_pos ON edits(world_id, x, y);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains queued audits and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropAuditTotal: s.dropAudit.Load(),
	}
}

// Load returns zero depths for an actor that has never edited.
func (s *SQLiteIndex) Load(ctx context.Context, worldID, actorID string) (history.Depths, error) {
	var d history.Depths
	err := s.db.QueryRowContext(ctx,
		`SELECT undo_depth, redo_depth FROM counters WHERE world_id=? AND actor_id=?`,
		worldID, actorID,
	).Scan(&d.Undo, &d.Redo)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Depths{}, nil
	}
	if err != nil {
		return history.Depths{}, fmt.Errorf("load counters %s/%s: %w", worldID, actorID, err)
	}
	return d, nil
}

func (s *SQLiteIndex) Save(ctx context.Context, worldID, actorID string, d history.Depths) error {
	if d.Undo < 0 || d.Redo < 0 {
		return fmt.Errorf("save counters %s/%s: negative depth %+v", worldID, actorID, d)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO counters(world_id,actor_id,undo_depth,redo_depth,updated_at) VALUES(?,?,?,?,?)
		 ON CONFLICT(world_id,actor_id) DO UPDATE SET
		   undo_depth=excluded.undo_depth, redo_depth=excluded.redo_depth, updated_at=excluded.updated_at`,
		worldID, actorID, d.Undo, d.Redo, now,
	)
	if err != nil {
		return fmt.Errorf("save counters %s/%s: %w", worldID, actorID, err)
	}
	return nil
}

// ActorCounters is one row of the counters table.
type ActorCounters struct {
	ActorID   string
	Depths    history.Depths
	UpdatedAt string
}

func (s *SQLiteIndex) ListCounters(ctx context.Context, worldID string) ([]ActorCounters, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT actor_id, undo_depth, redo_depth, updated_at FROM counters WHERE world_id=? ORDER BY actor_id`,
		worldID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ActorCounters
	for rows.Next() {
		var c ActorCounters
		if err := rows.Scan(&c.ActorID, &c.Depths.Undo, &c.Depths.Redo, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// WriteAudit queues an entry for the edits table. It never blocks.
func (s *SQLiteIndex) WriteAudit(e history.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		// JSONL audit logs remain the source of truth.
		s.dropAudit.Add(1)
	}
	return nil
}

// RecentEdits returns up to limit audit rows for an actor, newest first.
func (s *SQLiteIndex) RecentEdits(ctx context.Context, worldID, actorID string, limit int) ([]history.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_json FROM edits WHERE world_id=? AND actor_id=? ORDER BY id DESC LIMIT ?`,
		worldID, actorID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []history.AuditEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e history.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertCatalogs records the digests of the loaded name tables and the
// tuning in effect, so later audits can be matched to their configuration.
func (s *SQLiteIndex) UpsertCatalogs(ctx context.Context, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	for cat := catalogs.Tile; cat <= catalogs.Slope; cat++ {
		t := cats.Table(cat)
		if t == nil {
			continue
		}
		b, _ := json.Marshal(map[string]any{"max_id": t.MaxID, "names": t.Index})
		rows = append(rows, kv{name: cat.String(), digest: t.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CatalogDigest returns the stored digest for name, or "" when absent.
func (s *SQLiteIndex) CatalogDigest(ctx context.Context, name string) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name=?`, name).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return d, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEdit, _ := s.db.Prepare(`INSERT INTO edits(at,world_id,actor_id,action,x,y,width,height,undo_depth,redo_depth,file,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertEdit != nil {
			_ = insertEdit.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for {
		var (
			e  history.AuditEntry
			ok bool
		)
		if tx == nil {
			e, ok = <-s.ch
		} else {
			// Commit an idle batch instead of holding the write lock open.
			select {
			case e, ok = <-s.ch:
			case <-time.After(commitMaxWait):
				commit()
				continue
			}
		}
		if !ok {
			break
		}

		begin()
		if tx == nil || insertEdit == nil {
			continue
		}
		raw, _ := json.Marshal(e)
		if _, err := tx.Stmt(insertEdit).Exec(
			e.Time.UTC().Format(time.RFC3339Nano),
			e.WorldID,
			e.ActorID,
			string(e.Action),
			e.X, e.Y, e.Width, e.Height,
			e.UndoDepth, e.RedoDepth,
			e.File,
			string(raw),
		); err != nil {
			rollback()
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

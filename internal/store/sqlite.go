package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/sweeney/compare-engine/internal/model"
)

// SQLiteStore implements Store using SQLite. The definition itself is stored
// as a JSON document; id, name and updated_at are indexed columns for
// listing.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand

	mu       sync.Mutex
	watchers []chan Change
	closed   bool
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS comparison_memories (
		id         TEXT PRIMARY KEY,
		name       TEXT,
		definition TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_comparison_memories_name ON comparison_memories(name);
	CREATE INDEX IF NOT EXISTS idx_comparison_memories_updated ON comparison_memories(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// LoadAll returns every stored definition, most recently updated first.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.ComparisonMemory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT definition FROM comparison_memories ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ComparisonMemory
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var m model.ComparisonMemory
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("decode definition: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns the definition with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.ComparisonMemory, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT definition FROM comparison_memories WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return model.ComparisonMemory{}, ErrNotFound
	}
	if err != nil {
		return model.ComparisonMemory{}, err
	}
	var m model.ComparisonMemory
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return model.ComparisonMemory{}, fmt.Errorf("decode definition: %w", err)
	}
	return m, nil
}

// Save validates and upserts the definition. Missing rule and group ids are
// assigned ULIDs before validation so errors can name the group they belong
// to.
func (s *SQLiteStore) Save(ctx context.Context, m model.ComparisonMemory) (model.ComparisonMemory, error) {
	m = m.Clone()
	if m.ID == "" {
		m.ID = s.newID()
	}
	for i := range m.Groups {
		if m.Groups[i].ID == "" {
			m.Groups[i].ID = s.newID()
		}
	}

	if errs := model.Validate(m); len(errs) > 0 {
		return model.ComparisonMemory{}, &ValidationError{Errors: errs}
	}

	doc, err := json.Marshal(m)
	if err != nil {
		return model.ComparisonMemory{}, fmt.Errorf("encode definition: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comparison_memories (id, name, definition, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			definition = excluded.definition,
			updated_at = excluded.updated_at`,
		m.ID, m.Name, string(doc), now, now)
	if err != nil {
		return model.ComparisonMemory{}, fmt.Errorf("save definition: %w", err)
	}

	s.notify(Change{Kind: ChangeSaved, ID: m.ID})
	return m, nil
}

// Delete removes the definition with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comparison_memories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.notify(Change{Kind: ChangeDeleted, ID: id})
	return nil
}

// Watch returns a buffered channel of change notifications.
func (s *SQLiteStore) Watch() <-chan Change {
	ch := make(chan Change, 16)
	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.watchers = append(s.watchers, ch)
	}
	s.mu.Unlock()
	return ch
}

func (s *SQLiteStore) notify(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- c:
		default:
			// Watcher is behind; it re-syncs on its next notification.
		}
	}
}

// Close closes every watcher channel and the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, ch := range s.watchers {
			close(ch)
		}
		s.watchers = nil
	}
	s.mu.Unlock()
	return s.db.Close()
}

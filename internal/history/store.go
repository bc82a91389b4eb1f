package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/logging"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded analysis.
type Entry struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Result    analysis.Result
}

// Store records successful analyses in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the history database at path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		claim_text TEXT NOT NULL,
		sentiment TEXT NOT NULL,
		confidence REAL NOT NULL,
		entities TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at)`); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Add records result and returns the new entry.
func (s *Store) Add(ctx context.Context, result analysis.Result) (Entry, error) {
	entities := result.Entities
	if entities == nil {
		entities = []string{}
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode entities: %w", err)
	}

	entry := Entry{
		ID:        uuid.New(),
		CreatedAt: s.now().UTC(),
		Result:    result,
	}
	entry.Result.Entities = entities

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, created_at, claim_text, sentiment, confidence, entities) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.CreatedAt.UnixNano(), result.Text, result.Sentiment, result.Confidence, string(entitiesJSON),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to insert analysis: %w", err)
	}

	logging.Debug("History entry added", zap.String("id", entry.ID.String()))
	return entry, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, created_at, claim_text, sentiment, confidence, entities FROM analyses ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns the entry with id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, claim_text, sentiment, confidence, entities FROM analyses WHERE id = ?`,
		id.String(),
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

// Latest returns the newest entry.
func (s *Store) Latest(ctx context.Context) (Entry, error) {
	entries, err := s.List(ctx, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		id           string
		createdAt    int64
		entitiesJSON string
		entry        Entry
	)
	err := sc.Scan(&id, &createdAt, &entry.Result.Text, &entry.Result.Sentiment, &entry.Result.Confidence, &entitiesJSON)
	if err != nil {
		return Entry{}, err
	}

	entry.ID, err = uuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("corrupt history id %q: %w", id, err)
	}
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(entitiesJSON), &entry.Result.Entities); err != nil {
		return Entry{}, fmt.Errorf("corrupt entities for %s: %w", id, err)
	}
	return entry, nil
}

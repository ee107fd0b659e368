// Package store persists sources, per-source checkpoints, and ingested
// documents in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mkravets/telescan/pkg/classify"
	"github.com/mkravets/telescan/pkg/source"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Source is a configured content origin. Rows are written by the admin
// surface only; the ingestion pipeline treats them as read-only.
type Source struct {
	ID        string      `db:"id"`
	Kind      source.Kind `db:"kind"`
	Address   string      `db:"address"`
	Active    bool        `db:"active"`
	CreatedAt time.Time   `db:"created_at"`
}

// Checkpoint is the per-source high-water mark of processed item IDs.
type Checkpoint struct {
	SourceID   string    `db:"source_id"`
	LastItemID int64     `db:"last_item_id"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Document is a classified, embedded item. Insert-only: the pipeline
// never mutates or deletes documents.
type Document struct {
	ID            string            `db:"id"`
	SourceID      string            `db:"source_id"`
	Category      classify.Category `db:"category"`
	Title         string            `db:"title"`
	Text          string            `db:"text"`
	PublishedAt   time.Time         `db:"published_at"`
	Embedding     []float32         `db:"-"`
	EmbeddingJSON string            `db:"embedding"`
	// Fingerprint is a simhash of the text, stored for later
	// near-duplicate analysis. Nothing queries it.
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
}

// Store is the persistence interface.
type Store interface {
	AddSource(ctx context.Context, src *Source) error
	GetSource(ctx context.Context, id string) (*Source, error)
	ListSources(ctx context.Context) ([]Source, error)
	ListActiveSources(ctx context.Context) ([]Source, error)
	SetSourceActive(ctx context.Context, id string, active bool) error

	Checkpoint(ctx context.Context, sourceID string) (int64, bool, error)
	AdvanceCheckpoint(ctx context.Context, sourceID string, itemID int64) error

	DocumentExists(ctx context.Context, sourceID, text string) (bool, error)
	InsertDocument(ctx context.Context, doc *Document) error
	CountDocumentsBySource(ctx context.Context) (map[string]int, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddSource(ctx context.Context, src *Source) error {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if src.Kind == "" || src.Address == "" {
		return fmt.Errorf("add source: kind and address required")
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (id, kind, address, active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, src.ID, src.Kind, src.Address, src.Active, src.CreatedAt)
	if err != nil {
		return fmt.Errorf("add source %s: %w", src.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSource(ctx context.Context, id string) (*Source, error) {
	var src Source
	err := s.db.GetContext(ctx, &src, "SELECT * FROM sources WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", id, err)
	}
	return &src, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := s.db.SelectContext(ctx, &sources, "SELECT * FROM sources ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

func (s *SQLiteStore) ListActiveSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	err := s.db.SelectContext(ctx, &sources,
		"SELECT * FROM sources WHERE active = 1 ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	return sources, nil
}

func (s *SQLiteStore) SetSourceActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sources SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("set source %s active: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return nil
}

// Checkpoint returns the last processed item ID for a source. The second
// return value is false when no checkpoint exists yet, meaning the
// source should be processed from the beginning.
func (s *SQLiteStore) Checkpoint(ctx context.Context, sourceID string) (int64, bool, error) {
	var cp Checkpoint
	err := s.db.GetContext(ctx, &cp,
		"SELECT * FROM checkpoints WHERE source_id = ?", sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get checkpoint %s: %w", sourceID, err)
	}
	return cp.LastItemID, true, nil
}

// AdvanceCheckpoint sets the source checkpoint to max(current, itemID).
// The max-merge makes concurrent advances commute: a stale writer can
// never move the checkpoint backwards.
func (s *SQLiteStore) AdvanceCheckpoint(ctx context.Context, sourceID string, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (source_id, last_item_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			last_item_id = MAX(checkpoints.last_item_id, excluded.last_item_id),
			updated_at = excluded.updated_at
	`, sourceID, itemID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("advance checkpoint %s: %w", sourceID, err)
	}
	return nil
}

// DocumentExists reports whether a document with identical text already
// exists for the source.
func (s *SQLiteStore) DocumentExists(ctx context.Context, sourceID, text string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM documents WHERE source_id = ? AND text = ?", sourceID, text)
	if err != nil {
		return false, fmt.Errorf("document exists %s: %w", sourceID, err)
	}
	return n > 0, nil
}

// InsertDocument writes a new document under a fresh ID. All required
// fields must be set; nothing is written otherwise.
func (s *SQLiteStore) InsertDocument(ctx context.Context, doc *Document) error {
	if doc.SourceID == "" || doc.Category == "" || doc.Title == "" || doc.Text == "" {
		return fmt.Errorf("insert document: missing required field")
	}
	if doc.PublishedAt.IsZero() {
		return fmt.Errorf("insert document: published_at required")
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("insert document: embedding required")
	}

	doc.ID = uuid.NewString()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	embJSON, err := json.Marshal(doc.Embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding: %w", err)
	}
	doc.EmbeddingJSON = string(embJSON)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_id, category, title, text, published_at, embedding, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceID, doc.Category, doc.Title, doc.Text,
		doc.PublishedAt, doc.EmbeddingJSON, doc.Fingerprint, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document for %s: %w", doc.SourceID, err)
	}
	return nil
}

func (s *SQLiteStore) CountDocumentsBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT source_id, COUNT(*) as cnt FROM documents GROUP BY source_id")
	if err != nil {
		return nil, fmt.Errorf("count documents by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[src] = cnt
	}
	return counts, rows.Err()
}

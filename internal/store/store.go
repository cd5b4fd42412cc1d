// Package store persists parsed bulletin records in SQLite.
package store

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
	_ "modernc.org/sqlite"

	"github.com/dgallion1/bteparse/internal/doctree"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document with the same content already stored")
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL UNIQUE,
	type         TEXT NOT NULL,
	reference    TEXT NOT NULL,
	iso_date     TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	record_json  TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_iso_date ON documents(iso_date);
`

// Document is a stored record plus its bookkeeping columns.
type Document struct {
	ID          string          `json:"id"`
	ContentHash string          `json:"content_hash"`
	Type        doctree.DocType `json:"type"`
	Reference   string          `json:"reference"`
	ISODate     string          `json:"isoDate"`
	SourceURL   string          `json:"sourceUrl"`
	CreatedAt   time.Time       `json:"created_at"`
	Record      *doctree.Record `json:"record,omitempty"`
}

// Store wraps the documents table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts a record under contentHash and returns the stored document.
// A second record with the same hash yields ErrDuplicate.
func (s *Store) Put(ctx context.Context, contentHash string, rec *doctree.Record) (*Document, error) {
	if rec == nil {
		return nil, fmt.Errorf("store: nil record")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("store: new id: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("store: marshal record: %w", err)
	}

	doc := &Document{
		ID:          id.String(),
		ContentHash: contentHash,
		Type:        rec.Type,
		Reference:   rec.Reference,
		ISODate:     rec.ISODate,
		SourceURL:   rec.SourceURL,
		CreatedAt:   time.Now().UTC(),
		Record:      rec,
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, content_hash, type, reference, iso_date, source_url, record_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`,
		doc.ID, doc.ContentHash, string(doc.Type), doc.Reference, doc.ISODate, doc.SourceURL,
		string(data), doc.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("store: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrDuplicate
	}
	return doc, nil
}

// Get returns the document with the given id, record included.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_hash, type, reference, iso_date, source_url, created_at, record_json
		FROM documents WHERE id = ?`, id)
	return scanDocument(row, true)
}

// FindByHash returns the document stored for contentHash, if any.
func (s *Store) FindByHash(ctx context.Context, contentHash string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_hash, type, reference, iso_date, source_url, created_at, record_json
		FROM documents WHERE content_hash = ?`, contentHash)
	return scanDocument(row, false)
}

// List returns document summaries (no record body), newest bulletin first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_hash, type, reference, iso_date, source_url, created_at, ''
		FROM documents
		ORDER BY iso_date DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Delete removes the document with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner, withRecord bool) (*Document, error) {
	var (
		doc        Document
		typ        string
		createdAt  string
		recordJSON string
	)
	err := row.Scan(&doc.ID, &doc.ContentHash, &typ, &doc.Reference, &doc.ISODate,
		&doc.SourceURL, &createdAt, &recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	doc.Type = doctree.DocType(typ)
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("store: parse created_at: %w", err)
	}
	if withRecord {
		var rec doctree.Record
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("store: unmarshal record: %w", err)
		}
		doc.Record = &rec
	}
	return &doc, nil
}

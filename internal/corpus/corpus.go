// Package corpus is the durable document store backing the vector index.
// Live-fetched documents are persisted here so later queries can resolve
// index hits without refetching.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/biomindlabs/biorag/internal/passage"
)

// Document is a corpus row: a passage plus storage bookkeeping.
type Document struct {
	ID        string
	Content   string
	Meta      passage.Metadata
	FetchedAt time.Time
}

// Store wraps a sql.DB with corpus-specific helpers.
type Store struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite corpus database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{DB: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// OpenMemory creates an in-memory corpus database (useful for testing).
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	s := &Store{DB: sqlDB, path: ":memory:"}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate runs all schema migrations.
func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    source_id TEXT NOT NULL DEFAULT '',
    source_type TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    citation_count INTEGER NOT NULL DEFAULT 0,
    impact_factor REAL NOT NULL DEFAULT 0,
    fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
CREATE INDEX IF NOT EXISTS idx_documents_source_id ON documents(source, source_id);
`

// UpsertDocuments inserts or replaces documents in one transaction.
// Existing rows with the same ID are overwritten.
func (s *Store) UpsertDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, content, source, source_id, source_type, priority, url, date, citation_count, impact_factor, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			source = excluded.source,
			source_id = excluded.source_id,
			source_type = excluded.source_type,
			priority = excluded.priority,
			url = excluded.url,
			date = excluded.date,
			citation_count = excluded.citation_count,
			impact_factor = excluded.impact_factor,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		fetchedAt := doc.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			doc.ID, doc.Content,
			doc.Meta.Source, doc.Meta.SourceID, string(doc.Meta.SourceType),
			doc.Meta.Priority, doc.Meta.URL, doc.Meta.Date,
			doc.Meta.CitationCount, doc.Meta.ImpactFactor,
			fetchedAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// GetByIDs returns the documents for the given IDs, keyed by ID. Missing
// IDs are simply absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []string) (map[string]Document, error) {
	if len(ids) == 0 {
		return map[string]Document{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.QueryContext(ctx,
		`SELECT id, content, source, source_id, source_type, priority, url, date, citation_count, impact_factor, fetched_at
		 FROM documents WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Document, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = doc
	}
	return out, rows.Err()
}

// BySource returns all documents fetched from the given source, newest
// first.
func (s *Store) BySource(ctx context.Context, source string) ([]Document, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, content, source, source_id, source_type, priority, url, date, citation_count, impact_factor, fetched_at
		 FROM documents WHERE source = ? ORDER BY fetched_at DESC`, source)
	if err != nil {
		return nil, fmt.Errorf("query documents by source: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

func scanDocument(rows *sql.Rows) (Document, error) {
	var doc Document
	var sourceType, fetchedAt string
	err := rows.Scan(&doc.ID, &doc.Content,
		&doc.Meta.Source, &doc.Meta.SourceID, &sourceType,
		&doc.Meta.Priority, &doc.Meta.URL, &doc.Meta.Date,
		&doc.Meta.CitationCount, &doc.Meta.ImpactFactor, &fetchedAt)
	if err != nil {
		return Document{}, fmt.Errorf("scan document: %w", err)
	}
	doc.Meta.SourceType = passage.SourceType(sourceType)
	if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
		doc.FetchedAt = t
	}
	return doc, nil
}

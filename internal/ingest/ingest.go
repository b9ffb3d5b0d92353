// Package ingest loads local JSONL corpus files into the document store
// and the vector index.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/biomindlabs/biorag/internal/corpus"
	"github.com/biomindlabs/biorag/internal/passage"
	"github.com/biomindlabs/biorag/internal/progress"
	"github.com/biomindlabs/biorag/internal/vectordb"
)

// Record is one JSONL line of a corpus file.
type Record struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Source        string  `json:"source"`
	SourceID      string  `json:"source_id"`
	SourceType    string  `json:"source_type"`
	ChunkID       string  `json:"chunk_id"`
	Date          string  `json:"date"`
	URL           string  `json:"url"`
	CitationCount int     `json:"citation_count"`
	ImpactFactor  float64 `json:"impact_factor"`
}

// Ingestor loads corpus files into the store and index.
type Ingestor struct {
	store    *corpus.Store
	index    vectordb.VectorStore
	reporter progress.Reporter
}

// New creates an Ingestor. reporter may be nil for silent operation.
func New(store *corpus.Store, index vectordb.VectorStore, reporter progress.Reporter) *Ingestor {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	return &Ingestor{store: store, index: index, reporter: reporter}
}

// FindFiles walks root and returns files matching the include globs and
// not matching the exclude globs. Include defaults to all .jsonl files.
func FindFiles(root string, include, exclude []string) ([]string, error) {
	if len(include) == 0 {
		include = []string{"**/*.jsonl"}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !matchesAny(rel, include) || matchesAny(rel, exclude) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// matchesAny checks relPath against the glob patterns, also matching the
// bare filename so "*.jsonl" works at any depth.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(normalized)); err == nil && matched {
			return true
		}
	}
	return false
}

// IngestFiles loads every file and upserts its records. It returns the
// number of documents ingested.
func (ing *Ingestor) IngestFiles(ctx context.Context, files []string) (int, error) {
	ing.reporter.Start(len(files), "Ingesting corpus")
	defer ing.reporter.Finish()

	total := 0
	for i, path := range files {
		docs, err := loadJSONL(path)
		if err != nil {
			return total, fmt.Errorf("loading %s: %w", path, err)
		}
		if err := ing.upsert(ctx, docs); err != nil {
			return total, fmt.Errorf("storing %s: %w", path, err)
		}
		total += len(docs)
		ing.reporter.Update(i+1, filepath.Base(path))
	}
	return total, nil
}

func (ing *Ingestor) upsert(ctx context.Context, docs []corpus.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if ing.store != nil {
		if err := ing.store.UpsertDocuments(ctx, docs); err != nil {
			return err
		}
	}
	if ing.index != nil {
		vdocs := make([]vectordb.Document, len(docs))
		for i, doc := range docs {
			vdocs[i] = vectordb.Document{ID: doc.ID, Content: doc.Content, Meta: doc.Meta}
		}
		if err := ing.index.AddDocuments(ctx, vdocs); err != nil {
			return err
		}
	}
	return nil
}

// loadJSONL parses one corpus file. Blank lines are skipped; a malformed
// line is an error since silently dropping corpus entries hides data
// problems.
func loadJSONL(path string) ([]corpus.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []corpus.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}

		doc := recordToDocument(rec)
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func recordToDocument(rec Record) corpus.Document {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	sourceType := passage.SourceType(rec.SourceType)
	if sourceType == "" {
		sourceType = passage.TypeCorpus
	}
	source := rec.Source
	if source == "" {
		source = "local_corpus"
	}
	return corpus.Document{
		ID:      id,
		Content: rec.Text,
		Meta: passage.Metadata{
			Source:        source,
			SourceID:      firstNonEmpty(rec.SourceID, id),
			SourceType:    sourceType,
			ChunkID:       rec.ChunkID,
			Date:          rec.Date,
			URL:           rec.URL,
			CitationCount: rec.CitationCount,
			ImpactFactor:  rec.ImpactFactor,
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package corpus

import (
	"context"
	"testing"
	"time"

	"github.com/biomindlabs/biorag/internal/passage"
)

func testDoc(id, content string) Document {
	return Document{
		ID:      id,
		Content: content,
		Meta: passage.Metadata{
			Source:     "pubmed_articles",
			SourceID:   "PMID:" + id,
			SourceType: passage.TypePeerReviewed,
			Priority:   passage.PriorityLive,
			Date:       "2024-03-05",
		},
	}
}

func TestUpsertAndGetByIDs(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	docs := []Document{testDoc("1", "first text"), testDoc("2", "second text")}
	if err := store.UpsertDocuments(ctx, docs); err != nil {
		t.Fatalf("UpsertDocuments: %v", err)
	}

	got, err := store.GetByIDs(ctx, []string{"1", "2", "missing"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}

	doc := got["1"]
	if doc.Content != "first text" {
		t.Errorf("content = %q", doc.Content)
	}
	if doc.Meta.Source != "pubmed_articles" || doc.Meta.SourceID != "PMID:1" {
		t.Errorf("metadata lost: %+v", doc.Meta)
	}
	if doc.Meta.SourceType != passage.TypePeerReviewed {
		t.Errorf("source type = %q", doc.Meta.SourceType)
	}
	if doc.FetchedAt.IsZero() {
		t.Error("FetchedAt not set on insert")
	}
}

func TestUpsertOverwritesExistingRow(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.UpsertDocuments(ctx, []Document{testDoc("1", "old text")}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	updated := testDoc("1", "new text")
	updated.Meta.CitationCount = 5
	if err := store.UpsertDocuments(ctx, []Document{updated}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.GetByIDs(ctx, []string{"1"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if got["1"].Content != "new text" {
		t.Errorf("content = %q, want updated text", got["1"].Content)
	}
	if got["1"].Meta.CitationCount != 5 {
		t.Errorf("citation count = %d, want 5", got["1"].Meta.CitationCount)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestBySourceOrdersNewestFirst(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	older := testDoc("1", "older")
	older.FetchedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testDoc("2", "newer")
	newer.FetchedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	other := testDoc("3", "other source")
	other.Meta.Source = "drugbank_entries"

	if err := store.UpsertDocuments(ctx, []Document{older, newer, other}); err != nil {
		t.Fatalf("UpsertDocuments: %v", err)
	}

	got, err := store.BySource(ctx, "pubmed_articles")
	if err != nil {
		t.Fatalf("BySource: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("order = [%s %s], want [2 1]", got[0].ID, got[1].ID)
	}
}

func TestGetByIDsEmpty(t *testing.T) {
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	got, err := store.GetByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d documents, want 0", len(got))
	}
}

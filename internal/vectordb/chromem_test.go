package vectordb

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/biomindlabs/biorag/internal/passage"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text. Similar texts
// produce similar vectors because shared characters contribute to the same
// positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	// Normalize
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func TestChromemStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	embedder := newMockEmbedder(64)

	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{
			ID:      "doc1",
			Content: "CAR-T cell therapy shows durable remission in B-cell lymphoma",
			Meta: passage.Metadata{
				Source:     "pubmed_articles",
				SourceID:   "PMID:100",
				SourceType: passage.TypePeerReviewed,
				Date:       "2024-03-05",
			},
		},
		{
			ID:      "doc2",
			Content: "Cellular tumor antigen p53 regulates the cell cycle",
			Meta: passage.Metadata{
				Source:   "uniprot_records",
				SourceID: "P04637",
			},
		},
		{
			ID:      "doc3",
			Content: "Aspirin irreversibly inhibits cyclooxygenase enzymes",
			Meta: passage.Metadata{
				Source:   "drugbank_entries",
				SourceID: "DB00945",
			},
		},
	}

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	if count := store.Count(); count != 3 {
		t.Errorf("Count: got %d, want 3", count)
	}

	results, err := store.Search(ctx, "lymphoma cell therapy", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Search returned no results")
	}
	if len(results) > 2 {
		t.Errorf("Search returned %d results, expected at most 2", len(results))
	}

	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
	}
}

func TestChromemStore_MetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	meta := passage.Metadata{
		Source:        "pubmed_articles",
		SourceID:      "PMID:42",
		SourceType:    passage.TypePeerReviewed,
		Date:          "2024-01-15",
		CitationCount: 12,
		ImpactFactor:  8.5,
		Priority:      passage.PriorityLive,
		URL:           "https://pubmed.ncbi.nlm.nih.gov/42/",
		Extra:         map[string]string{"journal": "Nature"},
	}

	if err := store.AddDocuments(ctx, []Document{{ID: "d1", Content: "some evidence text", Meta: meta}}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	results, err := store.Search(ctx, "some evidence text", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	got := results[0].Document.Meta
	if got.Source != meta.Source || got.SourceID != meta.SourceID || got.SourceType != meta.SourceType {
		t.Errorf("identity fields lost: %+v", got)
	}
	if got.CitationCount != 12 || got.ImpactFactor != 8.5 {
		t.Errorf("numeric fields lost: %+v", got)
	}
	if got.Extra["journal"] != "Nature" {
		t.Errorf("extra fields lost: %+v", got.Extra)
	}
}

func TestChromemStore_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{
			ID:      "f1",
			Content: "protein binding data from curated records",
			Meta:    passage.Metadata{Source: "uniprot_records", SourceID: "P1"},
		},
		{
			ID:      "f2",
			Content: "protein binding data from literature",
			Meta:    passage.Metadata{Source: "pubmed_articles", SourceID: "PMID:1"},
		},
	}

	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	source := "uniprot_records"
	results, err := store.Search(ctx, "protein binding", 10, &SearchFilter{Source: &source})
	if err != nil {
		t.Fatalf("Search with filter: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("filtered search returned no results")
	}
	for _, r := range results {
		if r.Document.Meta.Source != "uniprot_records" {
			t.Errorf("expected source uniprot_records, got %s", r.Document.Meta.Source)
		}
	}
}

func TestChromemStore_DeleteBySource(t *testing.T) {
	ctx := context.Background()
	store, err := NewChromemStore(newMockEmbedder(64))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{ID: "d1", Content: "first document content", Meta: passage.Metadata{Source: "pubmed_articles"}},
		{ID: "d2", Content: "second document content", Meta: passage.Metadata{Source: "drugbank_entries"}},
	}
	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if count := store.Count(); count != 2 {
		t.Fatalf("Count before delete: got %d, want 2", count)
	}

	if err := store.DeleteBySource(ctx, "pubmed_articles"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if count := store.Count(); count != 1 {
		t.Errorf("Count after delete: got %d, want 1", count)
	}
}

func TestChromemStore_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	dir, err := os.MkdirTemp("", "biorag-vectordb-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	embedder := newMockEmbedder(64)
	store, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	docs := []Document{
		{ID: "d1", Content: "persisted evidence text", Meta: passage.Metadata{Source: "pubmed_articles", SourceID: "PMID:7"}},
	}
	if err := store.AddDocuments(ctx, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	restored, err := NewChromemStore(embedder)
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if err := restored.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if count := restored.Count(); count != 1 {
		t.Errorf("Count after load: got %d, want 1", count)
	}
}

package passage

import "testing"

func TestTokenCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"two words", 2},
		{"  leading   and   trailing  ", 3},
		{"line\nbreaks\tand tabs", 4},
	}

	for _, tt := range tests {
		got := Passage{Content: tt.content}.TokenCount()
		if got != tt.want {
			t.Errorf("TokenCount(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		Source:        "pubmed_articles",
		SourceID:      "12345678",
		SourceType:    TypePeerReviewed,
		ChunkID:       "3",
		Date:          "2024-06-01",
		CitationCount: 42,
		ImpactFactor:  8.5,
		Priority:      PriorityLive,
		URL:           "https://pubmed.ncbi.nlm.nih.gov/12345678/",
		Extra:         map[string]string{"journal": "Nature"},
	}

	got := MetadataFromMap(meta.ToMap())

	if got.Source != meta.Source || got.SourceID != meta.SourceID {
		t.Errorf("source fields lost: got %+v", got)
	}
	if got.SourceType != TypePeerReviewed {
		t.Errorf("expected source_type peer_reviewed, got %q", got.SourceType)
	}
	if got.CitationCount != 42 {
		t.Errorf("expected citation_count 42, got %d", got.CitationCount)
	}
	if got.ImpactFactor != 8.5 {
		t.Errorf("expected impact_factor 8.5, got %f", got.ImpactFactor)
	}
	if got.Extra["journal"] != "Nature" {
		t.Errorf("expected side-table to carry journal, got %v", got.Extra)
	}
}

func TestMetadataFromMapIgnoresEmptyOptionals(t *testing.T) {
	meta := MetadataFromMap(map[string]string{
		"source":    "drugbank",
		"source_id": "DB00945",
	})
	if meta.CitationCount != 0 || meta.ImpactFactor != 0 {
		t.Errorf("expected zero optionals, got %+v", meta)
	}
	if meta.Extra != nil {
		t.Errorf("expected no side-table, got %v", meta.Extra)
	}
}

func TestLabel(t *testing.T) {
	m := Metadata{Source: "uniprot_records", SourceID: "P04637"}
	if got := m.Label(); got != "uniprot_records/P04637" {
		t.Errorf("Label() = %q", got)
	}
	m.SourceID = ""
	if got := m.Label(); got != "uniprot_records" {
		t.Errorf("Label() without id = %q", got)
	}
}

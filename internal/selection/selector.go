package selection

import (
	"github.com/biomindlabs/biorag/internal/scoring"
)

// Criteria are the knobs the selector applies, echoed back in provenance.
type Criteria struct {
	MinScoreThreshold float64 `json:"min_score_threshold"`
	MaxContextLength  int     `json:"max_context_length"`
}

// SourceRecord tracks one selected passage's contribution for provenance.
type SourceRecord struct {
	SourceID string            `json:"source_id"`
	ChunkID  string            `json:"chunk_id,omitempty"`
	Score    float64           `json:"score"`
	URL      string            `json:"url,omitempty"`
	Metadata map[string]string `json:"metadata"`
}

// Provenance records which passages made it into the context window.
type Provenance struct {
	Sources          []SourceRecord `json:"sources"`
	TotalTokens      int            `json:"total_tokens"`
	SelectedPassages int            `json:"selected_passages"`
	Criteria         Criteria       `json:"selection_criteria"`
}

// Result is the selector output: the chosen passages in descending score
// order plus the provenance block.
type Result struct {
	Selected   []scoring.ScoredPassage
	Provenance Provenance
}

// Select runs a greedy scan over passages already sorted by descending final
// score. Passages below the score threshold are skipped; the first passage
// that would overflow the token budget stops the scan entirely, even if a
// smaller passage further down would still fit. This first-fit-until-overflow
// policy is observable in which evidence gets cited and must stay as is.
func Select(scored []scoring.ScoredPassage, criteria Criteria) Result {
	result := Result{
		Provenance: Provenance{
			Sources:  []SourceRecord{},
			Criteria: criteria,
		},
	}

	total := 0
	for _, sp := range scored {
		if sp.FinalScore < criteria.MinScoreThreshold {
			continue
		}

		length := sp.TokenCount()
		if total+length > criteria.MaxContextLength {
			break
		}

		result.Selected = append(result.Selected, sp)
		result.Provenance.Sources = append(result.Provenance.Sources, newSourceRecord(sp))
		total += length
	}

	result.Provenance.TotalTokens = total
	result.Provenance.SelectedPassages = len(result.Selected)
	return result
}

// newSourceRecord builds the provenance entry for one selected passage.
// The source id and chunk id are promoted out of the metadata map; the url
// is bubbled to the top level for convenience but stays in the map too.
func newSourceRecord(sp scoring.ScoredPassage) SourceRecord {
	meta := sp.Meta.ToMap()
	delete(meta, "source_id")
	delete(meta, "chunk_id")

	return SourceRecord{
		SourceID: sp.Meta.SourceID,
		ChunkID:  sp.Meta.ChunkID,
		Score:    sp.FinalScore,
		URL:      sp.Meta.URL,
		Metadata: meta,
	}
}

package retrieval

import (
	"time"

	"github.com/biomindlabs/biorag/internal/confidence"
	"github.com/biomindlabs/biorag/internal/selection"
)

// Status is the terminal outcome of a query. Every status yields a
// displayable response; none of them is an error to the caller.
type Status string

const (
	// StatusOK is the full pipeline outcome: evidence retrieved, passages
	// selected, response generated.
	StatusOK Status = "ok"

	// StatusNoEvidence means zero documents came back from every enabled
	// source. The response is guidance text and confidence is 0.0.
	StatusNoEvidence Status = "no_evidence"

	// StatusNoRelevantPassages means documents were retrieved but none
	// scored above the selection threshold or fit the budget.
	StatusNoRelevantPassages Status = "no_relevant_passages"

	// StatusScoringUnavailable means retrieval succeeded but the embedding
	// provider failed, so passages could not be scored.
	StatusScoringUnavailable Status = "scoring_unavailable"

	// StatusGenerationFailed means the LLM call failed or returned empty
	// text after evidence was selected.
	StatusGenerationFailed Status = "generation_failed"
)

// Timings holds per-stage wall-clock durations in milliseconds.
type Timings struct {
	FetchMS    int64 `json:"fetch"`
	ScoreMS    int64 `json:"score"`
	GenerateMS int64 `json:"generate"`
	TotalMS    int64 `json:"total"`
}

// Diagnostics explains how the evidence set was assembled, mainly so a UI
// can explain empty or thin results.
type Diagnostics struct {
	IndexHits    int     `json:"index_hits"`
	LiveDocs     int     `json:"live_docs"`
	Deduplicated int     `json:"deduplicated"`
	Fetched      int     `json:"fetched"`
	Timings      Timings `json:"timings_ms"`
}

// SourceSummary is the per-source digest attached to ok results.
type SourceSummary struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Date           string  `json:"date"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ConfidenceMetrics is the caller-facing confidence block combining the
// citation-coverage signals with the detailed evaluator report.
type ConfidenceMetrics struct {
	SourceCoverage     float64            `json:"source_coverage"`
	AverageSourceScore float64            `json:"average_source_score"`
	ValidationPassed   bool               `json:"validation_passed"`
	Detailed           *confidence.Report `json:"detailed,omitempty"`
}

// Result is the single object returned per query.
type Result struct {
	QueryID    string    `json:"query_id"`
	Query      string    `json:"query"`
	Status     Status    `json:"status"`
	Response   string    `json:"response"`
	Confidence float64   `json:"confidence"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Provenance        *selection.Provenance `json:"provenance,omitempty"`
	Validation        *Validation           `json:"validation,omitempty"`
	ConfidenceMetrics *ConfidenceMetrics    `json:"confidence_metrics,omitempty"`
	SourceSummary     []SourceSummary       `json:"source_summary,omitempty"`
	Diagnostics       Diagnostics           `json:"diagnostics"`
}

// noEvidenceGuidance is returned verbatim when every source came back
// empty. It is user-facing text, not an error.
const noEvidenceGuidance = "No evidence was retrieved from the enabled sources for this question. " +
	"Try refining your query with more specific biomedical keywords (e.g., a condition, biomarker, or pathway), " +
	"or type 'help' to see example queries."

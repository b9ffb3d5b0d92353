// Package retrieval coordinates the full query pipeline: fetch evidence
// from the vector index and the live sources, score it, select a context
// window, generate a grounded response, and attach confidence and
// validation metadata.
package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/biomindlabs/biorag/internal/confidence"
	"github.com/biomindlabs/biorag/internal/corpus"
	"github.com/biomindlabs/biorag/internal/llm"
	"github.com/biomindlabs/biorag/internal/passage"
	"github.com/biomindlabs/biorag/internal/scoring"
	"github.com/biomindlabs/biorag/internal/selection"
	"github.com/biomindlabs/biorag/internal/sources"
	"github.com/biomindlabs/biorag/internal/vectordb"
)

// Config carries the per-orchestrator knobs. All values are explicit; the
// pipeline never reads ambient configuration.
type Config struct {
	// K is the number of nearest neighbors pulled from the vector index.
	K int
	// FetchLimit is the per-source result cap for live fetches.
	FetchLimit int
	// Criteria controls context selection.
	Criteria selection.Criteria
	// Model and generation parameters passed to the LLM provider.
	Model       string
	Temperature float64
	MaxTokens   int
}

// Orchestrator runs queries. It holds no per-query state; Answer may be
// called concurrently.
type Orchestrator struct {
	sources   []sources.Source
	index     vectordb.VectorStore
	store     *corpus.Store
	scorer    *scoring.Scorer
	provider  llm.Provider
	evaluator *confidence.Evaluator
	cfg       Config
}

// NewOrchestrator wires the pipeline. index and store may be nil when no
// local corpus exists; srcs may be empty when running index-only.
func NewOrchestrator(
	srcs []sources.Source,
	index vectordb.VectorStore,
	store *corpus.Store,
	scorer *scoring.Scorer,
	provider llm.Provider,
	evaluator *confidence.Evaluator,
	cfg Config,
) *Orchestrator {
	if cfg.K <= 0 {
		cfg.K = 10
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = 5
	}
	return &Orchestrator{
		sources:   srcs,
		index:     index,
		store:     store,
		scorer:    scorer,
		provider:  provider,
		evaluator: evaluator,
		cfg:       cfg,
	}
}

// Answer runs the full pipeline for one query. It always returns a
// displayable Result; pipeline failures become terminal statuses, never
// errors.
func (o *Orchestrator) Answer(ctx context.Context, query string) Result {
	start := time.Now()
	result := Result{
		QueryID:   uuid.NewString(),
		Query:     query,
		CreatedAt: start.UTC(),
	}

	merged, liveDocs, diag := o.fetch(ctx, query)
	diag.Timings.FetchMS = time.Since(start).Milliseconds()
	result.Diagnostics = diag

	if len(merged) == 0 {
		result.Status = StatusNoEvidence
		result.Response = noEvidenceGuidance
		result.Confidence = 0.0
		result.Diagnostics.Timings.TotalMS = time.Since(start).Milliseconds()
		return result
	}

	// Live documents are worth keeping regardless of how the rest of the
	// pipeline goes.
	o.persistLive(ctx, liveDocs)

	scoreStart := time.Now()
	scored, err := o.scorer.Score(ctx, query, merged)
	result.Diagnostics.Timings.ScoreMS = time.Since(scoreStart).Milliseconds()
	if err != nil {
		log.Printf("scoring failed for query %s: %v", result.QueryID, err)
		result.Status = StatusScoringUnavailable
		result.Response = fmt.Sprintf("Evidence was retrieved (%d documents) but could not be scored: embedding provider unavailable.", len(merged))
		result.Diagnostics.Timings.TotalMS = time.Since(start).Milliseconds()
		return result
	}

	sel := selection.Select(scored, o.cfg.Criteria)
	result.Provenance = &sel.Provenance
	if len(sel.Selected) == 0 {
		result.Status = StatusNoRelevantPassages
		result.Response = "No relevant passages found."
		result.Diagnostics.Timings.TotalMS = time.Since(start).Milliseconds()
		return result
	}

	genStart := time.Now()
	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Model:       o.cfg.Model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(query, sel.Selected)}},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	result.Diagnostics.Timings.GenerateMS = time.Since(genStart).Milliseconds()
	if err != nil || resp == nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			log.Printf("generation failed for query %s: %v", result.QueryID, err)
		}
		result.Status = StatusGenerationFailed
		result.Response = "The evidence was retrieved and ranked, but response generation failed. Please retry."
		result.Diagnostics.Timings.TotalMS = time.Since(start).Milliseconds()
		return result
	}

	result.Status = StatusOK
	result.Response = resp.Content
	result.Model = resp.Model

	// Confidence reflects only what the generator actually saw.
	selectedTexts := make([]string, len(sel.Selected))
	for i, sp := range sel.Selected {
		selectedTexts[i] = sp.Content
	}
	report := o.evaluator.Evaluate(ctx, resp.Content, selectedTexts)
	result.Confidence = report.ConfidencePercentage

	validation := Validate(resp.Content, sel.Provenance.Sources)
	result.Validation = &validation
	result.ConfidenceMetrics = &ConfidenceMetrics{
		SourceCoverage:     validation.SourceCoverage,
		AverageSourceScore: averageScore(sel.Provenance.Sources),
		ValidationPassed:   validation.Passed,
		Detailed:           &report,
	}
	result.SourceSummary = summarize(sel.Selected)

	result.Diagnostics.Timings.TotalMS = time.Since(start).Milliseconds()
	return result
}

// fetch assembles the candidate evidence: index hits first, then live
// source results, deduplicated by content. A failing source contributes
// zero documents and never aborts the fetch.
func (o *Orchestrator) fetch(ctx context.Context, query string) (merged []passage.Passage, liveDocs []passage.Passage, diag Diagnostics) {
	indexHits := o.searchIndex(ctx, query)
	diag.IndexHits = len(indexHits)

	perSource := make([][]passage.Passage, len(o.sources))
	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			docs, err := src.Fetch(ctx, query, o.cfg.FetchLimit)
			if err != nil {
				log.Printf("source %s failed: %v", src.Name(), err)
				return
			}
			perSource[i] = docs
		}(i, src)
	}
	wg.Wait()

	// Merge in registration order so results are deterministic regardless
	// of which fetch finished first. Index hits lead: they are vetted
	// corpus content.
	for _, docs := range perSource {
		liveDocs = append(liveDocs, docs...)
	}
	diag.LiveDocs = len(liveDocs)

	all := make([]passage.Passage, 0, len(indexHits)+len(liveDocs))
	all = append(all, indexHits...)
	all = append(all, liveDocs...)

	merged = dedupe(all)
	diag.Deduplicated = len(all) - len(merged)
	diag.Fetched = len(merged)
	return merged, liveDocs, diag
}

// searchIndex queries the vector index and resolves hits whose stored
// payload has no content through the corpus store.
func (o *Orchestrator) searchIndex(ctx context.Context, query string) []passage.Passage {
	if o.index == nil || o.index.Count() == 0 {
		return nil
	}

	hits, err := o.index.Search(ctx, query, o.cfg.K, nil)
	if err != nil {
		log.Printf("vector index search failed: %v", err)
		return nil
	}

	var unresolved []string
	for _, hit := range hits {
		if strings.TrimSpace(hit.Document.Content) == "" {
			unresolved = append(unresolved, hit.Document.ID)
		}
	}
	var resolved map[string]corpus.Document
	if len(unresolved) > 0 && o.store != nil {
		resolved, err = o.store.GetByIDs(ctx, unresolved)
		if err != nil {
			log.Printf("corpus lookup failed: %v", err)
		}
	}

	passages := make([]passage.Passage, 0, len(hits))
	for _, hit := range hits {
		content := hit.Document.Content
		meta := hit.Document.Meta
		if strings.TrimSpace(content) == "" {
			doc, ok := resolved[hit.Document.ID]
			if !ok {
				continue
			}
			content = doc.Content
			meta = doc.Meta
		}
		passages = append(passages, passage.Passage{Content: content, Meta: meta})
	}
	return passages
}

// dedupe collapses passages sharing a content key. The later occurrence
// wins the payload but keeps the earlier position, so index-first merge
// order is preserved.
func dedupe(all []passage.Passage) []passage.Passage {
	seen := make(map[string]int, len(all))
	out := make([]passage.Passage, 0, len(all))
	for _, p := range all {
		key := contentKey(p.Content)
		if idx, ok := seen[key]; ok {
			out[idx] = p
			continue
		}
		seen[key] = len(out)
		out = append(out, p)
	}
	return out
}

// contentKey derives the dedupe key from whitespace-normalized content.
func contentKey(content string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// persistLive stores live-fetched documents into the corpus and vector
// index so future queries can resolve them without refetching. Failures
// are logged, never surfaced.
func (o *Orchestrator) persistLive(ctx context.Context, liveDocs []passage.Passage) {
	if len(liveDocs) == 0 {
		return
	}

	docs := make([]corpus.Document, 0, len(liveDocs))
	vdocs := make([]vectordb.Document, 0, len(liveDocs))
	for _, p := range liveDocs {
		id := p.Meta.SourceID
		if id == "" {
			id = uuid.NewString()
		}
		docs = append(docs, corpus.Document{ID: id, Content: p.Content, Meta: p.Meta})
		vdocs = append(vdocs, vectordb.Document{ID: id, Content: p.Content, Meta: p.Meta})
	}

	if o.store != nil {
		if err := o.store.UpsertDocuments(ctx, docs); err != nil {
			log.Printf("persisting live documents failed: %v", err)
		}
	}
	if o.index != nil {
		if err := o.index.AddDocuments(ctx, vdocs); err != nil {
			log.Printf("indexing live documents failed: %v", err)
		}
	}
}

func averageScore(records []selection.SourceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += rec.Score
	}
	return sum / float64(len(records))
}

func summarize(selected []scoring.ScoredPassage) []SourceSummary {
	out := make([]SourceSummary, len(selected))
	for i, sp := range selected {
		summary := SourceSummary{
			ID:             sp.Meta.SourceID,
			Type:           string(sp.Meta.SourceType),
			Date:           sp.Meta.Date,
			RelevanceScore: sp.FinalScore,
		}
		if summary.Type == "" {
			summary.Type = "unknown"
		}
		if summary.Date == "" {
			summary.Date = "unknown"
		}
		out[i] = summary
	}
	return out
}

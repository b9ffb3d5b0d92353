package confidence

import (
	"context"
	"strings"

	"github.com/biomindlabs/biorag/internal/embeddings"
)

// Report holds the three confidence sub-scores and their weighted
// combination as a percentage.
type Report struct {
	EvidenceScore        float64 `json:"evidence_score"`
	ConsistencyScore     float64 `json:"consistency_score"`
	NoveltyScore         float64 `json:"novelty_score"`
	ConfidencePercentage float64 `json:"confidence_percentage"`
}

// ConsistencyChecker is the NLI-style capability that judges whether a set
// of evidence texts agree with each other.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context, texts []string) (bool, error)
}

// Combination weights: grounded evidence matters most, internal agreement
// next, novelty is the least reliable heuristic.
const (
	evidenceWeight    = 0.4
	consistencyWeight = 0.35
	noveltyWeight     = 0.25
)

// evidenceSaturation is the evidence count at which the quantity term
// reaches its maximum.
const evidenceSaturation = 5.0

// biomedicalIndicators is the fixed vocabulary used to grade how
// domain-specific each evidence text is.
var biomedicalIndicators = []string{
	"protein", "gene", "drug", "disease", "mechanism",
	"pathway", "target", "inhibition", "activation",
}

// knownPatterns penalize hypotheses that restate established relationships.
var knownPatterns = []string{
	"already known", "previously reported", "established", "well-documented",
	"common", "typical", "standard", "conventional",
}

// novelIndicators reward explicitly novel claims.
var novelIndicators = []string{
	"novel", "new", "unprecedented", "previously unknown", "first report",
}

// Evaluator computes a confidence report for a (hypothesis, evidence-set)
// pair. It is stateless; each call is independent.
type Evaluator struct {
	embedder embeddings.Embedder
	checker  ConsistencyChecker
}

// NewEvaluator creates an Evaluator. Either collaborator may be nil: a nil
// embedder skips the pairwise-similarity term and a nil checker behaves as
// an inconclusive agreement check.
func NewEvaluator(embedder embeddings.Embedder, checker ConsistencyChecker) *Evaluator {
	return &Evaluator{embedder: embedder, checker: checker}
}

// Evaluate scores the hypothesis against the evidence that produced it.
// All text is whitespace-normalized first; empty evidence entries are
// dropped.
func (e *Evaluator) Evaluate(ctx context.Context, hypothesis string, evidenceTexts []string) Report {
	hypothesis = normalize(hypothesis)
	evidence := make([]string, 0, len(evidenceTexts))
	for _, t := range evidenceTexts {
		if cleaned := normalize(t); cleaned != "" {
			evidence = append(evidence, cleaned)
		}
	}

	report := Report{
		EvidenceScore:    evidenceSupport(evidence),
		ConsistencyScore: e.consistency(ctx, evidence),
		NoveltyScore:     novelty(hypothesis),
	}
	report.ConfidencePercentage = 100 * (evidenceWeight*report.EvidenceScore +
		consistencyWeight*report.ConsistencyScore +
		noveltyWeight*report.NoveltyScore)
	return report
}

// evidenceSupport combines how much evidence there is with how
// domain-specific it reads.
func evidenceSupport(evidence []string) float64 {
	quantity := float64(len(evidence)) / evidenceSaturation
	if quantity > 1 {
		quantity = 1
	}

	var quality float64
	for _, text := range evidence {
		lower := strings.ToLower(text)
		found := 0
		for _, indicator := range biomedicalIndicators {
			if strings.Contains(lower, indicator) {
				found++
			}
		}
		ratio := float64(found) / float64(len(biomedicalIndicators))
		if ratio > 1 {
			ratio = 1
		}
		quality += ratio
	}
	if len(evidence) > 0 {
		quality /= float64(len(evidence))
	}

	return (quantity + quality) / 2
}

// consistency blends a binary NLI agreement signal with the average
// pairwise cosine similarity of the evidence embeddings. If embedding the
// evidence fails, the NLI term alone is used rather than failing the whole
// evaluation.
func (e *Evaluator) consistency(ctx context.Context, evidence []string) float64 {
	if len(evidence) < 2 {
		return 0.5 // not enough data to assess agreement
	}

	nliTerm := 0.5
	if e.checker != nil {
		if consistent, err := e.checker.CheckConsistency(ctx, evidence); err == nil && consistent {
			nliTerm = 1.0
		}
	}

	if e.embedder == nil {
		return nliTerm
	}
	vecs, err := e.embedder.Embed(ctx, evidence)
	if err != nil || len(vecs) != len(evidence) {
		return nliTerm
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(vecs); i++ {
		for j := i + 1; j < len(vecs); j++ {
			sum += embeddings.Cosine(vecs[i], vecs[j])
			pairs++
		}
	}
	avg := 0.0
	if pairs > 0 {
		avg = sum / float64(pairs)
	}
	if avg < 0 {
		avg = 0
	} else if avg > 1 {
		avg = 1
	}

	return (nliTerm + avg) / 2
}

// novelty starts at 1.0, loses 0.2 per occurrence of a known-relationship
// phrase in the hypothesis, and regains 0.1 per occurrence of a
// novelty-signaling phrase. Occurrences are raw substring counts, not
// deduplicated.
func novelty(hypothesis string) float64 {
	lower := strings.ToLower(hypothesis)

	penalty := 0
	for _, pattern := range knownPatterns {
		penalty += strings.Count(lower, pattern)
	}
	score := 1.0 - float64(penalty)*0.2
	if score < 0 {
		score = 0
	}

	boost := 0
	for _, indicator := range novelIndicators {
		boost += strings.Count(lower, indicator)
	}
	score += float64(boost) * 0.1
	if score > 1 {
		score = 1
	}
	return score
}

// normalize collapses whitespace runs to single spaces and trims the ends.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

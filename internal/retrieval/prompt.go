package retrieval

import (
	"fmt"
	"strings"

	"github.com/biomindlabs/biorag/internal/scoring"
)

// buildPrompt assembles the grounded generation prompt: citation
// instructions, the query, the selected passages tagged with their source
// IDs, and a compact index so URLs are available to the model.
func buildPrompt(query string, selected []scoring.ScoredPassage) string {
	var sb strings.Builder

	sb.WriteString("You are a biomedical research assistant. Provide detailed, comprehensive answers using EXTENSIVE citations.\n")
	sb.WriteString("CRITICAL CITATION REQUIREMENTS:\n")
	sb.WriteString("- EVERY sentence must include [Source ID: <id>] citations. Never write uncited sentences.\n")
	sb.WriteString("- Synthesize information from ALL provided sources, citing each one.\n")
	sb.WriteString("- Be scientifically rigorous. Include specific mechanisms, pathways, and evidence.\n")
	sb.WriteString("- Output sections exactly as follows:\n")
	sb.WriteString("  1) Title\n")
	sb.WriteString("  2) Testable hypotheses (exactly 3 bullets) with [Source ID] citations\n")
	sb.WriteString("  3) Proposed experiments (exactly 2 bullets) with [Source ID] citations\n")
	sb.WriteString("  4) Risks and confounders\n")
	sb.WriteString("  5) Limitations\n")
	sb.WriteString("\nQuery: " + query + "\n")
	sb.WriteString("\nContext (verbatim excerpts with IDs):\n")

	for _, sp := range selected {
		sourceID := sp.Meta.SourceID
		if sourceID == "" {
			sourceID = "unknown"
		}
		fmt.Fprintf(&sb, "\n[Source ID: %s]\n%s\n", sourceID, sp.Content)
	}

	sb.WriteString("\nSources Index:\n")
	for i, sp := range selected {
		fmt.Fprintf(&sb, "[%d] id=%s source=%s url=%s\n", i+1, sp.Meta.SourceID, sp.Meta.Source, sp.Meta.URL)
	}

	return sb.String()
}

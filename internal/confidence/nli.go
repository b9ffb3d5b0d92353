package confidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/biomindlabs/biorag/internal/llm"
)

// LLMConsistencyChecker asks an LLM whether a set of evidence texts agree
// with each other. It is a cheap stand-in for a dedicated NLI model.
type LLMConsistencyChecker struct {
	provider llm.Provider
	model    string
}

// NewLLMConsistencyChecker creates a consistency checker backed by the
// given provider. model may be empty to use the provider's default.
func NewLLMConsistencyChecker(provider llm.Provider, model string) *LLMConsistencyChecker {
	return &LLMConsistencyChecker{provider: provider, model: model}
}

const consistencySystemPrompt = `You are a biomedical fact-checking assistant. ` +
	`You will be shown several evidence passages. Determine whether they are ` +
	`mutually consistent, i.e. none of them contradicts another. ` +
	`Answer with a single word: YES if they are consistent, NO if any two contradict.`

// CheckConsistency returns true when the provider judges the texts to be
// mutually consistent. Errors are returned as-is; callers treat a failed
// check as an unknown verdict.
func (c *LLMConsistencyChecker) CheckConsistency(ctx context.Context, texts []string) (bool, error) {
	if len(texts) < 2 {
		return true, nil
	}

	var sb strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&sb, "Passage %d:\n%s\n\n", i+1, text)
	}
	sb.WriteString("Are these passages mutually consistent? Answer YES or NO.")

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: consistencySystemPrompt},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return false, fmt.Errorf("consistency check failed: %w", err)
	}

	answer := strings.ToUpper(strings.TrimSpace(resp.Content))
	return strings.HasPrefix(answer, "YES"), nil
}

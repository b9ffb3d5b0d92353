package llm

import "context"

// Provider defines the interface for hosted text-generation models.
// The retrieval pipeline treats generation as opaque: prompt in, text out.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

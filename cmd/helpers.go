package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/biomindlabs/biorag/internal/config"
	"github.com/biomindlabs/biorag/internal/confidence"
	"github.com/biomindlabs/biorag/internal/corpus"
	"github.com/biomindlabs/biorag/internal/embeddings"
	"github.com/biomindlabs/biorag/internal/llm"
	"github.com/biomindlabs/biorag/internal/retrieval"
	"github.com/biomindlabs/biorag/internal/scoring"
	"github.com/biomindlabs/biorag/internal/selection"
	"github.com/biomindlabs/biorag/internal/sources"
	"github.com/biomindlabs/biorag/internal/vectordb"
)

// defaultMaxTokens bounds generated responses when the provider is not
// told otherwise.
const defaultMaxTokens = 1024

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `biorag init` to create a config file", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// Anthropic has no embeddings API; fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	}
}

// createLLMProviderFromConfig creates an LLM provider, wrapping it in a
// rate limiter when rate_limit_rpm is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	return provider, nil
}

// buildSources returns the enabled live connectors in a fixed order so
// merged evidence is deterministic across runs.
func buildSources(cfg *config.Config) []sources.Source {
	var srcs []sources.Source
	if cfg.Sources.PubMed.Enabled {
		srcs = append(srcs, sources.NewPubMedSource(cfg.Sources.PubMed.Email))
	}
	if cfg.Sources.UniProt.Enabled {
		srcs = append(srcs, sources.NewUniProtSource())
	}
	if cfg.Sources.DrugBank.Enabled {
		// An unset key disables the connector rather than failing queries.
		if apiKey := os.Getenv("DRUGBANK_API_KEY"); apiKey != "" {
			srcs = append(srcs, sources.NewDrugBankSource(apiKey))
		} else if verbose {
			fmt.Fprintln(os.Stderr, "DrugBank enabled but DRUGBANK_API_KEY is not set; skipping")
		}
	}
	if cfg.Sources.HealthBlog.Enabled {
		srcs = append(srcs, sources.NewHealthBlogSource())
	}
	return srcs
}

func corpusPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "corpus.db")
}

func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "vectordb")
}

// openStores opens the local corpus database and the vector index,
// loading any persisted index snapshot. A missing snapshot is not an
// error; the index starts empty.
func openStores(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (*corpus.Store, *vectordb.ChromemStore, error) {
	store, err := corpus.Open(corpusPath(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("opening corpus database: %w", err)
	}

	index, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := index.Load(ctx, vectorDir(cfg)); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "No persisted vector index at %s: %v\n", vectorDir(cfg), err)
		}
	}
	return store, index, nil
}

// buildOrchestrator wires the full query pipeline from config.
func buildOrchestrator(cfg *config.Config, embedder embeddings.Embedder, store *corpus.Store, index vectordb.VectorStore) (*retrieval.Orchestrator, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	weights := scoring.Weights{
		Semantic: cfg.Scoring.SemanticWeight,
		Recency:  cfg.Scoring.RecencyWeight,
		Quality:  cfg.Scoring.QualityWeight,
	}
	scorer := scoring.NewScorer(embedder, weights, cfg.Scoring.TrustedSources)
	checker := confidence.NewLLMConsistencyChecker(provider, cfg.Model)
	evaluator := confidence.NewEvaluator(embedder, checker)

	return retrieval.NewOrchestrator(
		buildSources(cfg),
		index,
		store,
		scorer,
		provider,
		evaluator,
		retrieval.Config{
			K:          cfg.Retrieval.K,
			FetchLimit: cfg.Retrieval.FetchLimit,
			Criteria: selection.Criteria{
				MinScoreThreshold: cfg.Retrieval.MinScoreThreshold,
				MaxContextLength:  cfg.Retrieval.MaxContextLength,
			},
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   defaultMaxTokens,
		},
	), nil
}

package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level biorag configuration, corresponding to .biorag.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	Temperature       float64      `yaml:"temperature" koanf:"temperature"`
	RateLimitRPM      int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`

	// DataDir holds the local corpus database and the persisted vector
	// index.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	Retrieval RetrievalConfig `yaml:"retrieval" koanf:"retrieval"`
	Scoring   ScoringConfig   `yaml:"scoring" koanf:"scoring"`
	Sources   SourcesConfig   `yaml:"sources" koanf:"sources"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
}

// RetrievalConfig controls fetch and context selection.
type RetrievalConfig struct {
	// K is the number of nearest neighbors pulled from the vector index.
	K int `yaml:"k" koanf:"k"`
	// FetchLimit caps results per live source.
	FetchLimit int `yaml:"fetch_limit" koanf:"fetch_limit"`
	// MinScoreThreshold is the selection cutoff on final scores.
	MinScoreThreshold float64 `yaml:"min_score_threshold" koanf:"min_score_threshold"`
	// MaxContextLength is the context budget in whitespace tokens.
	MaxContextLength int `yaml:"max_context_length" koanf:"max_context_length"`
}

// ScoringConfig holds the relevance weights and the trusted source set.
type ScoringConfig struct {
	SemanticWeight float64  `yaml:"semantic_weight" koanf:"semantic_weight"`
	RecencyWeight  float64  `yaml:"recency_weight" koanf:"recency_weight"`
	QualityWeight  float64  `yaml:"quality_weight" koanf:"quality_weight"`
	TrustedSources []string `yaml:"trusted_sources" koanf:"trusted_sources"`
}

// SourcesConfig enables and configures the live connectors.
type SourcesConfig struct {
	PubMed     PubMedConfig     `yaml:"pubmed" koanf:"pubmed"`
	UniProt    ToggleConfig     `yaml:"uniprot" koanf:"uniprot"`
	DrugBank   DrugBankConfig   `yaml:"drugbank" koanf:"drugbank"`
	HealthBlog ToggleConfig     `yaml:"health_blog" koanf:"health_blog"`
}

// PubMedConfig configures the PubMed connector.
type PubMedConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Email   string `yaml:"email" koanf:"email"`
}

// DrugBankConfig configures the DrugBank connector. The API key itself is
// read from DRUGBANK_API_KEY, never stored in the config file.
type DrugBankConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
}

// ToggleConfig is a plain enable/disable switch.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" koanf:"port"`
}

package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		Temperature:       0.3,
		RateLimitRPM:      0,
		DataDir:           ".biorag",
		Retrieval: RetrievalConfig{
			K:                 10,
			FetchLimit:        5,
			MinScoreThreshold: 0.2,
			MaxContextLength:  1200,
		},
		Scoring: ScoringConfig{
			SemanticWeight: 0.6,
			RecencyWeight:  0.2,
			QualityWeight:  0.2,
			TrustedSources: []string{"pubmed_articles", "uniprot_records"},
		},
		Sources: SourcesConfig{
			PubMed:     PubMedConfig{Enabled: true},
			UniProt:    ToggleConfig{Enabled: true},
			DrugBank:   DrugBankConfig{Enabled: false},
			HealthBlog: ToggleConfig{Enabled: false},
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

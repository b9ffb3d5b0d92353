package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .biorag.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to biorag! Let's configure your research assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = defaultModelFor(cfg.Provider)
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	cfg.EmbeddingModel = defaultEmbeddingModelFor(cfg.EmbeddingProvider)

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Generation model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Live sources.
	for _, src := range []struct {
		label   string
		enabled *bool
	}{
		{"Enable PubMed articles", &cfg.Sources.PubMed.Enabled},
		{"Enable UniProt protein records", &cfg.Sources.UniProt.Enabled},
		{"Enable DrugBank entries (needs DRUGBANK_API_KEY)", &cfg.Sources.DrugBank.Enabled},
		{"Enable Google Health blog", &cfg.Sources.HealthBlog.Enabled},
	} {
		def := "n"
		if *src.enabled {
			def = "y"
		}
		prompt := promptui.Prompt{
			Label:     src.label,
			IsConfirm: true,
			Default:   def,
		}
		_, err := prompt.Run()
		*src.enabled = err == nil
	}

	// 4. Context budget.
	budgetPrompt := promptui.Prompt{
		Label:   "Context budget (whitespace tokens)",
		Default: strconv.Itoa(cfg.Retrieval.MaxContextLength),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	budgetStr, err := budgetPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("context budget: %w", err)
	}
	cfg.Retrieval.MaxContextLength, _ = strconv.Atoi(budgetStr)

	// 5. Data directory.
	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory (corpus database and vector index)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataDirPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// Check for API keys.
	for _, envVar := range []string{APIKeyEnvVar(cfg.Provider), APIKeyEnvVar(cfg.EmbeddingProvider)} {
		if envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running biorag ask.\n", envVar)
		}
	}

	configPath := ".biorag.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}

func defaultModelFor(p ProviderType) string {
	switch p {
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	case ProviderOllama:
		return "llama3"
	default:
		return "gpt-4o"
	}
}

func defaultEmbeddingModelFor(p ProviderType) string {
	if p == ProviderOllama {
		return "nomic-embed-text"
	}
	return "text-embedding-3-small"
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. OpenAI embeddings are used for all cloud providers.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a biomedical question with cited evidence",
	Long: `Retrieves evidence from the local corpus and enabled live sources,
selects the most relevant passages, and generates a cited response with
a confidence estimate.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	store, index, err := openStores(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	orch, err := buildOrchestrator(cfg, embedder, store, index)
	if err != nil {
		return err
	}

	result := orch.Answer(ctx, args[0])

	// Live documents were added to the in-memory index during the query;
	// persist so the next run can reuse them.
	if err := index.Persist(ctx, vectorDir(cfg)); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: persisting vector index: %v\n", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Response)
	fmt.Println()
	fmt.Printf("Status:     %s\n", result.Status)
	fmt.Printf("Confidence: %.1f%%\n", result.Confidence)

	if len(result.SourceSummary) > 0 {
		fmt.Println("Sources:")
		for _, src := range result.SourceSummary {
			line := fmt.Sprintf("  - %s (%s)", src.ID, src.Type)
			if src.Date != "" {
				line += " " + src.Date
			}
			fmt.Printf("%s  score=%.2f\n", line, src.RelevanceScore)
		}
	}

	if result.Validation != nil && len(result.Validation.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range result.Validation.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	if verbose {
		d := result.Diagnostics
		fmt.Printf("Evidence:   %d fetched (%d index, %d live, %d deduplicated)\n",
			d.Fetched, d.IndexHits, d.LiveDocs, d.Deduplicated)
		t := d.Timings
		fmt.Printf("Timing:     fetch=%dms score=%dms generate=%dms total=%dms\n",
			t.FetchMS, t.ScoreMS, t.GenerateMS, t.TotalMS)
		if result.Model != "" {
			fmt.Printf("Model:      %s\n", result.Model)
		}
	}

	return nil
}

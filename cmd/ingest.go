package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/biomindlabs/biorag/internal/ingest"
	"github.com/biomindlabs/biorag/internal/progress"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Load local JSONL corpus files into the document store and vector index",
	Long: `Reads JSONL corpus files (one document per line), stores them in the
local corpus database, and embeds them into the vector index. Paths may
be files or directories; directories are walked for matching files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSlice("include", nil, "glob patterns for files to include (default **/*.jsonl)")
	ingestCmd.Flags().StringSlice("exclude", nil, "glob patterns for files to exclude")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

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

	var files []string
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := ingest.FindFiles(path, include, exclude)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Println("No corpus files found.")
		return nil
	}

	ing := ingest.New(store, index, progress.NewReporter())
	n, err := ing.IngestFiles(ctx, files)
	if err != nil {
		return err
	}

	if err := index.Persist(ctx, vectorDir(cfg)); err != nil {
		return fmt.Errorf("persisting vector index: %w", err)
	}

	fmt.Printf("Ingested %d documents from %d files (index now holds %d).\n", n, len(files), index.Count())
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "biorag",
	Short: "Evidence-grounded biomedical question answering",
	Long: `biorag answers biomedical questions by retrieving evidence from a
local corpus and live sources (PubMed, UniProt, DrugBank, health news),
scoring and selecting the most relevant passages, and generating a
cited response with a confidence estimate.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".biorag.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/biomindlabs/biorag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize biorag configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose a provider, model, and live sources, and writes a .biorag.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

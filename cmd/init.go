package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pneumabot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pneumabot configuration with an interactive wizard",
	Long:  `Asks for the LLM provider, embeddings and catalogue backend and writes them to the config file (.pneumabot.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pneumabot/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pneumabot",
	Short: "Conversational sales assistant for pneumatic components",
	Long: `pneumabot talks customers through finding pneumatic cylinders, valves and
accessories in a stock catalogue. It pulls diameter, stroke and product codes
out of free text, asks for what is missing, checks live stock and records the
confirmed order. Customers reach it over web chat, a WhatsApp bridge or MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if verbose {
			level = "debug"
		}
		format := "console"
		if cfg, err := loadConfig(); err == nil {
			if cfg.Log.Level != "" && !verbose {
				level = cfg.Log.Level
			}
			if cfg.Log.Format != "" {
				format = cfg.Log.Format
			}
		}
		logger.Init(logger.Options{Level: level, Format: format, Writer: os.Stderr})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".pneumabot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

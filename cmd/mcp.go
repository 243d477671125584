package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/pneumabot/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the sales conversation and catalogue lookups as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "pneumabot MCP server started on stdio (backend=%s)\n", cfg.Catalog.Backend)

		srv := mcpserver.NewServer(a.engine, a.catalog)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/logger"
	"github.com/ziadkadry99/pneumabot/internal/progress"
)

var (
	importWorkers int
	importReindex bool
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-glob>...",
	Short: "Load product and stock lists into the catalogue",
	Long: `Reads CSV exports of the product list (code, name, brand, stock, price)
and upserts them into the catalogue by product code. Patterns support **,
e.g. pneumabot import "exports/**/*.csv".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := catalog.Import(ctx, a.writer, args, catalog.ImportOptions{
			Workers:  importWorkers,
			Progress: progress.NewReporter("Importing", os.Stderr),
			Log:      logger.With("import"),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d rows from %d file(s), skipped %d.\n", sum.Rows, sum.Files, sum.Skipped)

		if !importReindex {
			return nil
		}
		n, err := a.rebuildIndex(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d products.\n", n)
		return nil
	},
}

func init() {
	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", 4, "files parsed in parallel")
	importCmd.Flags().BoolVar(&importReindex, "reindex", false, "rebuild the semantic index after importing")
	rootCmd.AddCommand(importCmd)
}

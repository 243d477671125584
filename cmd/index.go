package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/progress"
	"github.com/ziadkadry99/pneumabot/internal/vectordb"
)

var errNoEmbeddings = errors.New("embedding provider is none, the semantic index is disabled")

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the semantic product index",
	Long:  `Embeds every catalogue product and writes the index to catalog.index_dir. Keyword searches that find nothing fall back to this index.`,
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

		n, err := a.rebuildIndex(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d products into %s.\n", n, cfg.Catalog.IndexDir)
		return nil
	},
}

var (
	searchLimit int
	searchBrand string
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Query the semantic product index",
	Args:  cobra.MinimumNArgs(1),
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

		x, err := a.openIndex(ctx, true)
		if err != nil {
			return err
		}
		if x == nil {
			return errNoEmbeddings
		}
		var filter *vectordb.SearchFilter
		if searchBrand != "" {
			filter = &vectordb.SearchFilter{Brand: &searchBrand}
		}
		results, err := x.Search(ctx, strings.Join(args, " "), searchLimit, filter)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
		fmt.Print(vectordb.FormatResults(results))
		return nil
	},
}

// rebuildIndex embeds the whole catalogue into a fresh index and persists it.
func (a *app) rebuildIndex(ctx context.Context) (int, error) {
	x, err := a.openIndex(ctx, false)
	if err != nil {
		return 0, err
	}
	if x == nil {
		return 0, errNoEmbeddings
	}
	products, err := a.source.Find(ctx, catalog.Query{})
	if err != nil {
		return 0, fmt.Errorf("listing products: %w", err)
	}
	n, err := x.IndexProducts(ctx, products, progress.NewReporter("Indexing", os.Stderr))
	if err != nil {
		return n, err
	}
	if err := x.Persist(ctx, a.cfg.Catalog.IndexDir); err != nil {
		return n, fmt.Errorf("persisting index: %w", err)
	}
	return n, nil
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results")
	searchCmd.Flags().StringVar(&searchBrand, "brand", "", "only products of this brand")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
}

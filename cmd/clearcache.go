package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/answer"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear the durable answer store and semantic caches for all documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Cache clearing needs only storage, not the API-backed engine.
		store, index, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := answer.ClearAllCaches(context.Background(), store, index); err != nil {
			return err
		}
		if err := index.Persist(indexPath(cfg)); err != nil {
			return fmt.Errorf("persisting vector index: %w", err)
		}

		fmt.Println("All caches cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}

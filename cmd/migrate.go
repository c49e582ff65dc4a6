package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/migration"
	"github.com/Kosench/shortlink/internal/repository"
)

var migrateFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import a legacy data.json snapshot into an empty store",
	Long: `Reads a legacy flat-file snapshot (code -> {url, clicks, createdAt})
and inserts it into the configured store. Nothing is imported when the
store already holds links.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		file := migrateFile
		if file == "" {
			file = cfg.App.LegacyDataFile
		}

		ctx := context.Background()
		store, err := repository.Open(ctx, cfg.Storage.URI, cfg.Storage.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		defer store.Close()

		inserted, err := migration.ImportLegacy(ctx, store, file, log)
		if err != nil {
			return err
		}

		log.Info("migration complete", zap.String("file", file), zap.Int("inserted", inserted))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVarP(&migrateFile, "file", "f", "", "snapshot to import (default app.legacy_data_file)")
}

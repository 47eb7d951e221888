// Package cli implements icebergctl's cobra command tree: a thin,
// filesystem-catalog-backed front end over catalog/filesystem and
// iceberg/table for manual exercising of namespace and table operations.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dot-do/iceberg-sub003/catalog/filesystem"
	"github.com/dot-do/iceberg-sub003/iceberg/storage"
)

type contextKey string

const loggerKey contextKey = "logger"

var rootCmd = &cobra.Command{
	Use:   "icebergctl",
	Short: "Exercise an Iceberg catalog against a local warehouse directory",
	Long: `icebergctl drives the filesystem catalog implementation against a
warehouse directory on local disk: create, list, rename and drop
namespaces and tables, and describe a table's current metadata. It has no
command that commits snapshots.

It is a manual-exercising tool, not a query engine or production client.`,
	Version: "0.1.0",
}

var warehouseRoot string

func init() {
	rootCmd.PersistentFlags().StringVar(&warehouseRoot, "warehouse", "./warehouse", "warehouse root directory")
}

// ExecuteWithLogger runs the root command with logger available to
// subcommands via the command context.
func ExecuteWithLogger(logger zerolog.Logger) error {
	ctx := context.WithValue(context.Background(), loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func loggerFromCmd(cmd *cobra.Command) zerolog.Logger {
	if l, ok := cmd.Context().Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

// openCatalog builds a filesystem.Catalog rooted at the --warehouse flag's
// directory, backed by a storage.LocalDisk.
func openCatalog(cmd *cobra.Command) (*filesystem.Catalog, error) {
	logger := loggerFromCmd(cmd)
	backend, err := storage.NewLocalDisk(warehouseRoot)
	if err != nil {
		return nil, err
	}
	return filesystem.New(backend, warehouseRoot, logger), nil
}

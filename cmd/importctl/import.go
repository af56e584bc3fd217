package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/spf13/cobra"
)

var errNothingImported = errors.New("no rows were imported")

func newImportCommand(root *rootOptions) *cobra.Command {
	var (
		endpoint string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "import --endpoint <key> <file>",
		Short: "Import a .csv, .xls or .xlsx file",
		Long: `Import a file into the configured store and print the result as JSON.

The exit status is non-zero when the file is rejected or no row was
persisted. Row errors are listed in the "errors" field of the output.

Examples:
  importctl import --endpoint reports reports.csv
  importctl import --endpoint blogs --workers 4 --backend mongo posts.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			ctx := cmd.Context()
			app, err := loadApp(ctx, root, workers)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			result, err := app.Service.Import(ctx, endpoint, filepath.Base(path), data)
			if err != nil {
				msg := core.MapError(err)
				return fmt.Errorf("%s (%s): %w", msg.Message, msg.Code, err)
			}

			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.ProcessedCount == 0 {
				return errNothingImported
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "Import endpoint key (see 'importctl endpoints')")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Rows written concurrently; overrides IMPORT_WORKERS")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

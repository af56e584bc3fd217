package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/catalogimport/internal/application"
	"github.com/JonMunkholm/catalogimport/internal/config"
	"github.com/JonMunkholm/catalogimport/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	backend  string
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "importctl",
		Short:        "Bulk import catalog files",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), opts.logLevel, "text")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Store backend (postgres, mongo, memory); overrides STORE_BACKEND")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	cmd.AddCommand(
		newEndpointsCommand(),
		newImportCommand(opts),
	)
	return cmd
}

// loadApp reads configuration from the environment, applies flag overrides
// and opens the store.
func loadApp(ctx context.Context, opts *rootOptions, workers int) (*application.App, error) {
	if opts.backend != "" {
		os.Setenv("STORE_BACKEND", opts.backend)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if workers > 0 {
		cfg.Import.Workers = workers
	}
	return application.New(ctx, cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

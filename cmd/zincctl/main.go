// zincctl is the operator CLI for the ZINC config service. It works directly
// against a store (memory snapshot or SQLite), without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jays-visionAI/ZINC-sub003/internal/config"
	"github.com/jays-visionAI/ZINC-sub003/internal/store"
	"github.com/jays-visionAI/ZINC-sub003/pkg/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// storeFlags select the backend shared by every store-backed command.
type storeFlags struct {
	backend     string
	dataDir     string
	sqlitePath  string
	postgresURL string
}

func (f *storeFlags) open() (store.Store, error) {
	return server.OpenStore(context.Background(), config.StoreConfig{
		Backend:     f.backend,
		DataDir:     f.dataDir,
		SQLitePath:  f.sqlitePath,
		PostgresURL: f.postgresURL,
	})
}

func newRootCmd() *cobra.Command {
	defaults := config.Load()
	sf := &storeFlags{}
	var verbose bool

	root := &cobra.Command{
		Use:   "zincctl",
		Short: "Operate the ZINC layered config store",
		Long: `zincctl generates and seeds the platform catalog, resolves effective
and runtime configuration, and runs the version utilities.

Store-backed commands use --store (memory, sqlite or postgres). The memory store
persists to a JSON snapshot under --data-dir.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339})
		},
	}

	root.PersistentFlags().StringVar(&sf.backend, "store", defaults.Store.Backend, "store backend: memory, sqlite or postgres")
	root.PersistentFlags().StringVar(&sf.dataDir, "data-dir", defaults.Store.DataDir, "memory store snapshot directory")
	root.PersistentFlags().StringVar(&sf.sqlitePath, "path", defaults.Store.SQLitePath, "SQLite database path")
	root.PersistentFlags().StringVar(&sf.postgresURL, "postgres-url", defaults.Store.PostgresURL, "PostgreSQL connection URL")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newCatalogCmd(sf),
		newResolveCmd(sf, defaults.Resolver.DefaultChannel),
		newInstanceCmd(sf),
		newVersionCmd(),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

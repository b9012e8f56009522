// Command brkindexd runs the CVS/PKV ingestion coordinator against a
// newline-delimited-JSON file of block fixtures.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/brk-indexer/brkidx/internal/blocksrc"
	"github.com/brk-indexer/brkidx/internal/config"
	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/indexer"
	"github.com/brk-indexer/brkidx/internal/logutil"
	"github.com/brk-indexer/brkidx/internal/numeric"
	"github.com/brk-indexer/brkidx/internal/schema"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	root := &cobra.Command{
		Use:           "brkindexd",
		Short:         "Append-only, chain-aware UTXO indexer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	fs := pflag.NewFlagSet("brkindexd", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	root.PersistentFlags().AddFlagSet(fs)
	root.AddCommand(newServeCmd(cfg), newRollbackCmd(cfg), newInspectCmd(cfg))
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Ingest every block in --blocks, committing after each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCoordinator(cfg, func(c *indexer.Coordinator) error {
				if cfg.BlocksPath == "" {
					return fmt.Errorf("serve: --blocks is required")
				}
				r, err := blocksrc.OpenJSONL(cfg.BlocksPath)
				if err != nil {
					return err
				}
				defer r.Close()

				for {
					block, err := r.Next()
					if err == io.EOF {
						return nil
					}
					if err != nil {
						return err
					}
					if err := c.IngestNext(block); err != nil {
						return err
					}
				}
			})
		},
	}
}

func newRollbackCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <height>",
		Short: "Roll both stores back so height is the next one ingested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ok := numeric.ParseUint64(args[0])
			if !ok {
				return fmt.Errorf("rollback: invalid height %q", args[0])
			}
			return withCoordinator(cfg, func(c *indexer.Coordinator) error {
				return c.Rollback(index.HeightFromUint64(h))
			})
		},
	}
}

func newInspectCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the catalog version, next height and each store's starting height",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCoordinator(cfg, func(c *indexer.Coordinator) error {
				st := c.Status()
				fmt.Fprintf(cmd.OutOrStdout(), "catalog_version=%d next_height=%d vecs_height=%d stores_height=%d columns=%d partitions=%d\n",
					st.CatalogVersion, st.NextHeight.Uint64(), st.VecsHeight.Uint64(), st.StoresHeight.Uint64(),
					len(schema.Columns), len(schema.Partitions))
				return nil
			})
		},
	}
}

func withCoordinator(cfg *config.Config, fn func(*indexer.Coordinator) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logutil.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("brkindexd: create data dir: %w", err)
	}

	c, err := indexer.Open(cfg.DataDir, schema.Version(cfg.BaseVersion), logger)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c)
}

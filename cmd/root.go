package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/cliossg/sitesmith/internal/feat/sites"
	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/database"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
)

var (
	cfgFile  string
	assetsFS fs.FS
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "sitesmith",
	Short: "Generate, edit and publish single-page sites",
	Long: `Sitesmith turns a prompt into a draft page through an OpenAI-compatible
API, lets you edit it in the browser and publishes it under /u/<slug>/.

Configure via config.yaml, a .env file or SITES_* environment variables.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.Flags().String("addr", "", "listen address (overrides config)")
}

// Execute runs the root command with the embedded assets.
func Execute(assets fs.FS) {
	assetsFS = assets
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds a logger writing to w.
func loadConfig(w io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Writer: w,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, log, nil
}

// openStore builds the configured store. For database backends it also
// returns the started database, which the caller must stop.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (sites.Store, *database.Database, error) {
	if cfg.Store.Backend == config.BackendFS {
		store, err := sites.NewStore(cfg, nil)
		return store, nil, err
	}

	db := database.New(assetsFS, cfg, log)
	store, err := sites.NewStore(cfg, db)
	if err != nil {
		return nil, nil, err
	}
	return store, db, nil
}

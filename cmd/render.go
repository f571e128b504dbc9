package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cliossg/sitesmith/internal/feat/sites"
)

var renderCmd = &cobra.Command{
	Use:   "render SLUG",
	Short: "Write the document served for SLUG to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	svc, stop, err := startSitesService(cmd)
	if err != nil {
		return err
	}
	defer stop()

	page, err := svc.Serve(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, sites.ErrNotFound) {
			return fmt.Errorf("site %q not found", args[0])
		}
		return err
	}

	_, err = io.WriteString(cmd.OutOrStdout(), page.Document)
	return err
}

// startSitesService opens the store and starts a publish service for one
// command. Logs go to stderr so stdout stays clean.
func startSitesService(cmd *cobra.Command) (sites.Service, func(), error) {
	cfg, log, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	store, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if db != nil {
		if err := db.Start(ctx); err != nil {
			return nil, nil, err
		}
	}

	svc := sites.NewService(store, cfg, log)
	if err := svc.Start(ctx); err != nil {
		if db != nil {
			db.Stop(ctx)
		}
		return nil, nil, err
	}

	stop := func() {
		svc.Stop(ctx)
		if db != nil {
			db.Stop(ctx)
		}
	}
	return svc, stop, nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/cliossg/sitesmith/internal/feat/generate"
	"github.com/cliossg/sitesmith/internal/feat/sites"
	"github.com/cliossg/sitesmith/internal/web"
	"github.com/cliossg/sitesmith/pkg/cl/app"
	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor, the publish API and the published sites",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}

	log.Infof("Starting Sitesmith [%s mode]", cfg.Env)
	log.Infof("Store backend: %s", cfg.Store.Backend)

	router, comps, err := buildServer(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	ctx := context.Background()
	starts, stops, registrars := app.Setup(ctx, router, comps...)
	if err := app.Start(ctx, log, starts, stops, registrars, router); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	srv := app.NewServer(router, cfg.Server)
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Serve(srv)
	}()
	log.Infof("Server listening on %s", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			app.Stop(ctx, log, stops)
			return fmt.Errorf("server error: %w", err)
		}
	}

	app.Shutdown(srv, log, stops)
	log.Info("Server stopped")
	return nil
}

// buildServer wires every component and returns them in start order.
func buildServer(ctx context.Context, cfg *config.Config, log logger.Logger) (chi.Router, []any, error) {
	store, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	sitesService := sites.NewService(store, cfg, log)
	generateService := generate.NewService(generate.NewClient(cfg), cfg, log)

	sitesHandler := sites.NewHandler(sitesService, cfg, log)
	generateHandler := generate.NewHandler(generateService, log)
	health := web.NewHealth(sitesService, store.Backend(), log)
	fileServer := web.NewFileServer(assetsFS, log)

	router := chi.NewRouter()
	middleware.DefaultStack(router, log)

	var comps []any
	if db != nil {
		comps = append(comps, db)
	}
	comps = append(comps, sitesService, generateService, sitesHandler, generateHandler, health, fileServer)

	return router, comps, nil
}

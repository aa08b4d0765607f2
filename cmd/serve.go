package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dredgelabs/dredge/pkg/api"
	"github.com/dredgelabs/dredge/pkg/config"
	"github.com/dredgelabs/dredge/pkg/dataset"
	"github.com/dredgelabs/dredge/pkg/log"
	"github.com/dredgelabs/dredge/pkg/syncer"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the search bridge HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides config)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Dataset directory (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.SetGlobalDebug(c.Bool("debug"))
			return serve(ctx, c.String("config"), c.Int("port"), c.String("data-dir"))
		},
	}
}

// serve loads every dataset once at startup and serves until a signal
// arrives. Datasets are never reopened while serving; restart (or run
// the sync command first) to pick up new files.
func serve(ctx context.Context, configPath string, portOverride int, dataDirOverride string) error {
	logger := log.ForComponent("serve")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if portOverride > 0 {
		cfg.Port = portOverride
	}
	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}

	if cfg.SyncOnStart && cfg.S3.Configured() {
		sy, err := syncer.New(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("creating syncer: %w", err)
		}
		downloaded, err := sy.Sync(ctx, cfg.DataDir)
		if err != nil {
			logger.Warnf("startup sync incomplete: %v", err)
		}
		logger.Infof("startup sync: %d files downloaded", len(downloaded))
	}

	registry, err := dataset.LoadAll(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warnf("closing registry: %v", err)
		}
	}()

	logger.Infof("loaded %d datasets from %s", registry.Len(), cfg.DataDir)
	if cfg.Secret == "" {
		logger.Warnf("no secret configured, /search and /info will reject all requests")
	}

	server := api.NewServer(registry, cfg.Secret)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCtx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

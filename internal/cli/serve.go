package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kinforge/kinchart/internal/server"
	"github.com/kinforge/kinchart/pkg/cache"
	"github.com/kinforge/kinchart/pkg/config"
	"github.com/kinforge/kinchart/pkg/datastore"
	"github.com/kinforge/kinchart/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chart HTTP API",
		Long: `Run the chart HTTP API.

The server computes charts from datasets supplied inline or by URL and
stores uploaded datasets for repeated charting. Configuration comes from
a TOML file plus KINCHART_* environment overrides; --addr overrides the
listen address from either source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// runServe assembles the backends from configuration and serves until
// the context is cancelled.
func (c *CLI) runServe(ctx context.Context, configPath, addr string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	cacheBackend, err := serveCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	// Namespace server entries so they never collide with CLI runs
	// sharing the same backend.
	runner := pipeline.NewRunner(cacheBackend, cache.NewScopedKeyer(nil, "api"), c.Logger)
	defer runner.Close()

	store, err := serveStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(store, runner, c.Logger).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening",
			"addr", cfg.Server.Addr,
			"cache", cfg.Cache.Backend,
			"storage", cfg.Storage.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveCache builds the cache backend named by the configuration.
func serveCache(cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(cfg.RedisURL)
	case "none":
		return cache.NewNullCache(), nil
	default: // file
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	}
}

// serveStore builds the dataset storage backend named by the configuration.
func serveStore(ctx context.Context, cfg config.Storage) (datastore.Store, error) {
	switch cfg.Backend {
	case "mongo":
		return datastore.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default: // memory
		return datastore.NewMemoryStore(), nil
	}
}

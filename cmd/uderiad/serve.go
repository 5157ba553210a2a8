package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	uderia "github.com/rgeissen/uderia-sub002"
	"github.com/rgeissen/uderia-sub002/store"
	"github.com/rgeissen/uderia-sub002/transport"
	"github.com/rgeissen/uderia-sub002/ui"
)

const shutdownGrace = 10 * time.Second

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the uderia web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func runServe(ctx context.Context, cfg *Config) error {
	log, err := newZapLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, pool, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	client, err := uderia.New(uderia.Config{
		Store:     st,
		EventsURL: cfg.EventsURL,
	},
		uderia.WithLogger(log),
		uderia.WithSnapshotTTL(cfg.SnapshotTTL),
		uderia.WithReconnectDelay(cfg.ReconnectDelay),
	)
	if err != nil {
		return err
	}

	if err := client.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			log.Warn("client stop failed", "err", err)
		}
	}()

	// When talking straight to Postgres the live feed arrives over
	// LISTEN/NOTIFY instead of the HTTP event stream.
	if pool != nil && cfg.EventsURL == "" {
		listener, err := transport.NewPGListener(pool, &transport.PGConfig{
			ReconnectDelay: cfg.ReconnectDelay,
			OnError: func(err error) {
				log.Warn("event listener disconnected", "err", err)
			},
			OnReconnect: func() {
				log.Info("event listener reconnecting")
			},
		}, client.OnSessionEvent)
		if err != nil {
			return err
		}
		if err := listener.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := listener.Stop(stopCtx); err != nil {
				log.Warn("event listener stop failed", "err", err)
			}
		}()
	}

	handler := ui.Handler(client, &ui.Config{
		BasePath:        cfg.BasePath,
		ReadOnly:        cfg.ReadOnly,
		Logger:          log,
		RefreshInterval: cfg.RefreshInterval,
		PageSize:        cfg.PageSize,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr, "base_path", cfg.BasePath, "read_only", cfg.ReadOnly)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildStore picks the session store backend. A database URL wins over
// the REST backend so operators can point the UI straight at Postgres;
// the pool is returned so the caller can run the event listener on it.
func buildStore(ctx context.Context, cfg *Config) (store.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store.NewPostgresStore(pool), pool, nil
	}
	if cfg.BackendURL == "" {
		return nil, nil, errors.New("either backend_url or database_url must be configured")
	}
	st, err := store.NewRESTStore(cfg.BackendURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("rest store: %w", err)
	}
	return st, nil, nil
}

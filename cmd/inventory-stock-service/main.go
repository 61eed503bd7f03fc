// Package main boots the inventory stock service HTTP server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/inventory-stock-service/internal/config"
	httpapi "github.com/fairyhunter13/inventory-stock-service/internal/http"
	"github.com/fairyhunter13/inventory-stock-service/internal/inventory"
	"github.com/fairyhunter13/inventory-stock-service/internal/journal"
	"github.com/fairyhunter13/inventory-stock-service/internal/obs"
	"github.com/fairyhunter13/inventory-stock-service/internal/store"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "store_driver", cfg.StoreDriver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		obs.Logger.Error("store_init_error", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	q := journal.NewQueue(128)
	mgr := journal.NewManager(cfg, q)
	mgr.Start(ctx)

	svc := inventory.New(st, mgr)
	app := httpapi.NewApp(cfg, svc, mgr)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigc:
			obs.Logger.Info("shutdown_signal", "signal", s.String())
		case <-gctx.Done():
		}

		app.StartShutdown()
		obs.Logger.Info("shutdown_drain_begin", "backlog_size", mgr.BacklogSize(), "worker_count", mgr.WorkerCount())

		ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelDrain()
		if drained := mgr.DrainUntil(ctxDrain); !drained {
			obs.Logger.Warn("shutdown_drain_timeout")
		} else {
			obs.Logger.Info("shutdown_drain_complete")
		}

		ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSrv()
		return srv.Shutdown(ctxSrv)
	})

	if err := g.Wait(); err != nil {
		obs.Logger.Error("service_error", "error", err)
	}
	mgr.Stop()
	obs.Logger.Info("service_stopped")
}

// openStore builds the configured store backend and returns it with its
// cleanup function.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		ps := store.NewPostgres(db, cfg.StoreRetryAttempts)
		if err := ps.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return ps, func() { _ = db.Close() }, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("pinging redis: %w", err)
		}
		return store.NewRedis(client, cfg.StoreRetryAttempts), func() { _ = client.Close() }, nil
	case config.DriverMemory, "":
		return store.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

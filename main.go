// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/poll-rooms/broadcast"
	"github.com/danielhkuo/poll-rooms/cliparse"
	"github.com/danielhkuo/poll-rooms/coordinator"
	"github.com/danielhkuo/poll-rooms/db"
	"github.com/danielhkuo/poll-rooms/handlers"
	"github.com/danielhkuo/poll-rooms/middleware"
	"github.com/danielhkuo/poll-rooms/retention"
	"github.com/danielhkuo/poll-rooms/router"
	"github.com/danielhkuo/poll-rooms/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	pollStore, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hub := broadcast.NewHub()
	registry := coordinator.New(pollStore, hub, coordinator.Config{
		Timeout:   cfg.VoteTimeout,
		Retention: cfg.Retention,
	})
	sockets := handlers.NewSocketHandler(hub, pollStore, registry)

	// Create router
	mux, limiter := router.NewRouter(cfg, pollStore, registry, sockets)

	// Create server
	server := &http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(sockets.CloseAll)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port, "database", cfg.DatabaseType)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sweeper := &retention.Sweeper{
			Store:     pollStore,
			Interval:  cfg.SweepInterval,
			Retention: cfg.Retention,
		}
		return sweeper.Run(ctx)
	})

	if limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.RateLimitWindow)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case now := <-ticker.C:
					limiter.Prune(now, cfg.RateLimitWindow)
				}
			}
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server closed", "error", err)
		closeStore()
		os.Exit(1)
	}
	slog.Info("Server closed")
}

// openStore picks the poll store for the configured database type
func openStore(cfg cliparse.Config) (store.Store, func(), error) {
	if cfg.DatabaseType == "memory" {
		slog.Warn("using in-memory store; polls are lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	// Create schema (tables)
	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	slog.Info("Database schema ready")

	return store.NewSQLStore(conn), func() { conn.Close() }, nil
}

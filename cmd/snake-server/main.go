// Package main is the entry point for the GridSnake server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/infra/storage"
	"github.com/MRamiBalles/GridSnake/internal/network"
	"github.com/MRamiBalles/GridSnake/internal/platform/config"
	"github.com/MRamiBalles/GridSnake/internal/platform/logger"
	"github.com/MRamiBalles/GridSnake/internal/platform/metrics"
	"github.com/MRamiBalles/GridSnake/internal/scoreboard"
	"github.com/MRamiBalles/GridSnake/web"
)

func main() {
	cfg, err := config.LoadWithFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "[SNAKE-SERVER] invalid configuration: %v\n", err)
		os.Exit(2)
	}

	appLogger := logger.NewLogger()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			appLogger.Errorf("Failed to open log file %s: %v", cfg.LogFile, err)
			os.Exit(1)
		}
		defer f.Close()
		appLogger = logger.NewLoggerTo(f)
	}
	appLogger.Info("Initializing GridSnake server...")

	m := metrics.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openRepository(cfg.DBPath, appLogger)
	defer closeRepo()
	keeper := scoreboard.NewKeeper(repo, appLogger, m)
	defer keeper.Close()
	if err := keeper.Load(ctx); err == nil {
		appLogger.Infof("Loaded high score %d", keeper.Best())
	}

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger, m)
	go hub.Run(ctx)
	keeper.Subscribe(hub.BroadcastHighScore)

	wsServer := network.NewServer(hub, network.ServerConfig{
		Rules:       cfg.Rules(),
		Board:       keeper,
		Logger:      appLogger,
		Metrics:     m,
		RateLimit:   cfg.MaxMessagesPerSecond,
		CheckOrigin: cfg.CheckOrigin,
	})

	mux := http.NewServeMux()
	mux.Handle("/", web.Handler())
	mux.Handle("/ws", wsServer)
	network.NewAPI(keeper, cfg.Rules(), appLogger).RegisterRoutes(mux)
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/metrics/prometheus", m.PrometheusHandler())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		appLogger.Infof("HTTP & WS server listening on %s (grid %d, %s borders)", cfg.Addr, cfg.GridSize, cfg.Border)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warnf("Forced shutdown: %v", err)
	}
}

// openRepository prefers the SQLite store and falls back to memory so the
// game stays playable without a writable disk.
func openRepository(path string, log *logger.Logger) (storage.HighScoreRepository, func()) {
	log.Infof("Initializing SQLite database %q...", path)
	db, err := storage.InitSQLite(path)
	if err != nil {
		log.Warnf("High score will not survive restarts, SQLite unavailable: %v", err)
		return storage.NewMemoryHighScoreRepository(0), func() {}
	}
	return storage.NewSQLiteHighScoreRepository(db), func() {
		if err := db.Close(); err != nil {
			log.Warnf("Failed to close database: %v", err)
		}
	}
}

// Package app wires the daemon together and runs it until shutdown.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/wxforge/wxforge/internal/log"
	"github.com/wxforge/wxforge/internal/managers"
	"github.com/wxforge/wxforge/internal/server"
	"github.com/wxforge/wxforge/internal/state"
	"github.com/wxforge/wxforge/pkg/config"
)

const defaultStateDB = "wxforge-state.db"

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return err
	}

	statePath := cfg.StateDB
	if statePath == "" {
		statePath = defaultStateDB
	}
	store, err := state.Open(statePath)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	sinkManager, err := managers.NewSinkManager(ctx, &wg, &cfg.Sinks, a.logger)
	if err != nil {
		return err
	}

	stationManager, err := managers.NewStationManager(ctx, a.configProvider, store, sinkManager, a.logger)
	if err != nil {
		return err
	}
	stationManager.StartStations()

	if cfg.Status.Port != 0 {
		addr := fmt.Sprintf("%s:%d", cfg.Status.ListenAddr, cfg.Status.Port)
		server.New(addr, stationManager, a.logger).Start(ctx, &wg)
	}

	log.Info("application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Stop sessions first so every adapter observes cancellation and the
	// final accumulator state lands in the store before it closes.
	stationManager.StopStations()
	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

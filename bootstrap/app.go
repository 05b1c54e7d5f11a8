// Package bootstrap wires the application together: logger, config,
// stores, correlation engine, dispatcher, and the HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"watchtower/api"
	"watchtower/config"
	"watchtower/correlate"
	"watchtower/notify"
	"watchtower/service"
	"watchtower/store"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	cfg        *config.Config
	logger     *zap.SugaredLogger
	monitor    *service.SecurityMonitor
	dispatcher *notify.Dispatcher
	server     *http.Server

	gcStop chan struct{}
	gcWG   sync.WaitGroup
}

// NewApp loads configuration and constructs the full component graph.
func NewApp() (*App, error) {
	logger := InitLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	settings := config.NewRuntime(cfg)

	events := store.NewEventStore(cfg.Correlation.MaxEvents, logger)
	alerts := store.NewAlertStore(cfg.Correlation.MaxAlerts, logger)

	channels := notify.NewChannels(cfg.Notify, logger)
	dispatcher := notify.NewDispatcher(cfg.Notify, settings, channels, logger)

	matchers, err := correlate.NewMatchers(cfg.Engine, logger)
	if err != nil {
		return nil, fmt.Errorf("building matcher cache: %w", err)
	}
	registry, err := correlate.NewRegistry(matchers, logger)
	if err != nil {
		return nil, fmt.Errorf("building pattern registry: %w", err)
	}

	engine := correlate.NewEngine(events, alerts, settings, registry,
		correlate.NewCooldownTracker(), matchers, dispatcher, logger)
	monitor := service.NewSecurityMonitor(events, alerts, engine, registry, settings, logger)

	handler := api.NewAPI(cfg.API, monitor, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		monitor:    monitor,
		dispatcher: dispatcher,
		server:     server,
		gcStop:     make(chan struct{}),
	}, nil
}

// Run starts all services and blocks until a shutdown signal or a fatal
// server error.
func (a *App) Run() error {
	a.dispatcher.Start()
	a.startEventGC()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infow("HTTP server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Infow("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		a.logger.Errorw("HTTP server failed", "error", err)
		a.shutdown()
		return err
	}

	a.shutdown()
	return nil
}

// startEventGC runs the periodic event store cleanup.
func (a *App) startEventGC() {
	interval := time.Duration(a.cfg.Correlation.GCIntervalMinutes) * time.Minute
	maxAge := time.Duration(a.cfg.Correlation.MaxEventAgeMinutes) * time.Minute

	a.gcWG.Add(1)
	go func() {
		defer a.gcWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.gcStop:
				return
			case <-ticker.C:
				if removed := a.monitor.ClearOldEvents(maxAge); removed > 0 {
					a.logger.Infow("Event store GC completed", "removed", removed)
				}
			}
		}
	}()
}

// shutdown stops components in reverse dependency order: server first so
// no new events arrive, then the GC ticker, then the dispatcher.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warnw("HTTP server shutdown incomplete", "error", err)
	}

	close(a.gcStop)
	a.gcWG.Wait()

	a.dispatcher.Stop()

	a.logger.Infow("Shutdown complete")
	_ = a.logger.Sync()
}

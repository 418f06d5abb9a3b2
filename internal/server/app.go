// Package server assembles the chirper hub: storage, change notification,
// the realtime broker, services, the gRPC endpoint and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/server/config"
	"github.com/dmitrijs2005/chirper/internal/server/metrics"
	"github.com/dmitrijs2005/chirper/internal/server/notify"
	"github.com/dmitrijs2005/chirper/internal/server/realtime"
	"github.com/dmitrijs2005/chirper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chirper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/chirper/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	unsubscribe func()
	registry    *prometheus.Registry
	grpcServer  *gs.GRPCServer
}

// NewApp opens storage and the notifier and wires the services. An empty
// DatabaseDSN keeps all data in memory; an empty NATSURL notifies in process.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	var rm repomanager.RepositoryManager
	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "No database configured, data is kept in memory")
		rm = repomanager.NewMemoryRepositoryManager()
	} else {
		pg, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = pg
	}

	var n notify.Notifier
	if cfg.NATSURL == "" {
		n = notify.NewLocal()
	} else {
		nn, err := notify.NewNATS(cfg.NATSURL, logger)
		if err != nil {
			rm.Close()
			return nil, fmt.Errorf("notifier init error: %w", err)
		}
		n = nn
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	broker := realtime.NewBroker(rm.Documents(), logger, m)
	unsubscribe, err := n.Subscribe(broker.Changed)
	if err != nil {
		n.Close()
		rm.Close()
		return nil, fmt.Errorf("notifier subscribe error: %w", err)
	}

	is := services.NewIdentityService(rm, cfg)
	ds := services.NewDocumentService(rm, n, broker, logger, m)

	return &App{
		config:      cfg,
		logger:      logger,
		repomanager: rm,
		notifier:    n,
		unsubscribe: unsubscribe,
		registry:    registry,
		grpcServer:  gs.NewGRPCServer(cfg.EndpointAddrGRPC, logger, is, ds, m),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(app.registry))
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then releases
// storage and the notifier.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	app.unsubscribe()
	if err := app.notifier.Close(); err != nil {
		app.logger.Warn(ctx, "notifier close failed", "error", err)
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Warn(ctx, "storage close failed", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}

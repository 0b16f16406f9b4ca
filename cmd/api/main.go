package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"

	"github.com/wannai/orderbridge/internal/config"
	"github.com/wannai/orderbridge/internal/database"
	"github.com/wannai/orderbridge/internal/events"
	"github.com/wannai/orderbridge/internal/orders/adapters"
	httpadapter "github.com/wannai/orderbridge/internal/orders/adapters/http"
	orderspostgres "github.com/wannai/orderbridge/internal/orders/adapters/postgres"
	ordersapp "github.com/wannai/orderbridge/internal/orders/app"
	ordersmetrics "github.com/wannai/orderbridge/internal/orders/metrics"
	"github.com/wannai/orderbridge/internal/orders/ports"
	"github.com/wannai/orderbridge/internal/telemetry"
	"github.com/wannai/orderbridge/internal/woocommerce"
)

func main() {
	if err := run(); err != nil {
		slog.Error("orderbridge api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.Telemetry.LogLevel), os.Stdout).
		With("service", cfg.Service.Name)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	meter := tel.Meter()

	repo, err := newRepository(pool, meter)
	if err != nil {
		return err
	}

	catalog, err := newCatalog(cfg.WooCommerce, meter)
	if err != nil {
		return err
	}

	eventBus, err := newEventBus(ctx, cfg.Events, logger, meter)
	if err != nil {
		return err
	}

	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}

	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	service := ordersapp.NewService(repo, catalog, eventBus, logger, orderMetrics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	httpadapter.NewHandler(service, logger).Register(mux)

	handler := otelhttp.NewHandler(httpadapter.Chain(mux, logger, httpMetrics), "orderbridge-api")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Sends wait on WooCommerce, so leave room beyond the client timeout.
		WriteTimeout: cfg.WooCommerce.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")

	return nil
}

func newRepository(pool *pgxpool.Pool, meter metric.Meter) (ports.OrderRepository, error) {
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	return adapters.NewObservableRepository(orderspostgres.NewRepository(pool), dbMetrics), nil
}

func newCatalog(cfg config.WooCommerceConfig, meter metric.Meter) (ports.Catalog, error) {
	client, err := woocommerce.NewClient(woocommerce.Config{
		APIURL:         cfg.APIURL,
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		Timeout:        cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create woocommerce client: %w", err)
	}

	catalogMetrics, err := woocommerce.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	return adapters.NewObservableCatalog(client, catalogMetrics), nil
}

func newEventBus(ctx context.Context, cfg config.EventsConfig, logger *slog.Logger, meter metric.Meter) (ports.EventBus, error) {
	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		return nil, err
	}

	if cfg.QueueURL == "" {
		logger.Info("no events queue configured, order events are logged only")
		return adapters.NewObservableEventBus(events.NewNoopEventBus(logger), eventMetrics), nil
	}

	client, err := events.NewSQSClient(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing order events to sqs", "queue_url", cfg.QueueURL)
	return adapters.NewObservableEventBus(events.NewSQSEventBus(client, cfg.QueueURL), eventMetrics), nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/gridpoint-systems/sensor-bridge/internal/config"
	"github.com/gridpoint-systems/sensor-bridge/internal/dlq"
	"github.com/gridpoint-systems/sensor-bridge/internal/handlers"
	"github.com/gridpoint-systems/sensor-bridge/internal/identity"
	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/messaging"
	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
	"github.com/gridpoint-systems/sensor-bridge/internal/scheduler"
	"github.com/gridpoint-systems/sensor-bridge/internal/server"
	"github.com/gridpoint-systems/sensor-bridge/internal/service"
	"github.com/gridpoint-systems/sensor-bridge/internal/tenant"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("bridge"))
	logging.SetDefault(logger)

	slog.Info("Starting sensor bridge",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("registry_url", cfg.Registry.URL),
		slog.String("tenant_backend", cfg.Tenants.Backend),
	)

	// Initialize tenant store
	var store tenant.Store
	switch cfg.Tenants.Backend {
	case "postgres":
		connString := cfg.Tenants.Postgres.ConnString()

		log.Println("Running database migrations...")
		m, err := migrate.New("file://migrations", connString)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")

		pgStore, err := tenant.NewPostgresStore(context.Background(), connString)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
	case "static", "":
		staticStore, err := tenant.NewStaticStore(cfg.Tenants.StaticFile)
		if err != nil {
			log.Fatalf("Failed to load tenant file: %v", err)
		}
		store = staticStore
	default:
		log.Fatalf("Unknown tenant backend: %s (supported: static, postgres)", cfg.Tenants.Backend)
	}
	runner := tenant.NewRunner(store, cfg.Tenants.Parallel)

	// Initialize identity cache
	cache := identity.NewCache(nil, 0, false)
	if cfg.Redis.Enabled {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid Redis URL: %v", err)
		}
		client := redis.NewClient(opt)
		defer client.Close()
		cache = identity.NewCache(client, cfg.Redis.TTL, true)
		log.Printf("Identity cache enabled (redis: %s, ttl: %s)", cfg.Redis.URL, cfg.Redis.TTL)
	} else {
		log.Println("Identity cache disabled - every lookup goes to the registry")
	}

	// Initialize Dead Letter Queue
	var dlqWriter dlq.Writer = dlq.NoopWriter{}
	if cfg.DLQ.Enabled {
		jsClient, err := messaging.NewJetStreamClient(messaging.DefaultConfig(cfg.DLQ.NatsURL))
		if err != nil {
			log.Fatalf("Failed to connect to NATS for DLQ: %v", err)
		}
		defer jsClient.Close()
		jsDLQ, err := dlq.NewJetStreamQueue(context.Background(), jsClient)
		if err != nil {
			log.Fatalf("Failed to initialize JetStream DLQ: %v", err)
		}
		dlqWriter = jsDLQ
		log.Printf("Dead Letter Queue enabled (nats: %s)", cfg.DLQ.NatsURL)
	} else {
		log.Println("Dead Letter Queue disabled")
	}

	// Initialize registry client and the ingestion pipeline
	registryClient := registry.NewHTTPClient(registry.Config{
		URL:      cfg.Registry.URL,
		Token:    cfg.Registry.Token,
		Timeout:  cfg.Registry.Timeout,
		PageSize: cfg.Registry.PageSize,
	})

	emitter := service.NewEmitter(registryClient)
	reconciler := service.NewReconciler(registryClient, cache, emitter)
	sink := service.NewAuditSink(registryClient)
	pipeline := service.NewPipeline(runner, reconciler, sink, dlqWriter)

	// Start the daily aggregation schedule
	aggregator := service.NewAggregator(registryClient, runner)
	aggCtx, aggCancel := context.WithCancel(context.Background())
	defer aggCancel()
	go scheduler.New("open-close-aggregation", cfg.Aggregation.Interval, aggregator.Run).Run(aggCtx)

	// Initialize HTTP handlers
	verifier := handlers.NewSignatureVerifier(cfg.Webhook.SignatureSecret)
	if verifier.Enabled() {
		log.Println("Webhook signature verification enabled")
	}
	handler := handlers.NewWebhookHandler(pipeline, verifier, int64(cfg.Webhook.MaxPayloadSize))
	router := server.NewRouter(handler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Sensor bridge listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

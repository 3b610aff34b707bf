package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/watchara-p/inventory-order-service/pkg/config"
	"github.com/watchara-p/inventory-order-service/pkg/consul"
	"github.com/watchara-p/inventory-order-service/pkg/idempotency"
	"github.com/watchara-p/inventory-order-service/pkg/locker"
	"github.com/watchara-p/inventory-order-service/pkg/logging"
	"github.com/watchara-p/inventory-order-service/pkg/metrics"
	"github.com/watchara-p/inventory-order-service/pkg/outbox"
	"github.com/watchara-p/inventory-order-service/pkg/shutdown"
	"github.com/watchara-p/inventory-order-service/pkg/tracing"

	catalogapp "github.com/watchara-p/inventory-order-service/internal/catalog/application"
	cataloghttp "github.com/watchara-p/inventory-order-service/internal/catalog/infrastructure/http"
	catalogmongo "github.com/watchara-p/inventory-order-service/internal/catalog/infrastructure/mongo"
	orderapp "github.com/watchara-p/inventory-order-service/internal/order/application"
	orderhttp "github.com/watchara-p/inventory-order-service/internal/order/infrastructure/http"
	orderkafka "github.com/watchara-p/inventory-order-service/internal/order/infrastructure/kafka"
	ordermongo "github.com/watchara-p/inventory-order-service/internal/order/infrastructure/mongo"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load(log)

	// Tracing (optional)
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint, log)
		if err != nil {
			log.Error("otel init failed", "err", err)
			os.Exit(1)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// Mongo
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Error("mongo ping failed", "err", err)
		os.Exit(1)
	}
	db := client.Database(cfg.MongoDB)

	// Catalog
	productRepo := catalogmongo.NewRepository(log, db)
	catalogSvc := catalogapp.NewService(log, productRepo)
	catalogHandler := cataloghttp.NewHandler(log, catalogSvc)

	// Orders
	orderRepo := ordermongo.NewRepository(log, db)
	outboxStore := ordermongo.NewOutboxStore(log, db)
	orderSvc := orderapp.NewService(log, orderRepo, catalogSvc, locker.New(), outboxStore)
	orderHandler := orderhttp.NewHandler(log, orderSvc)

	// Outbox relay (optional, needs kafka)
	if len(cfg.KafkaBrokers) > 0 {
		writer := orderkafka.NewWriter(cfg.KafkaBrokers)
		defer writer.Close()

		dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
		relayID := fmt.Sprintf("%s-%s", cfg.ServiceName, uuid.NewString())
		relay := outbox.NewRelay(log, outboxStore, dispatch, relayID)
		go func() {
			if err := relay.Run(ctx); err != nil {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	}

	// HTTP server
	m := metrics.NewServerMetrics("server")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(cfg.ServiceName))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler())
	r.Mount("/products", catalogHandler.Routes())

	orderRoutes := orderHandler.Routes()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		idem := idempotency.NewStore(rdb, 24*time.Hour)
		orderRoutes = idempotency.Middleware(log, idem)(orderRoutes)
	}
	r.Mount("/orders", orderRoutes)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Consul registration (optional)
	if cfg.ConsulAddr != "" {
		reg, err := consul.NewClient(log, cfg.ConsulAddr, cfg.ServiceName, cfg.HTTPAddr)
		if err != nil {
			log.Error("consul registration failed", "err", err)
			os.Exit(1)
		}
		defer reg.Deregister()
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("shutdown complete")
}

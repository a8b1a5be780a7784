// Package main is the entry point of the startup map backend. It connects to
// the graph database, wires the company directory and serves the REST and
// GraphQL API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sdstartups/startupmap-backend/cache"
	"github.com/sdstartups/startupmap-backend/config"
	"github.com/sdstartups/startupmap-backend/database"
	"github.com/sdstartups/startupmap-backend/events/modules/companies"
	"github.com/sdstartups/startupmap-backend/geocode"
	"github.com/sdstartups/startupmap-backend/internal/api"
	"github.com/sdstartups/startupmap-backend/internal/kafka"
	"github.com/sdstartups/startupmap-backend/internal/services"
	"github.com/sdstartups/startupmap-backend/restapi/modules/auth"
	"go.uber.org/zap"
)

func main() {
	logger := database.InitLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	graph, err := database.Open(ctx, cfg.Graph, logger)
	if err != nil {
		logger.Fatal("Failed to open graph database", zap.Error(err))
	}
	defer func() { _ = graph.Close(ctx) }()

	readCache, closeCache := initCache(ctx, cfg, logger)
	defer closeCache()

	geocoder := geocode.New(cfg.Geocode, readCache, logger)

	var producer services.EventProducer
	if cfg.Kafka.Enabled() {
		dialer := kafka.NewDialer(cfg.Kafka)
		if err := kafka.WaitForBroker(ctx, dialer, cfg.Kafka, 10, logger); err != nil {
			logger.Fatal("Kafka broker unreachable", zap.Error(err))
		}
		p := companies.NewCompanyProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, dialer, logger)
		defer p.Close()
		producer = p
	} else {
		logger.Info("KAFKA_BROKERS not set, company events are not published")
	}

	verifier, err := initVerifier(ctx, cfg.Auth)
	if err != nil {
		logger.Fatal("Failed to initialize authentication", zap.Error(err))
	}

	svc := services.NewCompanyService(graph.Executor, graph.Queries, geocoder, readCache, producer, services.Options{
		Transactional: cfg.Graph.Transactional,
		TagsTTL:       cfg.Cache.TagsTTL,
		CompaniesTTL:  cfg.Cache.CompaniesTTL,
	}, logger)

	app, err := api.NewFiberApp(cfg, svc, verifier, logger)
	if err != nil {
		logger.Fatal("Failed to build HTTP app", zap.Error(err))
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("graph_backend", cfg.Graph.Backend))
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(app, logger)
}

// initCache returns the read cache shared by the directory and the geocoder
// together with its release function.
func initCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	if cfg.Cache.Backend != config.CacheRedis {
		return cache.NewMemory(), func() {}
	}

	r, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	return r, func() { _ = r.Close() }
}

func initVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	if cfg.Provider == config.AuthFirebase {
		return auth.InitializeFirebase(ctx, cfg.FirebaseCredentialsPath)
	}
	return auth.NewJWTVerifier(cfg.JWTSecret), nil
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(app *fiber.App, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

// Package api builds the HTTP application serving the REST and GraphQL routes.
package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sdstartups/startupmap-backend/config"
	"github.com/sdstartups/startupmap-backend/graphql"
	"github.com/sdstartups/startupmap-backend/internal/services"
	"github.com/sdstartups/startupmap-backend/restapi"
	"github.com/sdstartups/startupmap-backend/restapi/modules/auth"
	"go.uber.org/zap"
)

// NewFiberApp creates and configures a Fiber app with REST and GraphQL routes
func NewFiberApp(cfg *config.Config, svc *services.CompanyService, verifier auth.Verifier, log *zap.Logger) (*fiber.App, error) {
	schema, err := graphql.CreateSchema(svc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL schema: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:     "startupmap-backend API v1.0",
		BodyLimit:   1 * 1024 * 1024, // 1MB
		ReadTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: cfg.Server.AllowOrigins != "*",
		AllowMethods:     "GET, POST, HEAD, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(logger.New())

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	restapi.SetupRoutes(app, svc, verifier, schema, cfg.Map, log)

	return app, nil
}

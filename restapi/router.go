// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/sdstartups/startupmap-backend/config"
	"github.com/sdstartups/startupmap-backend/restapi/modules/auth"
	"github.com/sdstartups/startupmap-backend/restapi/modules/companies"
	"github.com/sdstartups/startupmap-backend/restapi/modules/mapview"
	"go.uber.org/zap"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
// Reads are open to guests; writes require a verified identity.
func SetupRoutes(app *fiber.App, d companies.Directory, verifier auth.Verifier, schema graphql.Schema, mapCfg config.MapConfig, logger *zap.Logger) {
	api := app.Group("/api/v1")

	api.Post("/graphql", auth.OptionalAuth(verifier), GraphQLHandler(schema))

	api.Get("/session", auth.OptionalAuth(verifier), auth.Session())
	api.Get("/map", mapview.GetSettings(mapCfg))
	api.Get("/tags", companies.ListTags(d))

	group := api.Group("/companies")
	group.Get("/", companies.ListCompanies(d))
	group.Get("/search", companies.SearchCompany(d))
	group.Get("/:uuid", companies.GetCompany(d))
	group.Get("/:uuid/offices", companies.GetOffices(d))
	group.Post("/", auth.RequireAuth(verifier), companies.CreateCompany(d))
	group.Put("/:uuid", auth.RequireAuth(verifier), companies.UpdateCompany(d))
	group.Delete("/:uuid", auth.RequireAuth(verifier), companies.DeleteCompany(d))

	logger.Info("API routes initialized successfully")
}

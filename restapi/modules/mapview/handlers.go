// Package mapview serves the settings the map page starts from.
package mapview

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sdstartups/startupmap-backend/config"
)

// Settings is the initial viewport of the map.
type Settings struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// GetSettings handles GET /map.
func GetSettings(cfg config.MapConfig) fiber.Handler {
	settings := Settings{Latitude: cfg.Latitude, Longitude: cfg.Longitude, Zoom: cfg.Zoom}
	return func(c *fiber.Ctx) error {
		return c.JSON(settings)
	}
}

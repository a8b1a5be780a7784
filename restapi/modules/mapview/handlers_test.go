package mapview

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sdstartups/startupmap-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettings(t *testing.T) {
	app := fiber.New()
	app.Get("/map", GetSettings(config.Default().Map))

	resp, err := app.Test(httptest.NewRequest("GET", "/map", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, Settings{Latitude: 32.715736, Longitude: -117.161087, Zoom: 10}, got)
}

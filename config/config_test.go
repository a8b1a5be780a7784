package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "neo4j", cfg.Graph.Backend)
	assert.True(t, cfg.Graph.Transactional)
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Geocode.URL)
	assert.Equal(t, 15*time.Second, cfg.Geocode.CacheTTL)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, "company-events", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 32.715736, cfg.Map.Latitude)
	assert.Equal(t, -117.161087, cfg.Map.Longitude)
	assert.Equal(t, 10, cfg.Map.Zoom)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MS_PORT", "8088")
	t.Setenv("GRAPH_BACKEND", "Arango")
	t.Setenv("GRAPH_TRANSACTIONAL", "false")
	t.Setenv("ARANGO_HOST", "arangodb")
	t.Setenv("ARANGO_PORT", "8530")
	t.Setenv("GEOCODE_CACHE_TTL", "30")
	t.Setenv("GEOCODE_TIMEOUT", "2s")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("AUTH_PROVIDER", "firebase")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load(zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Server.Port)
	assert.Equal(t, "arango", cfg.Graph.Backend)
	assert.False(t, cfg.Graph.Transactional)
	assert.Equal(t, "http://arangodb:8530", cfg.Graph.Arango.URL)
	assert.Equal(t, 30*time.Second, cfg.Geocode.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.Geocode.Timeout)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, 0, cfg.Cache.RedisDB)
	assert.Equal(t, AuthFirebase, cfg.Auth.Provider)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
graph:
  backend: neo4j
  neo4j:
    uri: neo4j://graph:7687
geocode:
  cache_ttl: 1m
auth:
  jwt_secret: from-file
map:
  zoom: 12
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MS_PORT", "9100")

	cfg, err := Load(zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "neo4j://graph:7687", cfg.Graph.Neo4j.URI)
	assert.Equal(t, time.Minute, cfg.Geocode.CacheTTL)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 12, cfg.Map.Zoom)
	assert.Equal(t, 32.715736, cfg.Map.Latitude, "unset keys keep their defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"GRAPH_BACKEND": "sqlite", "JWT_SECRET": "s"}},
		{"unknown cache", map[string]string{"CACHE_BACKEND": "disk", "JWT_SECRET": "s"}},
		{"jwt without secret", map[string]string{}},
		{"unknown auth", map[string]string{"AUTH_PROVIDER": "saml"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/nonexistent/config.yaml", "JWT_SECRET": "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(zaptest.NewLogger(t))
			assert.Error(t, err)
		})
	}
}

// Package config loads the service configuration from defaults, an optional
// YAML file named by CONFIG_FILE and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sdstartups/startupmap-backend/database"
	"github.com/sdstartups/startupmap-backend/geocode"
	"github.com/sdstartups/startupmap-backend/internal/kafka"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Authentication providers.
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Server  ServerConfig    `yaml:"server"`
	Graph   database.Config `yaml:"graph"`
	Geocode geocode.Config  `yaml:"geocode"`
	Cache   CacheConfig     `yaml:"cache"`
	Auth    AuthConfig      `yaml:"auth"`
	Kafka   kafka.Config    `yaml:"kafka"`
	Map     MapConfig       `yaml:"map"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	AllowOrigins string `yaml:"allow_origins"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TagsTTL       time.Duration `yaml:"tags_ttl"`
	CompaniesTTL  time.Duration `yaml:"companies_ttl"`
}

type AuthConfig struct {
	Provider                string `yaml:"provider"`
	JWTSecret               string `yaml:"jwt_secret"`
	FirebaseCredentialsPath string `yaml:"firebase_credentials_path"`
}

// MapConfig is the initial viewport handed to the map page.
type MapConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Zoom      int     `yaml:"zoom"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3000",
			AllowOrigins: "*",
		},
		Graph: database.Config{
			Backend:       database.BackendNeo4j,
			Transactional: true,
			Neo4j: database.Neo4jConfig{
				URI:      "neo4j://localhost:7687",
				Username: "neo4j",
				Database: "neo4j",
			},
			Arango: database.ArangoConfig{
				URL:      "http://localhost:8529",
				Username: "root",
				Database: "startupmap",
			},
			RetryInterval: 2 * time.Second,
			RetryMax:      2 * time.Minute,
		},
		Geocode: geocode.Config{
			URL:      geocode.DefaultURL,
			Timeout:  10 * time.Second,
			CacheTTL: 15 * time.Second,
		},
		Cache: CacheConfig{
			Backend:      CacheMemory,
			RedisAddr:    "localhost:6379",
			TagsTTL:      15 * time.Second,
			CompaniesTTL: 15 * time.Second,
		},
		Auth: AuthConfig{
			Provider: AuthJWT,
		},
		Kafka: kafka.Config{
			Topic: "company-events",
		},
		Map: MapConfig{
			Latitude:  32.715736,
			Longitude: -117.161087,
			Zoom:      10,
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded first when present.
func Load(logger *zap.Logger) (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(logger *zap.Logger) {
	c.Server.Port = getEnv("MS_PORT", c.Server.Port)
	c.Server.AllowOrigins = getEnv("CORS_ORIGINS", c.Server.AllowOrigins)

	c.Graph.Backend = strings.ToLower(getEnv("GRAPH_BACKEND", c.Graph.Backend))
	c.Graph.Transactional = getEnvAsBool(logger, "GRAPH_TRANSACTIONAL", c.Graph.Transactional)
	c.Graph.Neo4j.URI = getEnv("NEO4J_URI", c.Graph.Neo4j.URI)
	c.Graph.Neo4j.Username = getEnv("NEO4J_USER", c.Graph.Neo4j.Username)
	c.Graph.Neo4j.Password = getEnv("NEO4J_PASSWORD", c.Graph.Neo4j.Password)
	c.Graph.Neo4j.Database = getEnv("NEO4J_DATABASE", c.Graph.Neo4j.Database)

	if host := os.Getenv("ARANGO_HOST"); host != "" {
		c.Graph.Arango.URL = "http://" + host + ":" + getEnv("ARANGO_PORT", "8529")
	}
	c.Graph.Arango.URL = getEnv("ARANGO_URL", c.Graph.Arango.URL)
	c.Graph.Arango.Username = getEnv("ARANGO_USER", c.Graph.Arango.Username)
	c.Graph.Arango.Password = getEnv("ARANGO_PASS", c.Graph.Arango.Password)
	c.Graph.Arango.Database = getEnv("ARANGO_DATABASE", c.Graph.Arango.Database)

	c.Geocode.URL = getEnv("GEOCODE_URL", c.Geocode.URL)
	c.Geocode.Timeout = getEnvAsDuration(logger, "GEOCODE_TIMEOUT", c.Geocode.Timeout)
	c.Geocode.CacheTTL = getEnvAsDuration(logger, "GEOCODE_CACHE_TTL", c.Geocode.CacheTTL)

	c.Cache.Backend = strings.ToLower(getEnv("CACHE_BACKEND", c.Cache.Backend))
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getEnvAsInt(logger, "REDIS_DB", c.Cache.RedisDB)
	c.Cache.TagsTTL = getEnvAsDuration(logger, "TAGS_CACHE_TTL", c.Cache.TagsTTL)
	c.Cache.CompaniesTTL = getEnvAsDuration(logger, "COMPANIES_CACHE_TTL", c.Cache.CompaniesTTL)

	c.Auth.Provider = strings.ToLower(getEnv("AUTH_PROVIDER", c.Auth.Provider))
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.FirebaseCredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", c.Auth.FirebaseCredentialsPath)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.APIKey = getEnv("KAFKA_API_KEY", c.Kafka.APIKey)
	c.Kafka.APISecret = getEnv("KAFKA_API_SECRET", c.Kafka.APISecret)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("MS_PORT is required")
	}

	switch c.Graph.Backend {
	case database.BackendNeo4j:
		if c.Graph.Neo4j.URI == "" {
			return fmt.Errorf("NEO4J_URI is required")
		}
	case database.BackendArango:
		if c.Graph.Arango.URL == "" {
			return fmt.Errorf("ARANGO_URL is required")
		}
	default:
		return fmt.Errorf("GRAPH_BACKEND must be %q or %q, got %q", database.BackendNeo4j, database.BackendArango, c.Graph.Backend)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", CacheMemory, CacheRedis, c.Cache.Backend)
	}

	switch c.Auth.Provider {
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	case AuthFirebase:
	default:
		return fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthJWT, AuthFirebase, c.Auth.Provider)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(logger *zap.Logger, key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Sugar().Warnf("Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(logger *zap.Logger, key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Sugar().Warnf("Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("15s") and plain seconds ("15").
func getEnvAsDuration(logger *zap.Logger, key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Sugar().Warnf("Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

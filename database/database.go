// Package database - Handles all interaction with the graph database (Neo4j or ArangoDB)
package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported graph backends.
const (
	BackendNeo4j  = "neo4j"
	BackendArango = "arango"
)

// Config selects the graph backend and carries its connection parameters.
type Config struct {
	Backend       string        `yaml:"backend"`
	Transactional bool          `yaml:"transactional"`
	Neo4j         Neo4jConfig   `yaml:"neo4j"`
	Arango        ArangoConfig  `yaml:"arango"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	RetryMax      time.Duration `yaml:"retry_max"`
}

// GraphDB is an opened backend: its executor and the statements of its dialect.
type GraphDB struct {
	Executor Executor
	Queries  QuerySet
	close    func(ctx context.Context) error
}

// Close releases backend resources.
func (g *GraphDB) Close(ctx context.Context) error {
	if g.close == nil {
		return nil
	}
	return g.close(ctx)
}

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// InitLogger sets up the Zap Logger to log to the console in a human readable format
func InitLogger() *zap.Logger {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, _ := prodConfig.Build()
	return logger
}

// Open connects to the configured backend, waiting with exponential backoff
// until it answers, and makes sure the schema exists.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*GraphDB, error) {
	logger = logger.Named("database")

	switch strings.ToLower(cfg.Backend) {
	case BackendNeo4j, "":
		x := NewNeo4jExecutor(cfg.Neo4j, logger)
		if err := waitFor(cfg, logger, func() error { return x.VerifyConnectivity(ctx) }); err != nil {
			return nil, err
		}
		if err := EnsureSchema(ctx, x, CypherQueries); err != nil {
			return nil, err
		}
		return &GraphDB{Executor: x, Queries: CypherQueries}, nil

	case BackendArango:
		var x *ArangoExecutor
		err := waitFor(cfg, logger, func() error {
			var err error
			x, err = NewArangoExecutor(ctx, cfg.Arango, logger)
			return err
		})
		if err != nil {
			return nil, err
		}
		if err := x.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return &GraphDB{Executor: x, Queries: AQLQueries}, nil
	}

	return nil, fmt.Errorf("unsupported graph backend %q", cfg.Backend)
}

// EnsureSchema runs the schema statements of a query set. Statements are
// written to be idempotent.
func EnsureSchema(ctx context.Context, x Executor, qs QuerySet) error {
	for _, q := range qs.Schema {
		if _, err := x.Execute(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to apply schema statement %s: %w", q.Name, err)
		}
	}
	return nil
}

func waitFor(cfg Config, logger *zap.Logger, connect func() error) error {
	initialInterval := cfg.RetryInterval
	if initialInterval <= 0 {
		initialInterval = 2 * time.Second
	}
	maxElapsed := cfg.RetryMax
	if maxElapsed <= 0 {
		maxElapsed = 2 * time.Minute
	}

	// Configure exponential backoff
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxElapsed / 4
	bo.MaxElapsedTime = maxElapsed

	err := backoff.RetryNotify(connect, bo, func(err error, next time.Duration) {
		logger.Sugar().Warnf("Retrying connection to %s in %s: %v", cfg.Backend, next, err)
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Backend, err)
	}
	return nil
}

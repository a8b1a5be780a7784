package database

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jConfig holds the Bolt connection parameters.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Neo4jExecutor runs Cypher statements. Each call opens its own driver and
// closes it before returning, so the executor holds no connection state.
type Neo4jExecutor struct {
	config Neo4jConfig
	logger *zap.Logger
}

// NewNeo4jExecutor returns an executor for the given server.
func NewNeo4jExecutor(config Neo4jConfig, logger *zap.Logger) *Neo4jExecutor {
	return &Neo4jExecutor{config: config, logger: logger.Named("neo4j")}
}

func (x *Neo4jExecutor) driver() (neo4j.DriverWithContext, error) {
	auth := neo4j.BasicAuth(x.config.Username, x.config.Password, "")
	driver, err := neo4j.NewDriverWithContext(x.config.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	return driver, nil
}

// VerifyConnectivity checks that the server accepts the credentials.
func (x *Neo4jExecutor) VerifyConnectivity(ctx context.Context) error {
	driver, err := x.driver()
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	return driver.VerifyConnectivity(ctx)
}

// Execute runs one statement and returns every row.
func (x *Neo4jExecutor) Execute(ctx context.Context, q Query, params map[string]interface{}) (*Result, error) {
	driver, err := x.driver()
	if err != nil {
		return nil, err
	}
	defer driver.Close(ctx)

	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if x.config.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(x.config.Database))
	}

	res, err := neo4j.ExecuteQuery(ctx, driver, q.Text, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}

	result := convertNeo4jResult(res.Keys, res.Records, res.Summary)
	x.logger.Debug("statement executed",
		zap.String("query", q.Name),
		zap.Int("rows", len(result.Records)),
		zap.Int("nodes_created", result.Summary.NodesCreated),
		zap.Int("relationships_created", result.Summary.RelationshipsCreated))
	return result, nil
}

// InTransaction runs fn inside one managed write transaction. The driver may
// replay fn on transient failures, which is safe because every write step
// is a match-or-create.
func (x *Neo4jExecutor) InTransaction(ctx context.Context, fn func(ctx context.Context, tx Executor) error) error {
	driver, err := x.driver()
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: x.config.Database,
	})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(ctx, &neo4jTx{tx: tx, logger: x.logger})
	})
	return err
}

type neo4jTx struct {
	tx     neo4j.ManagedTransaction
	logger *zap.Logger
}

func (t *neo4jTx) Execute(ctx context.Context, q Query, params map[string]interface{}) (*Result, error) {
	res, err := t.tx.Run(ctx, q.Text, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}

	records, err := res.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}

	summary, err := res.Consume(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}

	var keys []string
	if len(records) > 0 {
		keys = records[0].Keys
	}

	t.logger.Debug("statement executed in transaction", zap.String("query", q.Name), zap.Int("rows", len(records)))
	return convertNeo4jResult(keys, records, summary), nil
}

func convertNeo4jResult(keys []string, records []*neo4j.Record, summary neo4j.ResultSummary) *Result {
	result := &Result{
		Records: make([]map[string]interface{}, 0, len(records)),
		Keys:    keys,
	}

	for _, record := range records {
		result.Records = append(result.Records, record.AsMap())
	}

	if summary != nil && summary.Counters() != nil {
		counters := summary.Counters()
		result.Summary = Summary{
			NodesCreated:         counters.NodesCreated(),
			NodesDeleted:         counters.NodesDeleted(),
			RelationshipsCreated: counters.RelationshipsCreated(),
			RelationshipsDeleted: counters.RelationshipsDeleted(),
			PropertiesSet:        counters.PropertiesSet(),
		}
	}

	return result
}

package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"go.uber.org/zap"
)

// ArangoConfig holds the HTTP connection parameters.
type ArangoConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Define a struct to hold the index definition
type indexConfig struct {
	Collection string
	IdxName    string
	IdxFields  []string
	Unique     bool
}

var (
	documentCollections = []string{LabelCompany, LabelLocation, LabelTag}
	edgeCollections     = []string{RelHasOffice, RelHadOffice, RelTagged}

	arangoIndexes = []indexConfig{
		{Collection: LabelCompany, IdxName: "company_uuid", IdxFields: []string{"UUID"}, Unique: true},
		{Collection: LabelCompany, IdxName: "company_url", IdxFields: []string{"Url"}},
		{Collection: LabelCompany, IdxName: "company_name", IdxFields: []string{"Name"}},
		{Collection: LabelTag, IdxName: "tag_name", IdxFields: []string{"Name"}, Unique: true},
		{Collection: LabelLocation, IdxName: "location_address", IdxFields: []string{"Address", "City", "State", "ZipCode"}, Unique: true},
		{Collection: RelHasOffice, IdxName: "has_office_from_to", IdxFields: []string{"_from", "_to"}},
		{Collection: RelHadOffice, IdxName: "had_office_from_to", IdxFields: []string{"_from", "_to"}},
		{Collection: RelTagged, IdxName: "tagged_from_to", IdxFields: []string{"_from", "_to"}},
	}
)

// querier is the part of a database or stream transaction that runs AQL.
type querier interface {
	Query(ctx context.Context, query string, opts *arangodb.QueryOptions) (arangodb.Cursor, error)
}

// ArangoExecutor runs AQL statements against one database. The HTTP
// connection is stateless per request, so the client is shared.
type ArangoExecutor struct {
	db     arangodb.Database
	q      querier
	logger *zap.Logger
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// NewArangoExecutor connects to the server and opens the configured database,
// creating it when it does not exist yet.
func NewArangoExecutor(ctx context.Context, config ArangoConfig, logger *zap.Logger) (*ArangoExecutor, error) {
	logger = logger.Named("arango")

	endpoint := connection.NewRoundRobinEndpoints([]string{config.URL})
	conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, config.Username, config.Password))
	client := arangodb.NewClient(conn)

	// Ask the version of the server
	versionInfo, err := client.Version(ctx)
	if err != nil {
		return nil, err
	}
	logger.Sugar().Infof("Database has version '%s' and license '%s'", versionInfo.Version, versionInfo.License)

	dblist, err := client.Databases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	exists := false
	for _, dbinfo := range dblist {
		if dbinfo.Name() == config.Database {
			exists = true
			break
		}
	}

	var db arangodb.Database
	if exists {
		var options arangodb.GetDatabaseOptions
		if db, err = client.GetDatabase(ctx, config.Database, &options); err != nil {
			return nil, fmt.Errorf("failed to get database %s: %w", config.Database, err)
		}
	} else {
		if db, err = client.CreateDatabase(ctx, config.Database, nil); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", config.Database, err)
		}
	}

	return &ArangoExecutor{db: db, q: db, logger: logger}, nil
}

// EnsureSchema creates the document and edge collections and their indexes.
func (x *ArangoExecutor) EnsureSchema(ctx context.Context) error {
	collections := make(map[string]arangodb.Collection)

	for _, name := range documentCollections {
		col, err := x.ensureCollection(ctx, name, arangodb.CollectionTypeDocument)
		if err != nil {
			return err
		}
		collections[name] = col
	}

	for _, name := range edgeCollections {
		col, err := x.ensureCollection(ctx, name, arangodb.CollectionTypeEdge)
		if err != nil {
			return err
		}
		collections[name] = col
	}

	False := false
	for _, idx := range arangoIndexes {
		found := false

		if indexes, err := collections[idx.Collection].Indexes(ctx); err == nil {
			for _, index := range indexes {
				if idx.IdxName == index.Name {
					found = true
					break
				}
			}
		}
		if found {
			continue
		}

		unique := idx.Unique
		indexOptions := arangodb.CreatePersistentIndexOptions{
			Unique: &unique,
			Sparse: &False,
			Name:   idx.IdxName,
		}
		if _, _, err := collections[idx.Collection].EnsurePersistentIndex(ctx, idx.IdxFields, &indexOptions); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.IdxName, err)
		}
		x.logger.Sugar().Infof("Created index: %s on %s%v", idx.IdxName, idx.Collection, idx.IdxFields)
	}

	return nil
}

func (x *ArangoExecutor) ensureCollection(ctx context.Context, name string, colType arangodb.CollectionType) (arangodb.Collection, error) {
	exists, err := x.db.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up collection %s: %w", name, err)
	}

	if exists {
		var options arangodb.GetCollectionOptions
		col, err := x.db.GetCollection(ctx, name, &options)
		if err != nil {
			return nil, fmt.Errorf("failed to use collection %s: %w", name, err)
		}
		return col, nil
	}

	col, err := x.db.CreateCollectionV2(ctx, name, &arangodb.CreateCollectionPropertiesV2{
		Type: &colType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return col, nil
}

// Execute runs one statement and returns every row.
func (x *ArangoExecutor) Execute(ctx context.Context, q Query, params map[string]interface{}) (*Result, error) {
	bindVars := map[string]interface{}{}
	for k, v := range params {
		bindVars[k] = v
	}

	cursor, err := x.q.Query(ctx, q.Text, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}
	defer cursor.Close()

	result := &Result{Records: []map[string]interface{}{}}
	for cursor.HasMore() {
		var rec map[string]interface{}
		if _, err := cursor.ReadDocument(ctx, &rec); err != nil {
			return nil, fmt.Errorf("%s: %w", q.Name, err)
		}
		result.Records = append(result.Records, rec)
	}

	result.Summary = summaryFromStats(cursor.Statistics())
	if len(result.Records) > 0 {
		result.Keys = columnsOf(result.Records[0])
	}

	x.logger.Debug("statement executed",
		zap.String("query", q.Name),
		zap.Int("rows", len(result.Records)),
		zap.Int64("writes_executed", result.Summary.WritesExecuted))
	return result, nil
}

func summaryFromStats(stats arangodb.CursorStats) Summary {
	return Summary{
		WritesExecuted: int64(stats.WritesExecutedInt),
		WritesIgnored:  int64(stats.WritesIgnoredInt),
	}
}

// InTransaction runs fn inside one stream transaction over the directory
// collections. It commits when fn returns nil and aborts otherwise.
func (x *ArangoExecutor) InTransaction(ctx context.Context, fn func(ctx context.Context, tx Executor) error) error {
	if x.db == nil {
		return fmt.Errorf("transaction already in progress")
	}

	cols := append(append([]string{}, documentCollections...), edgeCollections...)
	tx, err := x.db.BeginTransaction(ctx, arangodb.TransactionCollections{Write: cols}, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, &ArangoExecutor{q: tx, logger: x.logger}); err != nil {
		if abortErr := tx.Abort(ctx, nil); abortErr != nil {
			x.logger.Warn("failed to abort transaction", zap.Error(abortErr))
		}
		return err
	}

	if err := tx.Commit(ctx, nil); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

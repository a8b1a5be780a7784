package database

import (
	"context"
	"sort"
)

// Query is a named, parameterized statement in the dialect of one backend.
// The name identifies the step in logs and errors.
type Query struct {
	Name string
	Text string
}

// Summary holds the write counters reported for one statement. Neo4j fills the
// node/relationship counters, ArangoDB the writes counters.
type Summary struct {
	NodesCreated         int   `json:"nodes_created"`
	NodesDeleted         int   `json:"nodes_deleted"`
	RelationshipsCreated int   `json:"relationships_created"`
	RelationshipsDeleted int   `json:"relationships_deleted"`
	PropertiesSet        int   `json:"properties_set"`
	WritesExecuted       int64 `json:"writes_executed"`
	WritesIgnored        int64 `json:"writes_ignored"`
}

// Result is everything a statement returned: the rows, the write summary and
// the column names.
type Result struct {
	Records []map[string]interface{}
	Summary Summary
	Keys    []string
}

// Executor runs one parameterized statement and returns all of its rows.
// Failures are returned as-is; nothing is retried.
type Executor interface {
	Execute(ctx context.Context, q Query, params map[string]interface{}) (*Result, error)
}

// Transactor is implemented by executors that can run several statements in
// one database-native write transaction. fn receives an Executor bound to the
// transaction; returning an error aborts it.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Executor) error) error
}

// columnsOf returns the sorted column names of a row, used by backends that
// do not report keys themselves.
func columnsOf(rec map[string]interface{}) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

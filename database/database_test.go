package database

import (
	"context"
	"strings"
	"testing"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingExecutor struct {
	names []string
}

func (r *recordingExecutor) Execute(_ context.Context, q Query, _ map[string]interface{}) (*Result, error) {
	r.names = append(r.names, q.Name)
	return &Result{}, nil
}

func TestQuerySetsAreComplete(t *testing.T) {
	for _, qs := range []QuerySet{CypherQueries, AQLQueries} {
		t.Run(qs.Dialect, func(t *testing.T) {
			seen := map[string]bool{}
			for _, q := range qs.Statements() {
				assert.NotEmpty(t, q.Name)
				assert.NotEmpty(t, strings.TrimSpace(q.Text), q.Name)
				assert.False(t, seen[q.Name], "duplicate statement %s", q.Name)
				seen[q.Name] = true
			}
		})
	}
}

func TestQuerySetsShareNames(t *testing.T) {
	cypher := CypherQueries.Statements()
	aql := AQLQueries.Statements()
	require.Equal(t, len(cypher), len(aql))
	for i := range cypher {
		assert.Equal(t, cypher[i].Name, aql[i].Name)
	}
}

func TestQuerySetsBindSameParameters(t *testing.T) {
	cypher := CypherQueries.Statements()
	aql := AQLQueries.Statements()
	for i := range cypher {
		for _, p := range []string{"uuid", "name", "url", "tags", "address", "lat"} {
			inCypher := strings.Contains(cypher[i].Text, "$"+p)
			inAQL := strings.Contains(aql[i].Text, "@"+p)
			assert.Equal(t, inCypher, inAQL, "%s binds %s differently", cypher[i].Name, p)
		}
	}
}

func TestEnsureSchema(t *testing.T) {
	x := &recordingExecutor{}
	require.NoError(t, EnsureSchema(context.Background(), x, CypherQueries))
	assert.Len(t, x.names, len(CypherQueries.Schema))

	x = &recordingExecutor{}
	require.NoError(t, EnsureSchema(context.Background(), x, AQLQueries))
	assert.Empty(t, x.names)
}

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("STARTUPMAP_TEST_VAR", "set")
	assert.Equal(t, "set", GetEnvDefault("STARTUPMAP_TEST_VAR", "default"))
	assert.Equal(t, "default", GetEnvDefault("STARTUPMAP_TEST_UNSET", "default"))
}

func TestOpenUnsupportedBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "sqlite"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestColumnsOf(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, columnsOf(map[string]interface{}{"C": 1, "A": 2, "B": 3}))
}

func TestSummaryFromStats(t *testing.T) {
	got := summaryFromStats(arangodb.CursorStats{WritesExecutedInt: 3, WritesIgnoredInt: 1})
	assert.Equal(t, Summary{WritesExecuted: 3, WritesIgnored: 1}, got)
}

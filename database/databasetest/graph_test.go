package databasetest

import (
	"context"
	"errors"
	"testing"

	"github.com/sdstartups/startupmap-backend/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_HandlesEveryStatement(t *testing.T) {
	for _, qs := range []database.QuerySet{database.CypherQueries, database.AQLQueries} {
		t.Run(qs.Dialect, func(t *testing.T) {
			g := NewGraph()
			for _, q := range qs.Statements() {
				_, err := g.Execute(context.Background(), q, map[string]interface{}{})
				assert.NoError(t, err, q.Name)
			}
		})
	}
}

func TestGraph_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()
	boom := errors.New("boom")

	err := g.InTransaction(ctx, func(ctx context.Context, tx database.Executor) error {
		_, err := tx.Execute(ctx, database.CypherQueries.MergeTags, map[string]interface{}{"tags": []string{"ai"}})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, g.TagCount())

	err = g.InTransaction(ctx, func(ctx context.Context, tx database.Executor) error {
		_, err := tx.Execute(ctx, database.CypherQueries.MergeTags, map[string]interface{}{"tags": []string{"ai"}})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, g.TagCount())
	assert.Equal(t, 2, g.Transactions)
}

func TestGraph_MergeLocationKeepsCoordinates(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()
	params := map[string]interface{}{"address": "1 Main", "city": "SD", "state": "CA", "zip": "1", "lat": 1.0, "lon": 2.0}

	res, err := g.Execute(ctx, database.CypherQueries.MergeLocation, params)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.NodesCreated)

	params["lat"], params["lon"] = 9.0, 9.0
	res, err = g.Execute(ctx, database.CypherQueries.MergeLocation, params)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.NodesCreated)
	assert.Equal(t, 1.0, res.Records[0]["Latitude"])
	assert.Equal(t, []string{"Address", "City", "Latitude", "Longitude", "State", "ZipCode"}, res.Keys)
}

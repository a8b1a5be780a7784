//go:build integration
// +build integration

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sdstartups/startupmap-backend/database"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// startContainer skips the test when Docker is not reachable.
func startContainer(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest) (string, string) {
	t.Helper()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration test")
	}
	if err := provider.Health(ctx); err != nil {
		t.Skip("Docker not running, skipping integration test")
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start %s", req.Image)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate %s: %v", req.Image, err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, req.ExposedPorts[0])
	require.NoError(t, err)

	return host, port.Port()
}

func openNeo4j(t *testing.T, ctx context.Context) *database.GraphDB {
	host, port := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env:          map[string]string{"NEO4J_AUTH": "none"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("7687/tcp"),
			wait.ForLog("Started."),
		).WithDeadline(120 * time.Second),
	})

	// Credentials are ignored with NEO4J_AUTH=none.
	db, err := database.Open(ctx, database.Config{
		Backend: database.BackendNeo4j,
		Neo4j: database.Neo4jConfig{
			URI:      fmt.Sprintf("bolt://%s:%s", host, port),
			Username: "neo4j",
			Password: "ignored",
		},
		RetryInterval: time.Second,
		RetryMax:      time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return db
}

func openArango(t *testing.T, ctx context.Context) *database.GraphDB {
	host, port := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "arangodb:3.11",
		ExposedPorts: []string{"8529/tcp"},
		Env:          map[string]string{"ARANGO_NO_AUTH": "1"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8529/tcp"),
			wait.ForLog("is ready for business"),
		).WithDeadline(120 * time.Second),
	})

	db, err := database.Open(ctx, database.Config{
		Backend: database.BackendArango,
		Arango: database.ArangoConfig{
			URL:      fmt.Sprintf("http://%s:%s", host, port),
			Username: "root",
			Database: "startupmap",
		},
		RetryInterval: time.Second,
		RetryMax:      time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return db
}

func TestIntegration_Neo4j(t *testing.T) {
	ctx := context.Background()
	runDirectoryProperties(t, ctx, openNeo4j(t, ctx))
}

func TestIntegration_Arango(t *testing.T) {
	ctx := context.Background()
	runDirectoryProperties(t, ctx, openArango(t, ctx))
}

// runDirectoryProperties drives the company service against a live backend
// with its real statements. Subtests share one database and run in order.
func runDirectoryProperties(t *testing.T, ctx context.Context, db *database.GraphDB) {
	geocoder := &MockGeocoder{fail: map[string]bool{}, lat: 32.7157, lon: -117.1611}
	service := NewCompanyService(db.Executor, db.Queries, geocoder, nil, &MockProducer{}, DefaultOptions, zaptest.NewLogger(t))

	created, err := service.CreateCompany(ctx, acme())
	require.NoError(t, err)

	t.Run("acme example", func(t *testing.T) {
		list, err := service.ListCompanies(ctx, []string{"ai"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.UUID, list[0].UUID)
		assert.Equal(t, []string{"ai", "hardware"}, list[0].Tags)
		assert.InDelta(t, 32.7157, list[0].Lat, 1e-9)
		assert.InDelta(t, -117.1611, list[0].Lon, 1e-9)
		assert.Equal(t, 2019, list[0].StartupYear)
	})

	t.Run("create is idempotent on url", func(t *testing.T) {
		again := acme()
		again.Name = "Acme Renamed"
		second, err := service.CreateCompany(ctx, again)
		require.NoError(t, err)
		assert.Equal(t, created.UUID, second.UUID)
		assert.Equal(t, "Acme", second.Name)

		all, err := service.ListCompanies(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("location is shared by address", func(t *testing.T) {
		beta := acme()
		beta.Name = "Beta"
		beta.URL = "beta.io"
		beta.Tags = []string{"ai", "biotech"}
		_, err := service.CreateCompany(ctx, beta)
		require.NoError(t, err)
		assert.Equal(t, 1, geocoder.Calls(), "stored address must not be geocoded again")
	})

	t.Run("filter matches any tag", func(t *testing.T) {
		for _, tc := range []struct {
			tags  []string
			names []string
		}{
			{[]string{"ai"}, []string{"Acme", "Beta"}},
			{[]string{"hardware"}, []string{"Acme"}},
			{[]string{"hardware", "biotech"}, []string{"Acme", "Beta"}},
			{[]string{" hardware "}, []string{"Acme"}},
			{[]string{"quantum"}, nil},
			{[]string{"AI"}, nil},
		} {
			list, err := service.ListCompanies(ctx, tc.tags)
			require.NoError(t, err)
			var names []string
			for _, c := range list {
				names = append(names, c.Name)
			}
			assert.ElementsMatch(t, tc.names, names, "tags %v", tc.tags)
		}
	})

	t.Run("tags are sorted and unique", func(t *testing.T) {
		tags, err := service.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ai", "biotech", "hardware"}, tags)
	})

	t.Run("find round trip", func(t *testing.T) {
		found, err := service.FindCompany(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, created.UUID, found.UUID)
		assert.Equal(t, "acme.com", found.URL)
		assert.Equal(t, "123 Main St", found.Address)

		_, err = service.FindCompany(ctx, "Nobody")
		assert.ErrorIs(t, err, e.ErrNotFound)
	})

	t.Run("address change keeps history", func(t *testing.T) {
		current, err := service.GetCompany(ctx, created.UUID)
		require.NoError(t, err)
		updated := current
		updated.Address = "500 Harbor Dr"
		_, err = service.UpdateCompany(ctx, current, updated)
		require.NoError(t, err)

		history, err := service.OfficeHistory(ctx, created.UUID)
		require.NoError(t, err)
		require.Len(t, history.Current, 1)
		require.Len(t, history.Former, 1)
		assert.Equal(t, "500 Harbor Dr", history.Current[0].Address)
		assert.Equal(t, "123 Main St", history.Former[0].Address)
	})

	t.Run("create on known url moves office", func(t *testing.T) {
		moved := acme()
		moved.Address = "9 Other Rd"
		_, err := service.CreateCompany(ctx, moved)
		require.NoError(t, err)

		history, err := service.OfficeHistory(ctx, created.UUID)
		require.NoError(t, err)
		require.Len(t, history.Current, 1)
		assert.Equal(t, "9 Other Rd", history.Current[0].Address)
		assert.Len(t, history.Former, 2)
	})

	t.Run("delete keeps locations and tags", func(t *testing.T) {
		require.NoError(t, service.DeleteCompany(ctx, created.UUID))

		_, err := service.FindCompany(ctx, "Acme")
		assert.ErrorIs(t, err, e.ErrNotFound)

		// 9 Other Rd was only ever used by Acme
		moved := acme()
		moved.Address = "9 Other Rd"
		result, err := db.Executor.Execute(ctx, db.Queries.FindLocation, moved.Office().Params())
		require.NoError(t, err)
		assert.Len(t, result.Records, 1)

		// hardware is no longer referenced by any company
		tags, err := service.ListTags(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"ai", "biotech"}, tags)
	})
}

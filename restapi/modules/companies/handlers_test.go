package companies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sdstartups/startupmap-backend/database"
	"github.com/sdstartups/startupmap-backend/database/databasetest"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/internal/services"
	"github.com/sdstartups/startupmap-backend/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubGeocoder struct{}

func (stubGeocoder) Resolve(_ context.Context, address, _, _, _ string) (float64, float64, error) {
	if address == "Nowhere" {
		return 0, 0, fmt.Errorf("%w: no match", e.ErrAddressUnresolvable)
	}
	return 32.7157, -117.1611, nil
}

func newTestApp(t *testing.T) (*fiber.App, *databasetest.Graph) {
	graph := databasetest.NewGraph()
	opts := services.DefaultOptions
	opts.TagsTTL, opts.CompaniesTTL = 0, 0
	svc := services.NewCompanyService(graph, database.CypherQueries, stubGeocoder{}, nil, nil, opts, zaptest.NewLogger(t))

	app := fiber.New()
	app.Get("/tags", ListTags(svc))
	app.Get("/companies", ListCompanies(svc))
	app.Get("/companies/search", SearchCompany(svc))
	app.Get("/companies/:uuid", GetCompany(svc))
	app.Get("/companies/:uuid/offices", GetOffices(svc))
	app.Post("/companies", CreateCompany(svc))
	app.Put("/companies/:uuid", UpdateCompany(svc))
	app.Delete("/companies/:uuid", DeleteCompany(svc))
	return app, graph
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func acmeRequest() CompanyRequest {
	return CompanyRequest{
		Name:        "Acme",
		Description: "Rockets and anvils",
		StartupYear: 2019,
		URL:         "acme.com",
		Tags:        []string{"hardware", "ai"},
		Address:     "123 Main St",
		City:        "San Diego",
		State:       "CA",
		ZipCode:     "92101",
	}
}

func TestCompanyLifecycle(t *testing.T) {
	app, graph := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/companies", acmeRequest())
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var created model.Company
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotEqual(t, uuid.Nil, created.UUID)
	assert.Equal(t, []string{"ai", "hardware"}, created.Tags)
	assert.InDelta(t, 32.7157, created.Lat, 1e-9)

	status, body = do(t, app, http.MethodGet, "/tags", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `["ai","hardware"]`, string(body))

	status, body = do(t, app, http.MethodGet, "/companies?tags=ai,biotech", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []model.Company
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Acme", list[0].Name)

	status, body = do(t, app, http.MethodGet, "/companies?tags=biotech", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = do(t, app, http.MethodGet, "/companies/search?name=Acme", nil)
	require.Equal(t, fiber.StatusOK, status)
	var found model.Company
	require.NoError(t, json.Unmarshal(body, &found))
	assert.Equal(t, created.UUID, found.UUID)

	update := acmeRequest()
	update.Address = "500 Harbor Dr"
	update.Tags = []string{"robotics"}
	path := "/companies/" + created.UUID.String()
	status, body = do(t, app, http.MethodPut, path, update)
	require.Equal(t, fiber.StatusOK, status, string(body))
	var updated model.Company
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "500 Harbor Dr", updated.Address)
	assert.Equal(t, []string{"robotics"}, updated.Tags)

	status, body = do(t, app, http.MethodGet, path+"/offices", nil)
	require.Equal(t, fiber.StatusOK, status)
	var history model.OfficeHistory
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Current, 1)
	require.Len(t, history.Former, 1)
	assert.Equal(t, "123 Main St", history.Former[0].Address)

	status, _ = do(t, app, http.MethodDelete, path, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, graph.CompanyCount())

	status, _ = do(t, app, http.MethodGet, path, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestErrorStatuses(t *testing.T) {
	app, _ := newTestApp(t)
	missing := "/companies/" + uuid.New().String()

	unresolvable := acmeRequest()
	unresolvable.Address = "Nowhere"
	nameless := acmeRequest()
	nameless.Name = ""

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"search without name", http.MethodGet, "/companies/search", nil, fiber.StatusBadRequest},
		{"search unknown name", http.MethodGet, "/companies/search?name=Nobody", nil, fiber.StatusNotFound},
		{"malformed uuid", http.MethodGet, "/companies/not-a-uuid", nil, fiber.StatusBadRequest},
		{"unknown uuid", http.MethodGet, missing, nil, fiber.StatusNotFound},
		{"offices of unknown uuid", http.MethodGet, missing + "/offices", nil, fiber.StatusNotFound},
		{"create without name", http.MethodPost, "/companies", nameless, fiber.StatusBadRequest},
		{"create unresolvable", http.MethodPost, "/companies", unresolvable, fiber.StatusUnprocessableEntity},
		{"update unknown", http.MethodPut, missing, acmeRequest(), fiber.StatusNotFound},
		{"delete unknown", http.MethodDelete, missing, nil, fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status, string(body))
		})
	}
}

func TestCreateCompany_InvalidBody(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/companies", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(fmt.Errorf("x: %w", e.ErrInvalidInput)))
	assert.Equal(t, fiber.StatusUnauthorized, StatusFor(e.ErrUnauthenticated))
	assert.Equal(t, fiber.StatusNotFound, StatusFor(fmt.Errorf("x: %w", e.ErrNotFound)))
	assert.Equal(t, fiber.StatusUnprocessableEntity, StatusFor(e.ErrAddressUnresolvable))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(e.ErrInvalidRecord))
}

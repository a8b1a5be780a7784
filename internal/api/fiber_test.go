package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sdstartups/startupmap-backend/config"
	"github.com/sdstartups/startupmap-backend/database"
	"github.com/sdstartups/startupmap-backend/database/databasetest"
	"github.com/sdstartups/startupmap-backend/internal/services"
	"github.com/sdstartups/startupmap-backend/restapi/modules/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixedGeocoder struct{}

func (fixedGeocoder) Resolve(context.Context, string, string, string, string) (float64, float64, error) {
	return 32.7157, -117.1611, nil
}

func newApp(t *testing.T) (*fiber.App, string) {
	logger := zaptest.NewLogger(t)
	svc := services.NewCompanyService(databasetest.NewGraph(), database.CypherQueries, fixedGeocoder{}, nil, nil,
		services.Options{Transactional: true}, logger)
	verifier := auth.NewJWTVerifier("secret")
	token, err := verifier.GenerateJWT("ada@example.com", time.Hour)
	require.NoError(t, err)

	app, err := NewFiberApp(config.Default(), svc, verifier, logger)
	require.NoError(t, err)
	return app, token
}

func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func graphQL(t *testing.T, app *fiber.App, token, query string, vars map[string]interface{}) gqlResponse {
	t.Helper()
	status, body := request(t, app, http.MethodPost, "/api/v1/graphql", token, map[string]interface{}{
		"query":     query,
		"variables": vars,
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var out gqlResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

const createMutation = `mutation($input: CompanyInput!) {
	createCompany(input: $input) { uuid name tags lat }
}`

func acmeInput() map[string]interface{} {
	return map[string]interface{}{
		"input": map[string]interface{}{
			"name":         "Acme",
			"url":          "acme.com",
			"startup_year": 2019,
			"tags":         []string{"hardware", "ai"},
			"address":      "123 Main St",
			"city":         "San Diego",
			"state":        "CA",
			"zip_code":     "92101",
		},
	}
}

func TestHealthAndSession(t *testing.T) {
	app, token := newApp(t)

	status, body := request(t, app, http.MethodGet, "/", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	_, body = request(t, app, http.MethodGet, "/api/v1/session", "", nil)
	assert.JSONEq(t, `{"authenticated":false}`, string(body))

	_, body = request(t, app, http.MethodGet, "/api/v1/session", token, nil)
	assert.JSONEq(t, `{"authenticated":true,"email":"ada@example.com"}`, string(body))

	status, body = request(t, app, http.MethodGet, "/api/v1/map", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"latitude":32.715736,"longitude":-117.161087,"zoom":10}`, string(body))
}

func TestWritesRequireAuth(t *testing.T) {
	app, token := newApp(t)
	company := map[string]interface{}{
		"name": "Acme", "address": "123 Main St", "city": "San Diego", "state": "CA", "zip_code": "92101",
	}

	status, _ := request(t, app, http.MethodPost, "/api/v1/companies", "", company)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := request(t, app, http.MethodPost, "/api/v1/companies", token, company)
	assert.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = request(t, app, http.MethodGet, "/api/v1/companies", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
}

func TestGraphQL(t *testing.T) {
	app, token := newApp(t)

	guest := graphQL(t, app, "", createMutation, acmeInput())
	require.NotEmpty(t, guest.Errors)
	assert.Contains(t, guest.Errors[0].Message, "authentication required")

	created := graphQL(t, app, token, createMutation, acmeInput())
	require.Empty(t, created.Errors)
	var company struct {
		UUID string   `json:"uuid"`
		Name string   `json:"name"`
		Tags []string `json:"tags"`
		Lat  float64  `json:"lat"`
	}
	require.NoError(t, json.Unmarshal(created.Data["createCompany"], &company))
	assert.Equal(t, "Acme", company.Name)
	assert.Equal(t, []string{"ai", "hardware"}, company.Tags)
	assert.InDelta(t, 32.7157, company.Lat, 1e-9)

	tags := graphQL(t, app, "", `{ tags }`, nil)
	require.Empty(t, tags.Errors)
	assert.JSONEq(t, `["ai","hardware"]`, string(tags.Data["tags"]))

	filtered := graphQL(t, app, "", `query($tags: [String]) { companies(tags: $tags) { name } }`,
		map[string]interface{}{"tags": []string{"ai"}})
	require.Empty(t, filtered.Errors)
	assert.JSONEq(t, `[{"name":"Acme"}]`, string(filtered.Data["companies"]))

	byName := graphQL(t, app, "", `{ company(name: "Acme") { uuid } }`, nil)
	require.Empty(t, byName.Errors)
	assert.JSONEq(t, `{"uuid":"`+company.UUID+`"}`, string(byName.Data["company"]))

	update := acmeInput()
	update["uuid"] = company.UUID
	update["input"].(map[string]interface{})["address"] = "500 Harbor Dr"
	updated := graphQL(t, app, token, `mutation($uuid: String!, $input: CompanyInput!) {
		updateCompany(uuid: $uuid, input: $input) { address }
	}`, update)
	require.Empty(t, updated.Errors)
	assert.JSONEq(t, `{"address":"500 Harbor Dr"}`, string(updated.Data["updateCompany"]))

	history := graphQL(t, app, "", `query($uuid: String!) {
		officeHistory(uuid: $uuid) { current { address } former { address } }
	}`, map[string]interface{}{"uuid": company.UUID})
	require.Empty(t, history.Errors)
	assert.JSONEq(t, `{"current":[{"address":"500 Harbor Dr"}],"former":[{"address":"123 Main St"}]}`,
		string(history.Data["officeHistory"]))

	deleted := graphQL(t, app, token, `mutation($uuid: String!) { deleteCompany(uuid: $uuid) }`,
		map[string]interface{}{"uuid": company.UUID})
	require.Empty(t, deleted.Errors)
	assert.JSONEq(t, `true`, string(deleted.Data["deleteCompany"]))

	gone := graphQL(t, app, "", `query($uuid: String!) { companyById(uuid: $uuid) { name } }`,
		map[string]interface{}{"uuid": company.UUID})
	require.NotEmpty(t, gone.Errors)
	assert.Contains(t, gone.Errors[0].Message, "not found")
}

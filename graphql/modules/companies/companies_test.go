package companies

import (
	"context"
	"testing"

	"github.com/google/uuid"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/restapi/modules/auth"
	"github.com/stretchr/testify/assert"
)

func TestCompanyFromInput(t *testing.T) {
	c := companyFromInput(map[string]interface{}{
		"name":         "Acme",
		"startup_year": 2019,
		"tags":         []interface{}{"ai", nil, "hardware"},
		"zip_code":     "92101",
		"logo":         42,
	})

	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, 2019, c.StartupYear)
	assert.Equal(t, []string{"ai", "hardware"}, c.Tags)
	assert.Equal(t, "92101", c.ZipCode)
	assert.Equal(t, "", c.Logo)
	assert.Equal(t, uuid.Nil, c.UUID)
}

func TestArgumentHelpers(t *testing.T) {
	assert.Equal(t, []string{}, stringList(nil))
	assert.Equal(t, []string{"a", "b"}, stringList([]interface{}{"a", 1, "b"}))

	_, err := parseUUID("nope")
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	id := uuid.New()
	got, err := parseUUID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestRequireIdentity(t *testing.T) {
	assert.ErrorIs(t, requireIdentity(context.Background()), e.ErrUnauthenticated)
	assert.NoError(t, requireIdentity(auth.WithIdentity(context.Background(), auth.Identity{Email: "a@b.c"})))
}

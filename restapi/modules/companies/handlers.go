// Package companies implements the REST API handlers for the company directory.
package companies

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/model"
	"github.com/sdstartups/startupmap-backend/util"
)

// Directory is the part of the company service the handlers use.
type Directory interface {
	ListTags(ctx context.Context) ([]string, error)
	ListCompanies(ctx context.Context, tags []string) ([]model.Company, error)
	FindCompany(ctx context.Context, name string) (model.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (model.Company, error)
	OfficeHistory(ctx context.Context, id uuid.UUID) (model.OfficeHistory, error)
	CreateCompany(ctx context.Context, input model.Company) (model.Company, error)
	UpdateCompany(ctx context.Context, original, updated model.Company) (model.Company, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
}

// CompanyRequest is the body of create and update requests. Coordinates are
// never taken from clients.
type CompanyRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartupYear int      `json:"startup_year"`
	URL         string   `json:"url"`
	LinkedInURL string   `json:"linkedin_url"`
	Logo        string   `json:"logo"`
	Tags        []string `json:"tags"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zip_code"`
}

// Company converts the request into a model.Company without identity.
func (r CompanyRequest) Company() model.Company {
	return model.Company{
		Name:        r.Name,
		Description: r.Description,
		StartupYear: r.StartupYear,
		URL:         r.URL,
		LinkedInURL: r.LinkedInURL,
		Logo:        r.Logo,
		Tags:        r.Tags,
		Address:     r.Address,
		City:        r.City,
		State:       r.State,
		ZipCode:     r.ZipCode,
	}
}

// StatusFor maps a directory error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, e.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, e.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, e.ErrAddressUnresolvable):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

func companyID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return uuid.Nil, errors.Join(e.ErrInvalidInput, err)
	}
	return id, nil
}

// ListTags handles GET /tags.
func ListTags(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := d.ListTags(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(tags)
	}
}

// ListCompanies handles GET /companies with an optional ?tags=a,b filter.
func ListCompanies(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := d.ListCompanies(c.UserContext(), util.SplitTags(c.Query("tags")))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(list)
	}
}

// SearchCompany handles GET /companies/search?name=.
func SearchCompany(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		company, err := d.FindCompany(c.UserContext(), c.Query("name"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(company)
	}
}

// GetCompany handles GET /companies/:uuid.
func GetCompany(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := companyID(c)
		if err != nil {
			return fail(c, err)
		}
		company, err := d.GetCompany(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(company)
	}
}

// GetOffices handles GET /companies/:uuid/offices.
func GetOffices(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := companyID(c)
		if err != nil {
			return fail(c, err)
		}
		history, err := d.OfficeHistory(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(history)
	}
}

// CreateCompany handles POST /companies.
func CreateCompany(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CompanyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		company, err := d.CreateCompany(c.UserContext(), req.Company())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(company)
	}
}

// UpdateCompany handles PUT /companies/:uuid. The stored company is the
// original the edit is applied to.
func UpdateCompany(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := companyID(c)
		if err != nil {
			return fail(c, err)
		}

		var req CompanyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		ctx := c.UserContext()
		original, err := d.GetCompany(ctx, id)
		if err != nil {
			return fail(c, err)
		}

		company, err := d.UpdateCompany(ctx, original, req.Company())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(company)
	}
}

// DeleteCompany handles DELETE /companies/:uuid.
func DeleteCompany(d Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := companyID(c)
		if err != nil {
			return fail(c, err)
		}
		if err := d.DeleteCompany(c.UserContext(), id); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Company deleted",
		})
	}
}

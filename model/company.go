// Package model defines the directory entities stored in the graph database
// and the schemas that coerce database rows into them.
package model

import (
	"fmt"

	"github.com/google/uuid"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/util"
)

// Company is a directory entry. The office fields are populated only on read,
// from the Location currently attached through HAS_OFFICE.
type Company struct {
	UUID        uuid.UUID `json:"uuid"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartupYear int       `json:"startup_year"`
	URL         string    `json:"url"`
	LinkedInURL string    `json:"linkedin_url"`
	Logo        string    `json:"logo"`
	Tags        []string  `json:"tags"`

	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	ZipCode string  `json:"zip_code"`
}

// NewCompany creates a Company with default values.
func NewCompany() *Company {
	return &Company{
		Tags: []string{},
	}
}

// Office returns the address part of the company as a Location without coordinates.
func (c Company) Office() Location {
	return Location{
		Address: c.Address,
		City:    c.City,
		State:   c.State,
		ZipCode: c.ZipCode,
	}
}

// Validate checks the fields a write operation needs.
func (c Company) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	}
	if c.StartupYear < 0 {
		return fmt.Errorf("%w: startup year must not be negative", e.ErrInvalidInput)
	}
	if c.Office().Empty() {
		return fmt.Errorf("%w: office address is required", e.ErrInvalidInput)
	}
	return nil
}

// Normalize trims the tag set and replaces a nil tag list with an empty one.
func (c *Company) Normalize() {
	c.Tags = util.NormalizeTags(c.Tags)
}

// CompanyFromRecord coerces one result row into a Company. Absent columns keep
// their defaults; a missing or non-string Name is reported as ErrInvalidRecord.
func CompanyFromRecord(rec map[string]interface{}) (Company, error) {
	c := *NewCompany()

	name, err := requiredString(rec, "Name")
	if err != nil {
		return Company{}, err
	}
	c.Name = name

	id, err := optionalString(rec, "UUID")
	if err != nil {
		return Company{}, err
	}
	if id != "" {
		if c.UUID, err = uuid.Parse(id); err != nil {
			return Company{}, fmt.Errorf("%w: UUID: %v", e.ErrInvalidRecord, err)
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"Description", &c.Description},
		{"Url", &c.URL},
		{"LinkedInUrl", &c.LinkedInURL},
		{"Logo", &c.Logo},
		{"Address", &c.Address},
		{"City", &c.City},
		{"State", &c.State},
		{"ZipCode", &c.ZipCode},
	}
	for _, s := range strs {
		if *s.dst, err = optionalString(rec, s.key); err != nil {
			return Company{}, err
		}
	}

	if c.StartupYear, err = optionalInt(rec, "StartupYear"); err != nil {
		return Company{}, err
	}
	if c.Lat, err = optionalFloat(rec, "Lat"); err != nil {
		return Company{}, err
	}
	if c.Lon, err = optionalFloat(rec, "Lon"); err != nil {
		return Company{}, err
	}

	tags, err := optionalStrings(rec, "Tags")
	if err != nil {
		return Company{}, err
	}
	c.Tags = util.NormalizeTags(tags)

	return c, nil
}

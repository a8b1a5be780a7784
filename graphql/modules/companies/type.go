// Package companies defines the GraphQL types, queries and mutations of the
// company directory.
package companies

import (
	"github.com/graphql-go/graphql"
	"github.com/sdstartups/startupmap-backend/model"
)

// CompanyType represents a directory entry with its current office.
var CompanyType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Company",
	Fields: graphql.Fields{
		"uuid": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if c, ok := p.Source.(model.Company); ok {
					return c.UUID.String(), nil
				}
				return nil, nil
			},
		},
		"name":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description":  &graphql.Field{Type: graphql.String},
		"startup_year": &graphql.Field{Type: graphql.Int},
		"url":          &graphql.Field{Type: graphql.String},
		"linkedin_url": &graphql.Field{Type: graphql.String},
		"logo":         &graphql.Field{Type: graphql.String},
		"tags":         &graphql.Field{Type: graphql.NewList(graphql.String)},
		"lat":          &graphql.Field{Type: graphql.Float},
		"lon":          &graphql.Field{Type: graphql.Float},
		"address":      &graphql.Field{Type: graphql.String},
		"city":         &graphql.Field{Type: graphql.String},
		"state":        &graphql.Field{Type: graphql.String},
		"zip_code":     &graphql.Field{Type: graphql.String},
	},
})

// LocationType represents an office address.
var LocationType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Location",
	Fields: graphql.Fields{
		"address":   &graphql.Field{Type: graphql.String},
		"city":      &graphql.Field{Type: graphql.String},
		"state":     &graphql.Field{Type: graphql.String},
		"zip_code":  &graphql.Field{Type: graphql.String},
		"latitude":  &graphql.Field{Type: graphql.Float},
		"longitude": &graphql.Field{Type: graphql.Float},
	},
})

// OfficeHistoryType lists current and former offices.
var OfficeHistoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OfficeHistory",
	Fields: graphql.Fields{
		"current": &graphql.Field{Type: graphql.NewList(LocationType)},
		"former":  &graphql.Field{Type: graphql.NewList(LocationType)},
	},
})

// CompanyInputType is the payload of createCompany and updateCompany.
var CompanyInputType = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CompanyInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"description":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"startup_year": &graphql.InputObjectFieldConfig{Type: graphql.Int},
		"url":          &graphql.InputObjectFieldConfig{Type: graphql.String},
		"linkedin_url": &graphql.InputObjectFieldConfig{Type: graphql.String},
		"logo":         &graphql.InputObjectFieldConfig{Type: graphql.String},
		"tags":         &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.String)},
		"address":      &graphql.InputObjectFieldConfig{Type: graphql.String},
		"city":         &graphql.InputObjectFieldConfig{Type: graphql.String},
		"state":        &graphql.InputObjectFieldConfig{Type: graphql.String},
		"zip_code":     &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

// companyFromInput reads a CompanyInput argument.
func companyFromInput(in map[string]interface{}) model.Company {
	c := *model.NewCompany()
	str := func(key string) string {
		s, _ := in[key].(string)
		return s
	}
	c.Name = str("name")
	c.Description = str("description")
	c.URL = str("url")
	c.LinkedInURL = str("linkedin_url")
	c.Logo = str("logo")
	c.Address = str("address")
	c.City = str("city")
	c.State = str("state")
	c.ZipCode = str("zip_code")
	if year, ok := in["startup_year"].(int); ok {
		c.StartupYear = year
	}
	if tags, ok := in["tags"].([]interface{}); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				c.Tags = append(c.Tags, s)
			}
		}
	}
	return c
}

package companies

import (
	"context"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/model"
)

// Directory is the part of the company service the resolvers use.
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

// GetQueryFields returns the directory queries to be mounted in the root schema.
func GetQueryFields(d Directory) graphql.Fields {
	return graphql.Fields{
		"tags": &graphql.Field{
			Type: graphql.NewList(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return d.ListTags(p.Context)
			},
		},
		"companies": &graphql.Field{
			Type: graphql.NewList(CompanyType),
			Args: graphql.FieldConfigArgument{
				"tags": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return d.ListCompanies(p.Context, stringList(p.Args["tags"]))
			},
		},
		"company": &graphql.Field{
			Type: CompanyType,
			Args: graphql.FieldConfigArgument{
				"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return d.FindCompany(p.Context, p.Args["name"].(string))
			},
		},
		"companyById": &graphql.Field{
			Type: CompanyType,
			Args: graphql.FieldConfigArgument{
				"uuid": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := parseUUID(p.Args["uuid"])
				if err != nil {
					return nil, err
				}
				return d.GetCompany(p.Context, id)
			},
		},
		"officeHistory": &graphql.Field{
			Type: OfficeHistoryType,
			Args: graphql.FieldConfigArgument{
				"uuid": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id, err := parseUUID(p.Args["uuid"])
				if err != nil {
					return nil, err
				}
				return d.OfficeHistory(p.Context, id)
			},
		},
	}
}

func parseUUID(arg interface{}) (uuid.UUID, error) {
	s, _ := arg.(string)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, e.ErrInvalidInput
	}
	return id, nil
}

func stringList(arg interface{}) []string {
	list, _ := arg.([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

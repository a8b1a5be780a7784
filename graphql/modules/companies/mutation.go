package companies

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/restapi/modules/auth"
)

// GetMutationFields returns the directory mutations. All of them require a
// verified identity on the request context.
func GetMutationFields(d Directory) graphql.Fields {
	return graphql.Fields{
		"createCompany": &graphql.Field{
			Type: CompanyType,
			Args: graphql.FieldConfigArgument{
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(CompanyInputType)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := requireIdentity(p.Context); err != nil {
					return nil, err
				}
				input, _ := p.Args["input"].(map[string]interface{})
				return d.CreateCompany(p.Context, companyFromInput(input))
			},
		},
		"updateCompany": &graphql.Field{
			Type: CompanyType,
			Args: graphql.FieldConfigArgument{
				"uuid":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(CompanyInputType)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := requireIdentity(p.Context); err != nil {
					return nil, err
				}
				id, err := parseUUID(p.Args["uuid"])
				if err != nil {
					return nil, err
				}
				original, err := d.GetCompany(p.Context, id)
				if err != nil {
					return nil, err
				}
				input, _ := p.Args["input"].(map[string]interface{})
				return d.UpdateCompany(p.Context, original, companyFromInput(input))
			},
		},
		"deleteCompany": &graphql.Field{
			Type: graphql.Boolean,
			Args: graphql.FieldConfigArgument{
				"uuid": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if err := requireIdentity(p.Context); err != nil {
					return nil, err
				}
				id, err := parseUUID(p.Args["uuid"])
				if err != nil {
					return nil, err
				}
				if err := d.DeleteCompany(p.Context, id); err != nil {
					return nil, err
				}
				return true, nil
			},
		},
	}
}

func requireIdentity(ctx context.Context) error {
	if ctx == nil {
		return e.ErrUnauthenticated
	}
	if _, ok := auth.IdentityFromContext(ctx); !ok {
		return fmt.Errorf("%w: sign in to edit the directory", e.ErrUnauthenticated)
	}
	return nil
}

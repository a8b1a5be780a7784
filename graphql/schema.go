// Package graphql assembles the GraphQL schema of the directory.
package graphql

import (
	"github.com/graphql-go/graphql"
	"github.com/sdstartups/startupmap-backend/graphql/modules/companies"
)

// CreateSchema builds the root query and mutation types over d.
func CreateSchema(d companies.Directory) (graphql.Schema, error) {
	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: companies.GetQueryFields(d),
	})

	rootMutation := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Mutation",
		Fields: companies.GetMutationFields(d),
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    rootQuery,
		Mutation: rootMutation,
	})
}

package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/meimberg-io/awesomeapps/internal/domain"
	"github.com/meimberg-io/awesomeapps/internal/service"
)

// NewSchema builds the GraphQL schema exposed at /graphql. The read-side
// queries are tag lookups and tag-filtered service listings; all mutations go
// through the REST API.
func NewSchema(tags *service.TagService) (graphql.Schema, error) {
	serviceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Service",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).ID, nil
				},
			},
			"documentId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).DocumentID, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).Name, nil
				},
			},
			"slug": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).Slug, nil
				},
			},
			"locale": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).Locale, nil
				},
			},
			"reviewCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).ReviewCount, nil
				},
			},
			"averageRating": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Float),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return serviceFromSource(p.Source).AverageRating, nil
				},
			},
			"publishedAt": &graphql.Field{
				Type: graphql.DateTime,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s := serviceFromSource(p.Source)
					if s.PublishedAt == nil {
						return nil, nil
					}
					return *s.PublishedAt, nil
				},
			},
		},
	})

	tagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tag",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return tagFromSource(p.Source).ID, nil
				},
			},
			"documentId": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return tagFromSource(p.Source).DocumentID, nil
				},
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return tagFromSource(p.Source).Name, nil
				},
			},
			// count returns the number of published services carrying this
			// tag plus every tag in additionalTags.
			"count": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Args: graphql.FieldConfigArgument{
					"additionalTags": &graphql.ArgumentConfig{
						Type: graphql.NewList(graphql.NewNonNull(graphql.ID)),
					},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					tag := tagFromSource(p.Source)
					return tags.CountServices(p.Context, tag.DocumentID, stringListArg(p.Args, "additionalTags"))
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"tag": &graphql.Field{
				Type: tagType,
				Args: graphql.FieldConfigArgument{
					"documentId": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.ID),
					},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					documentID, _ := p.Args["documentId"].(string)
					return tags.GetTag(p.Context, documentID)
				},
			},
			"servicesbytags": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(serviceType))),
				Args: graphql.FieldConfigArgument{
					"tags": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID))),
					},
					"sort": &graphql.ArgumentConfig{
						Type: graphql.String,
					},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					sort, _ := p.Args["sort"].(string)
					return tags.ServicesByTags(p.Context, stringListArg(p.Args, "tags"), sort)
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build graphql schema: %w", err)
	}
	return schema, nil
}

// serviceFromSource normalizes the resolver source, which graphql-go hands us
// either as a value or a pointer depending on how the parent field returned it.
func serviceFromSource(src any) *domain.Service {
	switch v := src.(type) {
	case *domain.Service:
		return v
	case domain.Service:
		return &v
	default:
		return &domain.Service{}
	}
}

func tagFromSource(src any) *domain.Tag {
	switch v := src.(type) {
	case *domain.Tag:
		return v
	case domain.Tag:
		return &v
	default:
		return &domain.Tag{}
	}
}

func stringListArg(args map[string]any, name string) []string {
	raw, ok := args[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

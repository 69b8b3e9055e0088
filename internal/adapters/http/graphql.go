package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ImagingLayer",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.String},
			"name": &graphql.Field{Type: graphql.String},
		},
	})

	boxType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundingBox",
		Fields: graphql.Fields{
			"south": &graphql.Field{Type: graphql.Float},
			"north": &graphql.Field{Type: graphql.Float},
			"west":  &graphql.Field{Type: graphql.Float},
			"east":  &graphql.Field{Type: graphql.Float},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"displayName": &graphql.Field{Type: graphql.String},
			"boundingBox": &graphql.Field{Type: boxType},
			"bounds": &graphql.Field{
				Type:        graphql.NewList(graphql.NewList(graphql.Float)),
				Description: "Map view: [[south, west], [north, east]]",
			},
			"imageryBBox": &graphql.Field{
				Type:        graphql.NewList(graphql.Float),
				Description: "Imagery query: [west, south, east, north]",
			},
			"instanceId": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"layers": &graphql.Field{
				Type:        graphql.NewList(layerType),
				Description: "Imaging layers analysed by every report",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return layerMaps(deps.Imagery.Layers()), nil
				},
			},
			"location": &graphql.Field{
				Type:        locationType,
				Description: "Resolve a free-text prompt to a framed place",
				Args: graphql.FieldConfigArgument{
					"prompt": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					prompt, _ := p.Args["prompt"].(string)
					loc, err := deps.Locations.Resolve(p.Context, prompt)
					if err != nil {
						return nil, err
					}
					return locationMap(loc, deps.InstanceID), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func layerMaps(layers []domain.ImagingLayer) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(layers))
	for _, l := range layers {
		out = append(out, map[string]interface{}{"id": l.ID, "name": l.Name})
	}
	return out
}

func locationMap(loc domain.ResolvedLocation, instanceID string) map[string]interface{} {
	b := loc.BoundingBox
	view := b.MapView()
	query := b.ImageryQuery()
	return map[string]interface{}{
		"displayName": loc.DisplayName,
		"boundingBox": map[string]interface{}{
			"south": b.South, "north": b.North, "west": b.West, "east": b.East,
		},
		"bounds":      [][]float64{view[0][:], view[1][:]},
		"imageryBBox": query[:],
		"instanceId":  instanceID,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

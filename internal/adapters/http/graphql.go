package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ridecompare/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	linksType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeepLinks",
		Fields: graphql.Fields{
			"uber":        &graphql.Field{Type: graphql.String},
			"bolt":        &graphql.Field{Type: graphql.String},
			"bolt_web":    &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"links": &graphql.Field{
				Type:        linksType,
				Description: "Build the provider deep links for a trip",
				Args: graphql.FieldConfigArgument{
					"pickup":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"dropoff":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"pickup_point": &graphql.ArgumentConfig{Type: geoPointInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					trip := domain.TripRequest{
						PickupText:  p.Args["pickup"].(string),
						DropoffText: p.Args["dropoff"].(string),
					}
					if raw, ok := p.Args["pickup_point"].(map[string]interface{}); ok {
						pt := domain.GeoPoint{Lat: raw["lat"].(float64), Lon: raw["lon"].(float64)}
						if !pt.Valid() {
							return nil, domain.ErrValidation
						}
						trip.PickupPoint = &pt
					}
					if err := trip.Validate(); err != nil {
						return nil, err
					}
					return deps.Compare.BuildLinks(p.Context, trip)
				},
			},
			"geocode": &graphql.Field{
				Type:        geoPointType,
				Description: "Resolve an address to a coordinate rounded to six decimals",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					address := strings.TrimSpace(p.Args["address"].(string))
					if pt := deps.Locations.ForwardGeocode(p.Context, address); pt != nil {
						return pt, nil
					}
					return nil, nil
				},
			},
			"reverseGeocode": &graphql.Field{
				Type:        graphql.String,
				Description: "Resolve a coordinate to an address line",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					if !pt.Valid() {
						return nil, domain.ErrValidation
					}
					if address, ok := deps.Locations.ReverseGeocode(p.Context, pt); ok {
						return address, nil
					}
					return nil, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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
			return errBadRequest(c, MsgInvalidBody)
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

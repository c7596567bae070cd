package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/pokemap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	resourceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Resource",
		Fields: graphql.Fields{
			"name": &graphql.Field{Type: graphql.String},
			"url":  &graphql.Field{Type: graphql.String},
		},
	})

	statType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stat",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.StatInfo).Stat.Name, nil
				},
			},
			"base_stat": &graphql.Field{Type: graphql.Int},
			"effort":    &graphql.Field{Type: graphql.Int},
		},
	})

	spritesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Sprites",
		Fields: graphql.Fields{
			"front_default": &graphql.Field{Type: graphql.String},
			"front_shiny":   &graphql.Field{Type: graphql.String},
			"back_default":  &graphql.Field{Type: graphql.String},
			"back_shiny":    &graphql.Field{Type: graphql.String},
		},
	})

	pokemonType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pokemon",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.Int},
			"name":            &graphql.Field{Type: graphql.String},
			"base_experience": &graphql.Field{Type: graphql.Int},
			"height":          &graphql.Field{Type: graphql.Int},
			"weight":          &graphql.Field{Type: graphql.Int},
			"is_default":      &graphql.Field{Type: graphql.Boolean},
			"species":         &graphql.Field{Type: resourceType},
			"sprites":         &graphql.Field{Type: spritesType},
			"stats":           &graphql.Field{Type: graphql.NewList(statType)},
			"types": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Type names in slot order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pk := pokemonSource(p.Source)
					out := make([]string, 0, len(pk.Types))
					for _, t := range pk.Types {
						out = append(out, t.Type.Name)
					}
					return out, nil
				},
			},
			"abilities": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Ability names in slot order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pk := pokemonSource(p.Source)
					out := make([]string, 0, len(pk.Abilities))
					for _, a := range pk.Abilities {
						out = append(out, a.Ability.Name)
					}
					return out, nil
				},
			},
		},
	})

	mapItemType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapItem",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"label":      &graphql.Field{Type: graphql.String},
			"coordinate": &graphql.Field{Type: coordinateType},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pokemon": &graphql.Field{
				Type:        pokemonType,
				Description: "Get a Pokémon by name or id",
				Args: graphql.FieldConfigArgument{
					"key": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Pokemon.Get(p.Context, p.Args["key"].(string))
				},
			},
			"pokemonNames": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "One page of catalog names",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Pokemon.ListNames(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
				},
			},
			"pokemonPage": &graphql.Field{
				Type:        graphql.NewList(pokemonType),
				Description: "One page of catalog entities",
				Args: graphql.FieldConfigArgument{
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
					"sortByName": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pokemon, _, err := deps.Pokemon.ListPage(p.Context, p.Args["offset"].(int), p.Args["limit"].(int), p.Args["sortByName"].(bool))
					return pokemon, err
				},
			},
			"favorite": &graphql.Field{
				Type:        pokemonType,
				Description: "The favorite Pokémon, or null",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pk, err := deps.Favorite.Pokemon(p.Context)
					if err != nil || pk == nil {
						return nil, err
					}
					return pk, nil
				},
			},
			"mapItems": &graphql.Field{
				Type:        graphql.NewList(mapItemType),
				Description: "Items inside a viewport; every item when lat and lon are omitted",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":    &graphql.ArgumentConfig{Type: graphql.Float},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, hasLat := p.Args["lat"].(float64)
					lon, hasLon := p.Args["lon"].(float64)
					if !hasLat && !hasLon {
						return deps.Map.All(), nil
					}
					if hasLat != hasLon {
						return nil, errors.New("lat and lon must be given together")
					}
					radius, ok := p.Args["radius"].(float64)
					if !ok {
						radius = deps.defaultRadius()
					}
					center := domain.Coordinate{Lat: lat, Lon: lon}
					if err := center.ValidateRange(); err != nil {
						return nil, err
					}
					return deps.Map.Visible(&domain.Viewport{Center: center, Radius: radius})
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"placeItem": &graphql.Field{
				Type:        mapItemType,
				Description: "Place a new map item",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.String},
					"label": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					if strings.TrimSpace(id) == "" {
						id = uuid.NewString()
					}
					at := domain.Coordinate{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					if err := at.ValidateRange(); err != nil {
						return nil, err
					}
					return deps.Map.Place(p.Context, id, p.Args["label"].(string), at)
				},
			},
			"clearItems": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Remove every map item",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Map.Clear(p.Context); err != nil {
						return false, err
					}
					return true, nil
				},
			},
			"setFavorite": &graphql.Field{
				Type:        pokemonType,
				Description: "Mark a Pokémon as the favorite",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Favorite.Set(p.Context, p.Args["name"].(string))
				},
			},
			"clearFavorite": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Remove the favorite",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Favorite.Clear(p.Context); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// pokemonSource accepts both value and pointer sources from resolvers.
func pokemonSource(src interface{}) domain.Pokemon {
	switch v := src.(type) {
	case *domain.Pokemon:
		return *v
	case domain.Pokemon:
		return v
	default:
		panic(fmt.Sprintf("unexpected pokemon source %T", src))
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
		if strings.TrimSpace(req.Query) == "" {
			return errBadRequest(c, "query is required")
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

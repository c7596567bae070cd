package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samirrijal/pokemap/internal/core/domain"
)

// ListPokemonHandler returns a page of catalog names, or full entities with expand=true.
func ListPokemonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit, err := parsePage(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		ctx := c.UserContext()
		pg := Pagination{Offset: offset, Limit: limit}

		if c.QueryBool("expand", false) {
			sortBy := c.Query("sort")
			if sortBy != "" && sortBy != "name" {
				return errBadRequest(c, "sort must be 'name' or empty")
			}
			pokemon, listed, err := deps.Pokemon.ListPage(ctx, offset, limit, sortBy == "name")
			if err != nil {
				return errFromDomain(c, err, true)
			}
			// a short names page means we reached the end of the catalog
			SetLinkHeaders(c, pg, listed == limit)
			return c.JSON(PaginatedResponse{Data: pokemon, Pagination: pg})
		}

		names, err := deps.Pokemon.ListNames(ctx, offset, limit)
		if err != nil {
			return errFromDomain(c, err, true)
		}
		SetLinkHeaders(c, pg, len(names) == limit)
		return c.JSON(PaginatedResponse{Data: names, Pagination: pg})
	}
}

// GetPokemonHandler returns a single entity by name or numeric id.
func GetPokemonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Params("key"))
		if key == "" {
			return errBadRequest(c, "name or id is required")
		}
		if len(key) > 100 {
			return errBadRequest(c, "key too long (max 100 characters)")
		}

		p, err := deps.Pokemon.Get(c.UserContext(), key)
		if err != nil {
			return errFromDomain(c, err, true)
		}
		return c.JSON(p)
	}
}

// favoriteResponse is the body of every /v1/favorite response.
type favoriteResponse struct {
	Name    *string         `json:"name"`
	Pokemon *domain.Pokemon `json:"pokemon,omitempty"`
}

// GetFavoriteHandler returns the current favorite, resolving the entity when expand=true.
func GetFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, ok := deps.Favorite.Name()
		if !ok {
			return c.JSON(favoriteResponse{})
		}
		resp := favoriteResponse{Name: &name}
		if c.QueryBool("expand", false) {
			p, err := deps.Favorite.Pokemon(c.UserContext())
			if err != nil {
				return errFromDomain(c, err, true)
			}
			resp.Pokemon = p
		}
		return c.JSON(resp)
	}
}

// SetFavoriteHandler replaces the favorite with a known Pokémon.
func SetFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		p, err := deps.Favorite.Set(c.UserContext(), body.Name)
		if err != nil {
			return errFromDomain(c, err, true)
		}
		return c.JSON(favoriteResponse{Name: &p.Name, Pokemon: p})
	}
}

// ClearFavoriteHandler removes the favorite.
func ClearFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Favorite.Clear(c.UserContext()); err != nil {
			return errFromDomain(c, err, false)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// mapItemsResponse is the body of GET /v1/map/items.
type mapItemsResponse struct {
	Viewport *domain.Viewport `json:"viewport,omitempty"`
	Count    int              `json:"count"`
	Items    []domain.MapItem `json:"items"`
}

// ListMapItemsHandler returns the items visible in a viewport.
// Without lat and lon every item is returned.
func ListMapItemsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vp, err := parseViewport(c, deps.defaultRadius())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		var items []domain.MapItem
		switch c.Query("source", "registry") {
		case "registry":
			items, err = deps.Map.Visible(vp)
		case "store":
			items, err = deps.Map.Stored(c.UserContext(), vp)
		default:
			return errBadRequest(c, "source must be registry or store")
		}
		if err != nil {
			return errFromDomain(c, err, false)
		}
		if items == nil {
			items = []domain.MapItem{}
		}
		return c.JSON(mapItemsResponse{Viewport: vp, Count: len(items), Items: items})
	}
}

// placeRequest is the body of POST /v1/map/items.
type placeRequest struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
}

// PlaceMapItemHandler adds a new item. A missing id is replaced with a random UUID.
func PlaceMapItemHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req placeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}
		at := domain.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
		if err := at.ValidateRange(); err != nil {
			return errBadRequest(c, err.Error())
		}
		id := strings.TrimSpace(req.ID)
		if id == "" {
			id = uuid.NewString()
		}

		item, err := deps.Map.Place(c.UserContext(), id, req.Label, at)
		if err != nil {
			return errFromDomain(c, err, false)
		}
		c.Location("/v1/map/items?lat=" + formatFloat(item.Coordinate.Lat) + "&lon=" + formatFloat(item.Coordinate.Lon))
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// ClearMapItemsHandler removes every item.
func ClearMapItemsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Map.Clear(c.UserContext()); err != nil {
			return errFromDomain(c, err, false)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// parseViewport reads lat, lon and radius. It returns a nil viewport when
// neither lat nor lon is given.
func parseViewport(c *fiber.Ctx, defaultRadius float64) (*domain.Viewport, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errString("lat and lon must be given together")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errString("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errString("lon must be a number")
	}
	radius := defaultRadius
	if r := c.Query("radius"); r != "" {
		radius, err = strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, errString("radius must be a number")
		}
	}

	vp := &domain.Viewport{Center: domain.Coordinate{Lat: lat, Lon: lon}, Radius: radius}
	if err := vp.Center.ValidateRange(); err != nil {
		return nil, err
	}
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	return vp, nil
}

type errString string

func (e errString) Error() string { return string(e) }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

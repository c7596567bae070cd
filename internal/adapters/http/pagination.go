package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total,omitempty"`
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePage reads offset and limit query parameters, clamping limit.
func parsePage(c *fiber.Ctx) (offset, limit int, err error) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", defaultPageLimit)
	if offset < 0 {
		return 0, 0, fmt.Errorf("offset must not be negative")
	}
	if limit <= 0 {
		return 0, 0, fmt.Errorf("limit must be positive")
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit, nil
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses.
// Total is unknown for the upstream catalog, so "last" is omitted when it is zero.
func SetLinkHeaders(c *fiber.Ctx, p Pagination, hasNext bool) {
	base := c.Path()
	var links []string

	links = append(links, fmt.Sprintf(`<%s?offset=0&limit=%d>; rel="first"`, base, p.Limit))

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="prev"`, base, prev, p.Limit))
	}

	if hasNext {
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="next"`, base, p.Offset+p.Limit, p.Limit))
	}

	if p.Total > 0 {
		lastOffset := p.Total - p.Limit
		if lastOffset < 0 {
			lastOffset = 0
		}
		links = append(links, fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="last"`, base, lastOffset, p.Limit))
	}

	c.Set("Link", strings.Join(links, ", "))
}

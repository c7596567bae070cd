// Package pokeapi implements ports.PokemonSource against https://pokeapi.co.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
	"github.com/samirrijal/pokemap/internal/pkg/telemetry"
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Client is a small fasthttp-based PokeAPI client.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "pokemap",
			MaxConnsPerHost:     32,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

// FetchPokemon returns a single entity by name or id.
func (c *Client) FetchPokemon(ctx context.Context, key string) (*domain.Pokemon, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, fmt.Errorf("%w: pokemon name or id is required", domain.ErrInvalidArgument)
	}

	var p domain.Pokemon
	if err := c.getJSON(ctx, "pokemon", c.baseURL+"/pokemon/"+url.PathEscape(key), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchPokemonNames returns names in [offset, offset+limit), in catalog order.
func (c *Client) FetchPokemonNames(ctx context.Context, offset, limit int) ([]string, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: offset must be >= 0 and limit > 0", domain.ErrInvalidArgument)
	}

	u := fmt.Sprintf("%s/pokemon?limit=%d&offset=%d", c.baseURL, limit, offset)
	var page domain.NamedPage
	if err := c.getJSON(ctx, "pokemon_list", u, &page); err != nil {
		return nil, err
	}
	return page.Names(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, uri string, out any) error {
	ctx, span := telemetry.Tracer("pokeapi").Start(ctx, "pokeapi."+endpoint)
	defer span.End()
	span.SetAttributes(attribute.String("http.url", uri))

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	start := time.Now()
	err := c.http.DoTimeout(req, resp, timeout)
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("GET %s: %w", uri, err)
	}

	status := resp.StatusCode()
	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", status))

	switch {
	case status == fasthttp.StatusNotFound:
		return fmt.Errorf("%s: %w", uri, domain.ErrNotFound)
	case status != fasthttp.StatusOK:
		span.SetStatus(codes.Error, "unexpected status")
		return fmt.Errorf("HTTP %d for %s", status, uri)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s: %w", uri, err)
	}
	return nil
}

// Package osrm provides a client for the OSRM route service (driving profile).
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/provider/resilience"
	"github.com/voisilab/voisimap/internal/routing"
	"github.com/voisilab/voisimap/pkg/geo"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "osrm"

	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	// BaseURL is the OSRM server base URL (optional, defaults to the demo server).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OSRM route service client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OSRM client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetRoute retrieves a driving route with full geometry between two points.
func (c *Client) GetRoute(ctx context.Context, req routing.RouteRequest) (*routing.RouteResponse, error) {
	if !req.Start.Valid() {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_START",
			Message:  "invalid start coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if !req.End.Valid() {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_END",
			Message:  "invalid end coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	// OSRM takes {lon},{lat} pairs in the URL path.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=geojson&alternatives=false",
		c.baseURL,
		req.Start.Lon, req.Start.Lat,
		req.End.Lon, req.End.Lat,
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Float64("start_lat", req.Start.Lat).
		Float64("start_lon", req.Start.Lon).
		Float64("end_lat", req.End.Lat).
		Float64("end_lon", req.End.Lon).
		Msg("requesting route from OSRM")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var osrmResp osrmResponse
	if err := json.Unmarshal(respBody, &osrmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// Anything but code "Ok" with at least one route is "no route".
	if osrmResp.Code != codeOK || len(osrmResp.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     osrmResp.Code,
			Message:  noRouteMessage(osrmResp),
			Err:      routing.ErrNoRouteFound,
		}
	}

	result := c.toRouteResponse(&osrmResp.Routes[0])

	c.logger.Debug().
		Float64("distance_km", result.Route.DistanceKm).
		Int("geometry_points", len(result.Route.Geometry)).
		Msg("received route from OSRM")

	return result, nil
}

// handleErrorResponse maps OSRM HTTP error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var osrmResp osrmResponse
	_ = json.Unmarshal(body, &osrmResp) //nolint:errcheck // fall through to status-based mapping

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "routing provider rate limit exceeded",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusBadRequest:
		if osrmResp.Code == codeNoRoute || osrmResp.Code == codeNoSegment {
			return &routing.Error{
				Provider: ProviderName,
				Code:     osrmResp.Code,
				Message:  noRouteMessage(osrmResp),
				Err:      routing.ErrNoRouteFound,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     osrmResp.Code,
			Message:  "routing provider rejected the request",
			Err:      routing.ErrInvalidCoordinates,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

func noRouteMessage(resp osrmResponse) string {
	if resp.Message != "" {
		return resp.Message
	}
	return "no route found between the given points"
}

// toRouteResponse converts an OSRM route to the domain model: GeoJSON
// [lon, lat] pairs are swapped to internal [lat, lon] order and distance is
// converted from meters to kilometers. Durations stay in seconds.
func (c *Client) toRouteResponse(r *osrmRoute) *routing.RouteResponse {
	geometry := make([]geo.Coordinate, 0, len(r.Geometry.Coordinates))
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		geometry = append(geometry, geo.Coordinate{Lat: pair[1], Lon: pair[0]})
	}

	return &routing.RouteResponse{
		Route: routing.Route{
			DistanceKm:      r.Distance / 1000,
			DurationSeconds: r.Duration,
			Geometry:        geometry,
		},
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}

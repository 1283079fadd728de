// Package routing provides driving route computation between a visitor's
// position and a PPN location.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/voisilab/voisimap/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no drivable route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetRoute retrieves a driving route between two points, including the
	// full path geometry.
	GetRoute(ctx context.Context, req RouteRequest) (*RouteResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RouteRequest is the request for computing a route. Start is the visitor's
// position, End the selected PPN.
type RouteRequest struct {
	Start geo.Coordinate
	End   geo.Coordinate
}

// RouteResponse is the computed route.
type RouteResponse struct {
	Route     Route
	Provider  string
	FetchedAt time.Time
}

// Route holds the aggregate figures and the path geometry of a driving
// route. Geometry is in internal [lat, lon] order; providers returning
// GeoJSON [lon, lat] pairs must swap during decode.
type Route struct {
	DistanceKm      float64
	DurationSeconds float64
	Geometry        []geo.Coordinate
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

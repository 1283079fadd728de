// Package worker provides background job processing for the Voisilab map service.
package worker

import (
	"time"

	"github.com/voisilab/voisimap/pkg/geo"
)

// WarmHub represents an origin point routes are pre-fetched from.
type WarmHub struct {
	// Name is the human-readable name of the hub.
	Name string

	// Coordinate is the hub's position.
	Coordinate geo.Coordinate

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// WarmConfig holds configuration for the route warm job.
type WarmConfig struct {
	// Hubs are the origin points to warm routes from.
	// If empty, uses DefaultWarmHubs.
	Hubs []WarmHub

	// Concurrency is the number of concurrent route fetches.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each route fetch.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultWarmConfig returns the default warm configuration.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Hubs:        DefaultWarmHubs(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultWarmHubs returns the default warm hubs for Côte d'Ivoire.
// Focuses on the cities where fablab visitors usually start their trip.
func DefaultWarmHubs() []WarmHub {
	return []WarmHub{
		{
			Name:       "Abidjan",
			Priority:   1,
			Coordinate: geo.Coordinate{Lat: 5.3364, Lon: -4.0267},
		},
		{
			Name:       "Bouaké",
			Priority:   1,
			Coordinate: geo.Coordinate{Lat: 7.6906, Lon: -5.0303},
		},
		{
			Name:       "Yamoussoukro",
			Priority:   1,
			Coordinate: geo.Coordinate{Lat: 6.8276, Lon: -5.2893},
		},
		{
			Name:       "San-Pédro",
			Priority:   2,
			Coordinate: geo.Coordinate{Lat: 4.7485, Lon: -6.6363},
		},
		{
			Name:       "Korhogo",
			Priority:   2,
			Coordinate: geo.Coordinate{Lat: 9.4580, Lon: -5.6294},
		},
		{
			Name:       "Daloa",
			Priority:   3,
			Coordinate: geo.Coordinate{Lat: 6.8770, Lon: -6.4502},
		},
		{
			Name:       "Man",
			Priority:   3,
			Coordinate: geo.Coordinate{Lat: 7.4125, Lon: -7.5536},
		},
	}
}

// HubCount returns the number of configured hubs.
func (c WarmConfig) HubCount() int {
	return len(c.Hubs)
}

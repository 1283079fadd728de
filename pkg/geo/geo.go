// Package geo provides great-circle distance and bounding box utilities for
// WGS84 coordinates.
package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is finite and within WGS84 ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return false
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers using the haversine formula. Callers must supply finite values.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// DistanceMeters returns the great-circle distance between two coordinates in
// meters.
func DistanceMeters(a, b Coordinate) float64 {
	return DistanceKm(a, b) * 1000
}

// PathLengthKm returns the total length of an ordered coordinate path in
// kilometers.
func PathLengthKm(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += DistanceKm(coords[i-1], coords[i])
	}
	return total
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Bounds returns the smallest bounding box covering all the given coordinates.
// Returns a zero box when no coordinates are given.
func Bounds(coords ...Coordinate) BoundingBox {
	if len(coords) == 0 {
		return BoundingBox{}
	}

	box := BoundingBox{
		MinLat: coords[0].Lat,
		MinLon: coords[0].Lon,
		MaxLat: coords[0].Lat,
		MaxLon: coords[0].Lon,
	}
	for _, c := range coords[1:] {
		box.MinLat = math.Min(box.MinLat, c.Lat)
		box.MinLon = math.Min(box.MinLon, c.Lon)
		box.MaxLat = math.Max(box.MaxLat, c.Lat)
		box.MaxLon = math.Max(box.MaxLon, c.Lon)
	}
	return box
}

// Center returns the geometric center of the box.
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Pad returns the box expanded by the given fraction of its span on every
// side. A fraction of 0.1 grows each dimension by 20% in total.
func (b BoundingBox) Pad(fraction float64) BoundingBox {
	if fraction <= 0 {
		return b
	}
	latPad := (b.MaxLat - b.MinLat) * fraction
	lonPad := (b.MaxLon - b.MinLon) * fraction
	return BoundingBox{
		MinLat: b.MinLat - latPad,
		MinLon: b.MinLon - lonPad,
		MaxLat: b.MaxLat + latPad,
		MaxLon: b.MaxLon + lonPad,
	}
}

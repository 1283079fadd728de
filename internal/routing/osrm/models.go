package osrm

// osrmResponse represents the OSRM route service response.
type osrmResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message,omitempty"`
	Routes    []osrmRoute    `json:"routes"`
	Waypoints []osrmWaypoint `json:"waypoints,omitempty"`
}

// osrmRoute represents a single route in the OSRM response.
type osrmRoute struct {
	Geometry osrmGeometry `json:"geometry"`
	Distance float64      `json:"distance"` // meters
	Duration float64      `json:"duration"` // seconds
	Legs     []osrmLeg    `json:"legs,omitempty"`
}

// osrmGeometry is a GeoJSON LineString. Coordinates are [lon, lat] pairs.
type osrmGeometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// osrmLeg represents a route leg between waypoints.
type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Summary  string  `json:"summary,omitempty"`
}

// osrmWaypoint represents a snapped input coordinate.
type osrmWaypoint struct {
	Name     string    `json:"name,omitempty"`
	Location []float64 `json:"location,omitempty"`
}

// OSRM response codes.
const (
	codeOK          = "Ok"
	codeNoRoute     = "NoRoute"
	codeNoSegment   = "NoSegment"
	codeInvalidURL  = "InvalidUrl"
	codeInvalidVal  = "InvalidValue"
	codeTooBig      = "TooBig"
)

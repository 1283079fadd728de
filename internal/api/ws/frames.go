// Package ws streams geolocation from a connected map client into its
// navigation session and pushes locate commands and camera moves back out.
package ws

// Frame types exchanged with the map client.
const (
	// Inbound: the client reports a geolocation result.
	FrameTypeFix   = "fix"
	FrameTypeError = "error"

	// Outbound: the server asks for a one-shot fix or moves the viewport.
	FrameTypeLocate = "locate"
	FrameTypeCamera = "camera"
)

// Geolocation error codes reported by the client, mirroring the browser
// geolocation API.
const (
	ErrorCodePermissionDenied    = "permission_denied"
	ErrorCodePositionUnavailable = "position_unavailable"
	ErrorCodeTimeout             = "timeout"
)

// Camera operations pushed to the client.
const (
	CameraOpFlyTo     = "fly_to"
	CameraOpFitBounds = "fit_bounds"
)

// InboundFrame is a message from the map client.
type InboundFrame struct {
	Type      string  `json:"type"`
	Lat       float64 `json:"lat,omitempty"`
	Lon       float64 `json:"lon,omitempty"`
	AccuracyM float64 `json:"accuracy_m,omitempty"`
	Code      string  `json:"code,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// LocateFrame asks the client for a one-shot geolocation fix.
type LocateFrame struct {
	Type         string `json:"type"`
	HighAccuracy bool   `json:"high_accuracy"`
	TimeoutMs    int64  `json:"timeout_ms"`
	MaxAgeMs     int64  `json:"max_age_ms"`
}

// CameraFrame pushes a viewport move to the client.
type CameraFrame struct {
	Type    string  `json:"type"`
	Op      string  `json:"op"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	Zoom    float64 `json:"zoom,omitempty"`
	MinLat  float64 `json:"min_lat,omitempty"`
	MinLon  float64 `json:"min_lon,omitempty"`
	MaxLat  float64 `json:"max_lat,omitempty"`
	MaxLon  float64 `json:"max_lon,omitempty"`
	Padding float64 `json:"padding,omitempty"`
	MaxZoom float64 `json:"max_zoom,omitempty"`
}

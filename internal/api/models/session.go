package models

import (
	"github.com/voisilab/voisimap/internal/marker"
	"github.com/voisilab/voisimap/internal/nav"
)

// Session is the API shape of a navigation session.
type Session struct {
	ID           string             `json:"id"`
	State        string             `json:"state"`
	UserPosition *UserPosition      `json:"userPosition,omitempty"`
	UserMarker   *marker.Descriptor `json:"userMarker,omitempty"`
	Destination  *Destination       `json:"destination,omitempty"`
	Route        *Route             `json:"route,omitempty"`
	Tracking     bool               `json:"tracking"`
	RouteLoading bool               `json:"routeLoading"`
	PanelOpen    bool               `json:"panelOpen"`
	GPSError     string             `json:"gpsError,omitempty"`
}

// UserPosition is the user's position with the accuracy radius the client
// needs to draw the accuracy circle.
type UserPosition struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	AccuracyM float64 `json:"accuracyM"`
}

// Destination is the navigation target of a session.
type Destination struct {
	PPNID string `json:"ppnId"`
	Name  string `json:"name,omitempty"`
	Point Point  `json:"point"`
}

// Route is a computed driving route.
type Route struct {
	DistanceKm      float64 `json:"distanceKm"`
	DurationSeconds float64 `json:"durationSeconds"`
	Geometry        []Point `json:"geometry"`
}

// DirectionsRequest asks for turn-by-turn directions to a PPN.
type DirectionsRequest struct {
	PPNID string `json:"ppnId"`
}

// SelectRequest focuses the camera on a PPN.
type SelectRequest struct {
	PPNID string `json:"ppnId"`
}

// SessionFromSnapshot converts a session snapshot into its API shape.
func SessionFromSnapshot(snap nav.Snapshot) Session {
	out := Session{
		ID:           snap.ID,
		State:        string(snap.State),
		Tracking:     snap.Tracking,
		RouteLoading: snap.RouteLoading,
		PanelOpen:    snap.PanelOpen,
		GPSError:     snap.GPSError,
	}

	if snap.UserPosition != nil {
		out.UserPosition = &UserPosition{
			Lat:       snap.UserPosition.Lat,
			Lon:       snap.UserPosition.Lon,
			AccuracyM: snap.AccuracyM,
		}
		userMarker := marker.ForUser()
		out.UserMarker = &userMarker
	}
	if snap.Destination != nil {
		out.Destination = &Destination{
			PPNID: snap.Destination.PPNID,
			Name:  snap.Destination.Name,
			Point: Point{Lat: snap.Destination.Coordinate.Lat, Lon: snap.Destination.Coordinate.Lon},
		}
	}
	if snap.Route != nil {
		geometry := make([]Point, 0, len(snap.Route.Geometry))
		for _, c := range snap.Route.Geometry {
			geometry = append(geometry, Point{Lat: c.Lat, Lon: c.Lon})
		}
		out.Route = &Route{
			DistanceKm:      snap.Route.DistanceKm,
			DurationSeconds: snap.Route.DurationSeconds,
			Geometry:        geometry,
		}
	}
	return out
}

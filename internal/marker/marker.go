// Package marker builds renderable marker descriptors for the PPN map.
// Descriptors are pure data; the rendering client turns them into icons.
package marker

import (
	"github.com/voisilab/voisimap/internal/ppn"
)

// Base colors by PPN zone.
const (
	ColorUrban = "#1565C0" // blue
	ColorRural = "#2E7D32" // green
	ColorMixed = "#EF6C00" // orange

	// ColorUnknownZone is the neutral fallback for unrecognized zone values.
	ColorUnknownZone = "#757575"
)

// Accent dot colors by operational status.
const (
	AccentActive  = "#4CAF50"
	AccentPending = "#FFA726"
)

// Anchor is a pixel offset relative to the marker's top-left corner.
type Anchor struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Descriptor is a renderable marker: pin shape, colors, and anchor points.
type Descriptor struct {
	// Kind distinguishes PPN pins from the user's position dot.
	Kind string `json:"kind"`

	// Color is the base fill color of the pin.
	Color string `json:"color"`

	// AccentColor is the small status dot color; empty for the user marker.
	AccentColor string `json:"accentColor,omitempty"`

	// Pulsing marks the two-layer animated user position dot.
	Pulsing bool `json:"pulsing,omitempty"`

	// IconAnchor is the point of the icon placed on the coordinate.
	IconAnchor Anchor `json:"iconAnchor"`

	// PopupAnchor is where popups open relative to the icon anchor.
	PopupAnchor Anchor `json:"popupAnchor"`
}

// Marker kinds.
const (
	KindPPN  = "ppn"
	KindUser = "user"
)

// ForPPN returns the marker descriptor for a fixed PPN location. The mapping
// is deterministic: zone picks the base color, status picks the accent dot.
func ForPPN(zone ppn.Zone, status ppn.Status) Descriptor {
	return Descriptor{
		Kind:        KindPPN,
		Color:       zoneColor(zone),
		AccentColor: statusAccent(status),
		IconAnchor:  Anchor{X: 16, Y: 42},
		PopupAnchor: Anchor{X: 0, Y: -38},
	}
}

// ForUser returns the fixed two-layer pulsing dot marking the visitor's live
// position. Independent of any location data.
func ForUser() Descriptor {
	return Descriptor{
		Kind:        KindUser,
		Color:       "#2196F3",
		Pulsing:     true,
		IconAnchor:  Anchor{X: 10, Y: 10},
		PopupAnchor: Anchor{X: 0, Y: -10},
	}
}

func zoneColor(zone ppn.Zone) string {
	switch zone {
	case ppn.ZoneUrban:
		return ColorUrban
	case ppn.ZoneRural:
		return ColorRural
	case ppn.ZoneMixed:
		return ColorMixed
	default:
		return ColorUnknownZone
	}
}

func statusAccent(status ppn.Status) string {
	if status == ppn.StatusActive {
		return AccentActive
	}
	return AccentPending
}

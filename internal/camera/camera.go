// Package camera controls the map viewport. The map itself lives on the
// client; this package decides when and where the viewport should move and
// pushes those moves through a Camera implementation (typically the
// websocket frame writer for the connected device).
package camera

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/pkg/geo"
)

// Default viewport values for the service region (Côte d'Ivoire).
const (
	DefaultZoom   = 7.0
	SelectionZoom = 15.0

	// FitPadding is the fractional padding applied around fitted bounds so
	// route endpoints do not sit on the viewport edge.
	FitPadding = 0.2

	// FitMaxZoom caps how far FitBounds may zoom in when the fitted points
	// are very close together.
	FitMaxZoom = 16.0
)

// DefaultCenter returns the default region center.
func DefaultCenter() geo.Coordinate {
	return geo.Coordinate{Lat: 7.54, Lon: -5.55}
}

// Camera receives viewport moves. Implementations must be safe for
// concurrent use.
type Camera interface {
	// FlyTo animates the viewport to center on a coordinate at a zoom level.
	FlyTo(center geo.Coordinate, zoom float64)

	// FitBounds animates the viewport to contain a bounding box, with
	// fractional padding, never zooming past maxZoom.
	FitBounds(box geo.BoundingBox, padding float64, maxZoom float64)
}

// Controller issues viewport moves and suppresses redundant ones. Selecting
// the same point of interest twice in a row moves the camera only once.
type Controller struct {
	mu             sync.Mutex
	camera         Camera
	logger         zerolog.Logger
	lastSelectedID string
}

// NewController creates a camera controller.
func NewController(cam Camera, logger zerolog.Logger) *Controller {
	return &Controller{camera: cam, logger: logger}
}

// ShowDefaultRegion moves the viewport to the default region overview.
func (c *Controller) ShowDefaultRegion() {
	c.mu.Lock()
	c.lastSelectedID = ""
	c.mu.Unlock()

	c.camera.FlyTo(DefaultCenter(), DefaultZoom)
}

// FocusSelection flies to a selected point of interest. Re-selecting the
// same id is a no-op so popup re-opens don't jolt the viewport.
func (c *Controller) FocusSelection(id string, at geo.Coordinate) {
	c.mu.Lock()
	if id != "" && id == c.lastSelectedID {
		c.mu.Unlock()
		return
	}
	c.lastSelectedID = id
	c.mu.Unlock()

	c.logger.Debug().Str("selection_id", id).Msg("focusing camera on selection")
	c.camera.FlyTo(at, SelectionZoom)
}

// FocusPosition flies to an arbitrary position at selection zoom, clearing
// any remembered selection.
func (c *Controller) FocusPosition(at geo.Coordinate) {
	c.mu.Lock()
	c.lastSelectedID = ""
	c.mu.Unlock()

	c.camera.FlyTo(at, SelectionZoom)
}

// FitRoute fits the viewport around both route endpoints with padding. The
// remembered selection is kept: fitting the route does not change which
// point of interest is selected.
func (c *Controller) FitRoute(from, to geo.Coordinate) {
	box := geo.Bounds(from, to)
	c.camera.FitBounds(box, FitPadding, FitMaxZoom)
}

// ClearSelection forgets the last selected id so the next FocusSelection
// always moves the camera.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.lastSelectedID = ""
	c.mu.Unlock()
}

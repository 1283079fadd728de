package ws

import (
	"github.com/voisilab/voisimap/pkg/geo"
)

// CameraWriter pushes viewport moves to the connected map client over its
// device stream. It satisfies the camera contract of the navigation session;
// moves issued while no client is attached are dropped.
type CameraWriter struct {
	device *DeviceSource
}

// NewCameraWriter creates a camera writer bound to a device stream.
func NewCameraWriter(device *DeviceSource) *CameraWriter {
	return &CameraWriter{device: device}
}

// FlyTo pushes an animated center-and-zoom move.
func (c *CameraWriter) FlyTo(center geo.Coordinate, zoom float64) {
	c.device.send(CameraFrame{
		Type: FrameTypeCamera,
		Op:   CameraOpFlyTo,
		Lat:  center.Lat,
		Lon:  center.Lon,
		Zoom: zoom,
	})
}

// FitBounds pushes a padded bounding-box fit.
func (c *CameraWriter) FitBounds(box geo.BoundingBox, padding, maxZoom float64) {
	c.device.send(CameraFrame{
		Type:    FrameTypeCamera,
		Op:      CameraOpFitBounds,
		MinLat:  box.MinLat,
		MinLon:  box.MinLon,
		MaxLat:  box.MaxLat,
		MaxLon:  box.MaxLon,
		Padding: padding,
		MaxZoom: maxZoom,
	})
}

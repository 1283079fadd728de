// Package geolocate defines the device geolocation contract consumed by the
// map navigation session. The actual position provider is the visitor's
// device, connected through the websocket position stream; tests use in-memory
// sources.
package geolocate

import (
	"context"
	"errors"
	"time"
)

// Positioning failure taxonomy, mirroring the platform geolocation error codes.
var (
	// ErrPermissionDenied indicates the user refused the location permission.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrPositionUnavailable indicates the device could not determine a position.
	ErrPositionUnavailable = errors.New("position unavailable")
	// ErrTimeout indicates the position request timed out.
	ErrTimeout = errors.New("position request timed out")
)

// Fix is a single geolocation reading.
type Fix struct {
	Lat       float64
	Lon       float64
	AccuracyM float64
}

// Options are positioning policy knobs, not hard contracts. The device applies
// them on a best-effort basis.
type Options struct {
	// HighAccuracy requests GPS-grade positioning when available.
	HighAccuracy bool

	// MaxAge is how old a cached fix may be before a fresh one is required.
	// Zero means no cached fix is acceptable.
	MaxAge time.Duration

	// Timeout bounds how long the device may take to produce a fix.
	Timeout time.Duration
}

// OneShotOptions are the options used for explicit "find me" requests:
// high accuracy, no cached fix.
func OneShotOptions() Options {
	return Options{
		HighAccuracy: true,
		MaxAge:       0,
		Timeout:      10 * time.Second,
	}
}

// WatchOptions are the options used for continuous tracking: high accuracy
// with a small cache tolerance to limit fix frequency.
func WatchOptions() Options {
	return Options{
		HighAccuracy: true,
		MaxAge:       5 * time.Second,
		Timeout:      10 * time.Second,
	}
}

// Source provides device positions. Implementations must be safe for
// concurrent use.
type Source interface {
	// Current returns a single fix. It blocks until a fix is available, the
	// device reports an error, or ctx is cancelled.
	Current(ctx context.Context, opts Options) (Fix, error)

	// Watch delivers fixes to fn until ctx is cancelled. It returns the
	// first delivery error, or nil on cancellation. Watch must not retain fn
	// after returning; cancellation is the only unsubscribe mechanism.
	Watch(ctx context.Context, opts Options, fn func(Fix)) error
}

// ErrorMessage maps a positioning error to the human-readable message shown
// in the map's GPS error panel.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Location access was denied. Enable location permissions to use navigation."
	case errors.Is(err, ErrPositionUnavailable):
		return "Your position could not be determined. Move to an open area and try again."
	case errors.Is(err, ErrTimeout):
		return "Locating you took too long. Check your GPS signal and try again."
	default:
		return "An unknown error occurred while locating you."
	}
}

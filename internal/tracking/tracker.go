// Package tracking provides the live location tracker for the map session:
// a scoped subscription to a geolocation source that forwards only
// significant movements.
package tracking

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/geolocate"
	"github.com/voisilab/voisimap/pkg/geo"
)

// DefaultMinMoveDegrees is the displacement threshold below which fixes are
// dropped. It is a coordinate-degree approximation of roughly five meters,
// not a geodesically exact cutoff; the goal is reducing event volume, not
// precision.
const DefaultMinMoveDegrees = 0.00005

// degreeKm approximates one coordinate degree as kilometers, used only to
// turn the degree threshold into a distance comparable with the haversine
// output.
const degreeKm = 111.0

// Config holds configuration for the tracker.
type Config struct {
	// Source delivers device positions.
	Source geolocate.Source

	// Logger for tracker operations.
	Logger zerolog.Logger

	// MinMoveDegrees overrides the acceptance threshold (default
	// DefaultMinMoveDegrees).
	MinMoveDegrees float64

	// Options are the continuous watch options (default geolocate.WatchOptions).
	Options geolocate.Options

	// OnFix receives every accepted fix. Required.
	OnFix func(geolocate.Fix)
}

// Tracker subscribes to continuous position updates while active and forwards
// fixes that represent significant movement. The last accepted fix is tracker
// internal state, never shared.
//
// Start and Stop are idempotent; every Start is balanced by a guaranteed
// unsubscribe on Stop or on whatever path deactivates the tracker. Source
// errors are logged and swallowed: user-visible error reporting belongs to
// the one-shot locate flow.
type Tracker struct {
	source     geolocate.Source
	logger     zerolog.Logger
	minMoveKm  float64
	opts       geolocate.Options
	onFix      func(geolocate.Fix)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a tracker. It does not subscribe until Start is called.
func New(cfg Config) *Tracker {
	minMoveDeg := cfg.MinMoveDegrees
	if minMoveDeg == 0 {
		minMoveDeg = DefaultMinMoveDegrees
	}

	opts := cfg.Options
	if opts == (geolocate.Options{}) {
		opts = geolocate.WatchOptions()
	}

	return &Tracker{
		source:    cfg.Source,
		logger:    cfg.Logger,
		minMoveKm: minMoveDeg * degreeKm,
		opts:      opts,
		onFix:     cfg.OnFix,
	}
}

// Start subscribes to continuous position updates. Calling Start on an
// already active tracker is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.watch(ctx, done)
}

// Stop cancels the subscription and waits for the watch goroutine to exit.
// Calling Stop on an inactive tracker is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether the tracker currently holds a subscription.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Tracker) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	var last *geolocate.Fix

	err := t.source.Watch(ctx, t.opts, func(fix geolocate.Fix) {
		if last != nil && !t.moved(*last, fix) {
			return
		}
		accepted := fix
		last = &accepted
		t.onFix(fix)
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		// No retry and no UI surfacing; the one-shot locate flow owns
		// user-visible geolocation errors.
		t.logger.Warn().Err(err).Msg("position watch ended with error")
	}
}

func (t *Tracker) moved(from, to geolocate.Fix) bool {
	a := geo.Coordinate{Lat: from.Lat, Lon: from.Lon}
	b := geo.Coordinate{Lat: to.Lat, Lon: to.Lon}
	return geo.DistanceKm(a, b) > t.minMoveKm
}

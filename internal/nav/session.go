// Package nav implements navigation sessions: the state machine coordinating
// geolocation, live tracking, route computation, and camera movement for one
// connected map client.
package nav

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/camera"
	"github.com/voisilab/voisimap/internal/geolocate"
	"github.com/voisilab/voisimap/internal/ppn"
	"github.com/voisilab/voisimap/internal/routing"
	"github.com/voisilab/voisimap/internal/tracking"
	"github.com/voisilab/voisimap/pkg/geo"
)

// Predefined errors for session operations.
var (
	// ErrNotNavigating is returned by Recenter when no navigation is active.
	ErrNotNavigating = errors.New("session is not navigating")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")
)

// State identifies the session's position in its lifecycle.
type State string

// Session states.
const (
	StateIdle       State = "idle"
	StateLocating   State = "locating"
	StateTracking   State = "tracking"
	StateNavigating State = "navigating"
)

// DefaultMinAcceptMeters is the displacement below which tracked fixes do not
// move the session position. Coarser than the tracker's own filter so the
// position the client renders stays calm.
const DefaultMinAcceptMeters = 10.0

// defaultRouteTimeout bounds a single background route computation.
const defaultRouteTimeout = 15 * time.Second

// RouteFinder computes routes between coordinate pairs.
type RouteFinder interface {
	GetRoute(ctx context.Context, req routing.RouteRequest) (*routing.RouteResponse, error)
}

// PPNResolver resolves navigation targets from the catalog.
type PPNResolver interface {
	Get(ctx context.Context, id string) (*ppn.PPN, error)
}

// Destination is the navigation target of an active session.
type Destination struct {
	PPNID      string
	Name       string
	Coordinate geo.Coordinate
}

// Snapshot is a point-in-time copy of session state, safe to serialize.
type Snapshot struct {
	ID           string
	State        State
	UserPosition *geo.Coordinate
	AccuracyM    float64
	Destination  *Destination
	Route        *routing.Route
	Tracking     bool
	RouteLoading bool
	PanelOpen    bool
	GPSError     string
}

// Config holds the dependencies of a session.
type Config struct {
	// ID identifies the session.
	ID string

	// Source delivers device positions (one-shot and continuous).
	Source geolocate.Source

	// Routes computes driving routes.
	Routes RouteFinder

	// PPNs resolves navigation targets.
	PPNs PPNResolver

	// Camera moves the client viewport.
	Camera *camera.Controller

	// Logger for session operations.
	Logger zerolog.Logger

	// MinAcceptMeters overrides the tracked-fix acceptance threshold
	// (default DefaultMinAcceptMeters).
	MinAcceptMeters float64

	// RouteTimeout bounds each background route computation (default 15s).
	RouteTimeout time.Duration
}

// Session is the per-client navigation state machine. All state transitions
// happen under a single mutex; blocking work (one-shot fixes, route fetches)
// runs outside it and re-validates on completion.
type Session struct {
	id              string
	source          geolocate.Source
	routes          RouteFinder
	ppns            PPNResolver
	camera          *camera.Controller
	logger          zerolog.Logger
	tracker         *tracking.Tracker
	minAcceptMeters float64
	routeTimeout    time.Duration

	mu           sync.Mutex
	state        State
	userPosition *geo.Coordinate
	accuracyM    float64
	destination  *Destination
	route        *routing.Route
	trackingOn   bool
	routeLoading bool
	panelOpen    bool
	gpsError     string
	pending      *Destination
	routeSeq     uint64
	closed       bool
}

// NewSession creates a session in the idle state. The camera is not moved
// until an operation asks for it.
func NewSession(cfg Config) *Session {
	s := &Session{
		id:              cfg.ID,
		source:          cfg.Source,
		routes:          cfg.Routes,
		ppns:            cfg.PPNs,
		camera:          cfg.Camera,
		logger:          cfg.Logger.With().Str("session_id", cfg.ID).Logger(),
		minAcceptMeters: cfg.MinAcceptMeters,
		routeTimeout:    cfg.RouteTimeout,
		state:           StateIdle,
	}
	if s.minAcceptMeters == 0 {
		s.minAcceptMeters = DefaultMinAcceptMeters
	}
	if s.routeTimeout == 0 {
		s.routeTimeout = defaultRouteTimeout
	}

	s.tracker = tracking.New(tracking.Config{
		Source: cfg.Source,
		Logger: s.logger,
		OnFix:  s.handleTrackedFix,
	})

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		State:        s.state,
		Tracking:     s.trackingOn,
		RouteLoading: s.routeLoading,
		PanelOpen:    s.panelOpen,
		GPSError:     s.gpsError,
	}
	if s.userPosition != nil {
		pos := *s.userPosition
		snap.UserPosition = &pos
		snap.AccuracyM = s.accuracyM
	}
	if s.destination != nil {
		dest := *s.destination
		snap.Destination = &dest
	}
	if s.route != nil {
		route := *s.route
		snap.Route = &route
	}
	return snap
}

// Locate requests a one-shot high-accuracy fix. On success the position is
// set and live tracking starts; on failure the error taxonomy is mapped to a
// user-facing message and any pending navigation target is dropped.
func (s *Session) Locate(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.state = StateLocating
	s.gpsError = ""
	s.mu.Unlock()

	fix, err := s.source.Current(ctx, geolocate.OneShotOptions())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	if err != nil {
		s.gpsError = geolocate.ErrorMessage(err)
		s.pending = nil
		if s.userPosition != nil {
			s.state = StateTracking
		} else {
			s.state = StateIdle
		}
		s.logger.Warn().Err(err).Msg("one-shot locate failed")
		s.mu.Unlock()
		return nil
	}

	pos := geo.Coordinate{Lat: fix.Lat, Lon: fix.Lon}
	s.userPosition = &pos
	s.accuracyM = fix.AccuracyM
	s.gpsError = ""
	s.trackingOn = true
	s.state = StateTracking

	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.tracker.Start()

	if pending != nil {
		s.beginNavigation(*pending)
	}
	return nil
}

// RequestDirections starts navigation toward a PPN. With a known position the
// navigation begins immediately; without one the target is stashed and a
// one-shot locate runs first, completing the navigation when the fix arrives.
// A newer request always replaces an older pending target.
func (s *Session) RequestDirections(ctx context.Context, ppnID string) error {
	target, err := s.ppns.Get(ctx, ppnID)
	if err != nil {
		return err
	}

	dest := Destination{
		PPNID:      target.ID,
		Name:       target.Name,
		Coordinate: target.Coordinate,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.userPosition == nil {
		s.pending = &dest
		s.mu.Unlock()
		return s.Locate(ctx)
	}
	s.mu.Unlock()

	s.beginNavigation(dest)
	return nil
}

// beginNavigation sets the destination, suspends tracking, opens the route
// panel, and kicks off the route fetch. The camera is deliberately left
// alone: a found route never moves the viewport.
func (s *Session) beginNavigation(dest Destination) {
	s.mu.Lock()
	if s.closed || s.userPosition == nil {
		s.mu.Unlock()
		return
	}

	start := *s.userPosition
	s.destination = &dest
	s.route = nil
	s.trackingOn = false
	s.panelOpen = true
	s.routeLoading = true
	s.pending = nil
	s.state = StateNavigating
	s.routeSeq++
	seq := s.routeSeq
	s.mu.Unlock()

	s.tracker.Stop()

	s.logger.Info().
		Str("ppn_id", dest.PPNID).
		Msg("navigation started")

	go s.fetchRoute(seq, start, dest.Coordinate)
}

// fetchRoute computes the route in the background. Responses carrying a
// sequence stamp older than the session's current one are discarded, so a
// slow computation can never overwrite a newer navigation. Failures degrade
// silently: the panel simply shows no route details.
func (s *Session) fetchRoute(seq uint64, start, end geo.Coordinate) {
	ctx, cancel := context.WithTimeout(context.Background(), s.routeTimeout)
	defer cancel()

	resp, err := s.routes.GetRoute(ctx, routing.RouteRequest{Start: start, End: end})

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.routeSeq || s.closed {
		return
	}
	s.routeLoading = false

	if err != nil {
		s.route = nil
		s.logger.Warn().Err(err).Msg("route computation failed")
		return
	}

	route := resp.Route
	s.route = &route
}

// Cancel ends navigation: destination, route, panel, and pending target are
// cleared, tracking resumes if a position is known, and the camera returns to
// the user or to the default region overview.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	s.destination = nil
	s.route = nil
	s.panelOpen = false
	s.routeLoading = false
	s.pending = nil
	s.routeSeq++ // invalidate any in-flight route fetch

	pos := s.userPosition
	if pos != nil {
		s.trackingOn = true
		s.state = StateTracking
	} else {
		s.trackingOn = false
		s.state = StateIdle
	}
	s.mu.Unlock()

	s.camera.ClearSelection()
	if pos != nil {
		s.tracker.Start()
		s.camera.FocusPosition(*pos)
	} else {
		s.camera.ShowDefaultRegion()
	}
	return nil
}

// Recenter fits the viewport around the user and the destination. It is the
// only camera move that looks automatic, and it only ever runs on explicit
// user request during navigation.
func (s *Session) Recenter() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateNavigating || s.userPosition == nil || s.destination == nil {
		s.mu.Unlock()
		return ErrNotNavigating
	}
	user := *s.userPosition
	dest := s.destination.Coordinate
	s.mu.Unlock()

	s.camera.FitRoute(user, dest)
	return nil
}

// Select flies the camera to a PPN without starting navigation. Re-selecting
// the same PPN does not move the camera again.
func (s *Session) Select(ctx context.Context, ppnID string) error {
	target, err := s.ppns.Get(ctx, ppnID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	s.camera.FocusSelection(target.ID, target.Coordinate)
	return nil
}

// Close stops tracking and rejects further operations.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.trackingOn = false
	s.mu.Unlock()

	s.tracker.Stop()
}

// handleTrackedFix applies a tracked position update. Updates are ignored
// entirely while a destination is set, and otherwise accepted only when they
// move the position by more than the acceptance threshold.
func (s *Session) handleTrackedFix(fix geolocate.Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.destination != nil {
		return
	}

	pos := geo.Coordinate{Lat: fix.Lat, Lon: fix.Lon}
	if s.userPosition != nil &&
		geo.DistanceMeters(*s.userPosition, pos) <= s.minAcceptMeters {
		return
	}
	s.userPosition = &pos
	s.accuracyM = fix.AccuracyM
}

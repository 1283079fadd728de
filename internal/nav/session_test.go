package nav

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voisilab/voisimap/internal/camera"
	"github.com/voisilab/voisimap/internal/geolocate"
	"github.com/voisilab/voisimap/internal/ppn"
	"github.com/voisilab/voisimap/internal/routing"
	"github.com/voisilab/voisimap/pkg/geo"
)

// fakeSource scripts the one-shot fix and keeps Watch open until cancel.
type fakeSource struct {
	mu         sync.Mutex
	currentFix geolocate.Fix
	currentErr error
	watchFixes []geolocate.Fix
	watchCount int
}

func (f *fakeSource) Current(ctx context.Context, _ geolocate.Options) (geolocate.Fix, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return geolocate.Fix{}, f.currentErr
	}
	return f.currentFix, nil
}

func (f *fakeSource) Watch(ctx context.Context, _ geolocate.Options, fn func(geolocate.Fix)) error {
	f.mu.Lock()
	f.watchCount++
	fixes := f.watchFixes
	f.mu.Unlock()

	for _, fix := range fixes {
		fn(fix)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeSource) watches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.watchCount
}

// fakeRoutes records requests and answers from a scripted response.
type fakeRoutes struct {
	mu       sync.Mutex
	requests []routing.RouteRequest
	resp     *routing.RouteResponse
	err      error
	delay    time.Duration
}

func (f *fakeRoutes) GetRoute(ctx context.Context, req routing.RouteRequest) (*routing.RouteResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp, err, delay := f.resp, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeRoutes) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeRoutes) lastRequest() routing.RouteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type countingCamera struct {
	mu        sync.Mutex
	flyTos    int
	fitBounds int
	lastBox   geo.BoundingBox
}

func (c *countingCamera) FlyTo(geo.Coordinate, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flyTos++
}

func (c *countingCamera) FitBounds(box geo.BoundingBox, _, _ float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fitBounds++
	c.lastBox = box
}

func (c *countingCamera) moves() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flyTos, c.fitBounds
}

func testPPN() *ppn.PPN {
	return &ppn.PPN{
		ID:         "ppn_grand_bassam",
		Name:       "Voisilab Grand-Bassam",
		Zone:       ppn.ZoneUrban,
		Status:     ppn.StatusActive,
		Coordinate: geo.Coordinate{Lat: 5.30, Lon: -4.02},
	}
}

func testRoute() *routing.RouteResponse {
	return &routing.RouteResponse{
		Route: routing.Route{
			DistanceKm:      2.4,
			DurationSeconds: 380,
			Geometry: []geo.Coordinate{
				{Lat: 5.31, Lon: -4.00},
				{Lat: 5.30, Lon: -4.02},
			},
		},
		Provider:  "osrm",
		FetchedAt: time.Now(),
	}
}

type sessionFixture struct {
	session *Session
	source  *fakeSource
	routes  *fakeRoutes
	camera  *countingCamera
	ppns    *ppn.Service
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	source := &fakeSource{
		currentFix: geolocate.Fix{Lat: 5.31, Lon: -4.00, AccuracyM: 15},
	}
	routes := &fakeRoutes{resp: testRoute()}
	cam := &countingCamera{}

	repo := ppn.NewInMemoryRepositoryWithPPNs([]*ppn.PPN{testPPN()})
	service := ppn.NewService(repo, zerolog.Nop())

	session := NewSession(Config{
		ID:     "ses_test",
		Source: source,
		Routes: routes,
		PPNs:   service,
		Camera: camera.NewController(cam, zerolog.Nop()),
		Logger: zerolog.Nop(),
	})
	t.Cleanup(session.Close)

	return &sessionFixture{
		session: session,
		source:  source,
		routes:  routes,
		camera:  cam,
		ppns:    service,
	}
}

func waitForRoute(t *testing.T, s *Session) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return !s.Snapshot().RouteLoading
	}, time.Second, 5*time.Millisecond, "route fetch did not settle")
	return s.Snapshot()
}

func TestSession_Locate_SetsPositionAndStartsTracking(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.Locate(context.Background()))

	snap := f.session.Snapshot()
	assert.Equal(t, StateTracking, snap.State)
	require.NotNil(t, snap.UserPosition)
	assert.InDelta(t, 5.31, snap.UserPosition.Lat, 1e-9)
	assert.InDelta(t, -4.00, snap.UserPosition.Lon, 1e-9)
	assert.InDelta(t, 15, snap.AccuracyM, 1e-9, "accuracy radius must survive into the snapshot")
	assert.True(t, snap.Tracking)
	assert.Empty(t, snap.GPSError)

	require.Eventually(t, func() bool {
		return f.source.watches() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSession_Locate_PermissionDenied(t *testing.T) {
	f := newSessionFixture(t)
	f.source.currentErr = geolocate.ErrPermissionDenied

	require.NoError(t, f.session.Locate(context.Background()))

	snap := f.session.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.UserPosition)
	assert.False(t, snap.Tracking)
	assert.Equal(t, geolocate.ErrorMessage(geolocate.ErrPermissionDenied), snap.GPSError)
}

func TestSession_RequestDirections_WithoutPosition(t *testing.T) {
	// Directions before any fix: the target is stashed, a one-shot locate
	// runs, and navigation completes when the fix arrives.
	f := newSessionFixture(t)

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))

	snap := waitForRoute(t, f.session)
	assert.Equal(t, StateNavigating, snap.State)
	require.NotNil(t, snap.UserPosition)
	assert.InDelta(t, 5.31, snap.UserPosition.Lat, 1e-9)
	assert.InDelta(t, 15, snap.AccuracyM, 1e-9)
	require.NotNil(t, snap.Destination)
	assert.Equal(t, "ppn_grand_bassam", snap.Destination.PPNID)
	assert.InDelta(t, 5.30, snap.Destination.Coordinate.Lat, 1e-9)
	assert.InDelta(t, -4.02, snap.Destination.Coordinate.Lon, 1e-9)
	assert.False(t, snap.Tracking)
	assert.True(t, snap.PanelOpen)

	require.Equal(t, 1, f.routes.requestCount())
	req := f.routes.lastRequest()
	assert.Equal(t, geo.Coordinate{Lat: 5.31, Lon: -4.00}, req.Start)
	assert.Equal(t, geo.Coordinate{Lat: 5.30, Lon: -4.02}, req.End)

	require.NotNil(t, snap.Route)
	assert.InDelta(t, 2.4, snap.Route.DistanceKm, 1e-9)
}

func TestSession_RequestDirections_LocateFailureDropsPending(t *testing.T) {
	f := newSessionFixture(t)
	f.source.currentErr = geolocate.ErrTimeout

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))

	snap := f.session.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Destination)
	assert.NotEmpty(t, snap.GPSError)
	assert.Zero(t, f.routes.requestCount())
}

func TestSession_RequestDirections_UnknownPPN(t *testing.T) {
	f := newSessionFixture(t)

	err := f.session.RequestDirections(context.Background(), "ppn_missing")
	assert.ErrorIs(t, err, ppn.ErrNotFound)
}

func TestSession_RouteFailureDegradesSilently(t *testing.T) {
	// The provider refusing a route (OSRM non-"Ok") leaves the panel open
	// with no route details; no error escapes the session.
	f := newSessionFixture(t)
	f.routes.resp = nil
	f.routes.err = &routing.Error{
		Provider: "osrm",
		Code:     "NoRoute",
		Message:  "no route found between the given points",
		Err:      routing.ErrNoRouteFound,
	}

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))

	snap := waitForRoute(t, f.session)
	assert.Equal(t, StateNavigating, snap.State)
	assert.Nil(t, snap.Route)
	assert.True(t, snap.PanelOpen)
	assert.Empty(t, snap.GPSError)
}

func TestSession_RouteFoundDoesNotMoveCamera(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	snap := waitForRoute(t, f.session)
	require.NotNil(t, snap.Route)

	flyTos, fits := f.camera.moves()
	assert.Zero(t, flyTos, "a found route must not fly the camera")
	assert.Zero(t, fits, "a found route must not fit the camera")
}

func TestSession_TrackedFixesIgnoredWhileNavigating(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	waitForRoute(t, f.session)

	before := f.session.Snapshot()
	f.session.handleTrackedFix(geolocate.Fix{Lat: 6.00, Lon: -5.00, AccuracyM: 5})

	after := f.session.Snapshot()
	assert.Equal(t, *before.UserPosition, *after.UserPosition,
		"tracked fixes must never move the position during navigation")
}

func TestSession_TrackedFixAcceptanceThreshold(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Locate(context.Background()))
	start := *f.session.Snapshot().UserPosition

	// ~5 m north: below the 10 m acceptance threshold.
	f.session.handleTrackedFix(geolocate.Fix{Lat: start.Lat + 0.000045, Lon: start.Lon})
	assert.Equal(t, start, *f.session.Snapshot().UserPosition)

	// ~55 m north: accepted.
	f.session.handleTrackedFix(geolocate.Fix{Lat: start.Lat + 0.0005, Lon: start.Lon, AccuracyM: 8})
	after := f.session.Snapshot()
	assert.InDelta(t, start.Lat+0.0005, after.UserPosition.Lat, 1e-9)
	assert.InDelta(t, 8, after.AccuracyM, 1e-9, "accepted fixes carry their accuracy radius")
}

func TestSession_Cancel_RestoresTracking(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	waitForRoute(t, f.session)

	require.NoError(t, f.session.Cancel())

	snap := f.session.Snapshot()
	assert.Equal(t, StateTracking, snap.State)
	assert.Nil(t, snap.Destination)
	assert.Nil(t, snap.Route)
	assert.False(t, snap.PanelOpen)
	assert.True(t, snap.Tracking, "cancel with a known position re-enables tracking")

	flyTos, _ := f.camera.moves()
	assert.Equal(t, 1, flyTos, "cancel recenters on the user")
}

func TestSession_Cancel_WithoutPosition(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.Cancel())

	snap := f.session.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Tracking)

	flyTos, _ := f.camera.moves()
	assert.Equal(t, 1, flyTos, "cancel without a position shows the default region")
}

func TestSession_Recenter(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.session.Recenter(), ErrNotNavigating)

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	waitForRoute(t, f.session)

	require.NoError(t, f.session.Recenter())

	_, fits := f.camera.moves()
	require.Equal(t, 1, fits)
	assert.Equal(t, geo.Bounds(
		geo.Coordinate{Lat: 5.31, Lon: -4.00},
		geo.Coordinate{Lat: 5.30, Lon: -4.02},
	), f.camera.lastBox)
}

func TestSession_StaleRouteDiscarded(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Locate(context.Background()))

	// First fetch is slow; cancel invalidates it before it lands.
	f.routes.mu.Lock()
	f.routes.delay = 100 * time.Millisecond
	f.routes.mu.Unlock()

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	require.NoError(t, f.session.Cancel())

	time.Sleep(200 * time.Millisecond)

	snap := f.session.Snapshot()
	assert.Nil(t, snap.Route, "a route landing after cancel must be discarded")
	assert.False(t, snap.PanelOpen)
}

func TestSession_RepeatedDirections_LastWins(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.session.Locate(context.Background()))

	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	require.NoError(t, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))

	snap := waitForRoute(t, f.session)
	assert.Equal(t, StateNavigating, snap.State)
	require.NotNil(t, snap.Destination)
	assert.Equal(t, "ppn_grand_bassam", snap.Destination.PPNID)
}

func TestSession_Select_DoesNotChangeState(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.Select(context.Background(), "ppn_grand_bassam"))

	snap := f.session.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Destination)

	flyTos, _ := f.camera.moves()
	assert.Equal(t, 1, flyTos)

	// Re-selecting the same PPN does not move the camera again.
	require.NoError(t, f.session.Select(context.Background(), "ppn_grand_bassam"))
	flyTos, _ = f.camera.moves()
	assert.Equal(t, 1, flyTos)
}

func TestSession_ClosedRejectsOperations(t *testing.T) {
	f := newSessionFixture(t)
	f.session.Close()

	assert.ErrorIs(t, f.session.Locate(context.Background()), ErrSessionClosed)
	assert.ErrorIs(t, f.session.Cancel(), ErrSessionClosed)
	assert.ErrorIs(t, f.session.Recenter(), ErrSessionClosed)

	var errs []error
	errs = append(errs, f.session.RequestDirections(context.Background(), "ppn_grand_bassam"))
	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrSessionClosed))
	}
}

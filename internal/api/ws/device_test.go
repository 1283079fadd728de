package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voisilab/voisimap/internal/geolocate"
	"github.com/voisilab/voisimap/pkg/geo"
)

func TestDeviceSource_Current_DeliversFix(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	out, _ := device.Attach()

	type result struct {
		fix geolocate.Fix
		err error
	}
	done := make(chan result, 1)
	go func() {
		fix, err := device.Current(context.Background(), geolocate.OneShotOptions())
		done <- result{fix, err}
	}()

	// The client sees a locate command first.
	var locate LocateFrame
	select {
	case data := <-out:
		require.NoError(t, json.Unmarshal(data, &locate))
	case <-time.After(time.Second):
		t.Fatal("no locate frame sent")
	}
	assert.Equal(t, FrameTypeLocate, locate.Type)
	assert.True(t, locate.HighAccuracy)
	assert.Zero(t, locate.MaxAgeMs, "one-shot locate must not accept cached fixes")

	device.HandleFrame([]byte(`{"type":"fix","lat":5.31,"lon":-4.0,"accuracy_m":15}`))

	res := <-done
	require.NoError(t, res.err)
	assert.InDelta(t, 5.31, res.fix.Lat, 1e-9)
	assert.InDelta(t, -4.0, res.fix.Lon, 1e-9)
	assert.InDelta(t, 15, res.fix.AccuracyM, 1e-9)
}

func TestDeviceSource_Current_ErrorFrame(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	device.Attach()

	errs := make(chan error, 1)
	go func() {
		_, err := device.Current(context.Background(), geolocate.OneShotOptions())
		errs <- err
	}()

	// Let the request register before the error frame arrives.
	require.Eventually(t, func() bool {
		device.mu.Lock()
		defer device.mu.Unlock()
		return len(device.oneShots) == 1
	}, time.Second, time.Millisecond)

	device.HandleFrame([]byte(`{"type":"error","code":"permission_denied"}`))
	assert.ErrorIs(t, <-errs, geolocate.ErrPermissionDenied)
}

func TestDeviceSource_Current_NotAttached(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())

	_, err := device.Current(context.Background(), geolocate.OneShotOptions())
	assert.ErrorIs(t, err, geolocate.ErrPositionUnavailable)
}

func TestDeviceSource_Current_Timeout(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	device.Attach()

	opts := geolocate.OneShotOptions()
	opts.Timeout = 20 * time.Millisecond

	_, err := device.Current(context.Background(), opts)
	assert.ErrorIs(t, err, geolocate.ErrTimeout)
}

func TestDeviceSource_Detach_FailsPendingRequests(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	_, gen := device.Attach()

	errs := make(chan error, 1)
	go func() {
		_, err := device.Current(context.Background(), geolocate.OneShotOptions())
		errs <- err
	}()

	require.Eventually(t, func() bool {
		device.mu.Lock()
		defer device.mu.Unlock()
		return len(device.oneShots) == 1
	}, time.Second, time.Millisecond)

	device.Detach(gen)
	assert.ErrorIs(t, <-errs, geolocate.ErrPositionUnavailable)
	assert.False(t, device.Attached())
}

func TestDeviceSource_Reconnect_StaleDetachIsNoOp(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	_, oldGen := device.Attach()

	// The client reconnects before the old connection's detach runs.
	newOut, newGen := device.Attach()

	errs := make(chan error, 1)
	go func() {
		_, err := device.Current(context.Background(), geolocate.OneShotOptions())
		errs <- err
	}()

	require.Eventually(t, func() bool {
		device.mu.Lock()
		defer device.mu.Unlock()
		return len(device.oneShots) == 1
	}, time.Second, time.Millisecond)

	// The old connection finally tears down; the new one must survive.
	device.Detach(oldGen)
	assert.True(t, device.Attached())

	select {
	case err := <-errs:
		t.Fatalf("pending one-shot failed spuriously: %v", err)
	default:
	}

	// The locate command went to the new connection's queue.
	select {
	case data := <-newOut:
		var locate LocateFrame
		require.NoError(t, json.Unmarshal(data, &locate))
		assert.Equal(t, FrameTypeLocate, locate.Type)
	case <-time.After(time.Second):
		t.Fatal("no locate frame on the new connection")
	}

	device.Detach(newGen)
	assert.False(t, device.Attached())
	assert.ErrorIs(t, <-errs, geolocate.ErrPositionUnavailable)
}

func TestDeviceSource_Current_ParentCancelIsNotTimeout(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	device.Attach()

	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		_, err := device.Current(ctx, geolocate.OneShotOptions())
		errs <- err
	}()

	require.Eventually(t, func() bool {
		device.mu.Lock()
		defer device.mu.Unlock()
		return len(device.oneShots) == 1
	}, time.Second, time.Millisecond)

	cancel()
	err := <-errs
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, geolocate.ErrTimeout)
}

func TestDeviceSource_Watch_DeliversFixes(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	device.Attach()

	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var fixes []geolocate.Fix
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- device.Watch(ctx, geolocate.WatchOptions(), func(fix geolocate.Fix) {
			mu.Lock()
			fixes = append(fixes, fix)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		device.mu.Lock()
		defer device.mu.Unlock()
		return len(device.watchers) == 1
	}, time.Second, time.Millisecond)

	device.HandleFrame([]byte(`{"type":"fix","lat":5.31,"lon":-4.0}`))
	device.HandleFrame([]byte(`{"type":"fix","lat":5.32,"lon":-4.01}`))
	// Error frames never reach watchers.
	device.HandleFrame([]byte(`{"type":"error","code":"timeout"}`))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fixes) == 2
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-watchDone, context.Canceled)

	device.mu.Lock()
	assert.Empty(t, device.watchers, "cancellation must unsubscribe the watcher")
	device.mu.Unlock()
}

func TestDeviceSource_HandleFrame_Malformed(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	device.Attach()

	// Neither of these should panic or disturb state.
	device.HandleFrame([]byte(`not json`))
	device.HandleFrame([]byte(`{"type":"mystery"}`))
}

func TestCameraWriter_Frames(t *testing.T) {
	device := NewDeviceSource(zerolog.Nop())
	out, _ := device.Attach()
	writer := NewCameraWriter(device)

	writer.FlyTo(geo.Coordinate{Lat: 7.54, Lon: -5.55}, 7)

	var fly CameraFrame
	require.NoError(t, json.Unmarshal(<-out, &fly))
	assert.Equal(t, FrameTypeCamera, fly.Type)
	assert.Equal(t, CameraOpFlyTo, fly.Op)
	assert.InDelta(t, 7.54, fly.Lat, 1e-9)
	assert.InDelta(t, 7.0, fly.Zoom, 1e-9)

	writer.FitBounds(geo.BoundingBox{MinLat: 5.30, MinLon: -4.02, MaxLat: 5.31, MaxLon: -4.00}, 0.2, 16)

	var fit CameraFrame
	require.NoError(t, json.Unmarshal(<-out, &fit))
	assert.Equal(t, CameraOpFitBounds, fit.Op)
	assert.InDelta(t, 5.30, fit.MinLat, 1e-9)
	assert.InDelta(t, -4.00, fit.MaxLon, 1e-9)
	assert.InDelta(t, 0.2, fit.Padding, 1e-9)
	assert.InDelta(t, 16.0, fit.MaxZoom, 1e-9)
}

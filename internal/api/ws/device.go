package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/geolocate"
)

// outboundBuffer bounds the per-session outbound queue. A slow or absent
// client loses frames rather than blocking the session.
const outboundBuffer = 64

// DeviceSource adapts one connected map client into a geolocate.Source.
// It exists for the whole session lifetime; the websocket may attach and
// detach underneath it. With no client attached, one-shot requests fail as
// "position unavailable" and watches simply receive nothing.
type DeviceSource struct {
	logger zerolog.Logger

	mu        sync.Mutex
	attached  bool
	attachGen uint64
	out       chan []byte
	oneShots  map[uint64]chan fixResult
	watchers  map[uint64]func(geolocate.Fix)
	nextID    uint64
}

type fixResult struct {
	fix geolocate.Fix
	err error
}

// NewDeviceSource creates a device source with no client attached.
func NewDeviceSource(logger zerolog.Logger) *DeviceSource {
	return &DeviceSource{
		logger:   logger,
		out:      make(chan []byte, outboundBuffer),
		oneShots: make(map[uint64]chan fixResult),
		watchers: make(map[uint64]func(geolocate.Fix)),
	}
}

// Attach marks a client as connected and returns the outbound frame queue
// the connection's write pump must drain, plus a generation token the
// connection hands back on Detach. Each attach gets a fresh queue so a
// lingering previous connection cannot drain the new one's frames.
func (d *DeviceSource) Attach() (<-chan []byte, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attached = true
	d.attachGen++
	d.out = make(chan []byte, outboundBuffer)
	return d.out, d.attachGen
}

// Detach marks the client as disconnected and fails pending one-shots. A
// stale generation is a no-op: on reconnect the old connection's deferred
// detach must not undo the replacement's attach.
func (d *DeviceSource) Detach(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.attachGen {
		return
	}
	d.detachLocked()
}

// Close force-detaches whatever client is connected. Used when the session
// itself goes away.
func (d *DeviceSource) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detachLocked()
}

func (d *DeviceSource) detachLocked() {
	d.attached = false
	for id, ch := range d.oneShots {
		ch <- fixResult{err: geolocate.ErrPositionUnavailable}
		delete(d.oneShots, id)
	}
}

// Attached reports whether a client is currently connected.
func (d *DeviceSource) Attached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attached
}

// Current requests a one-shot fix from the client and waits for the next
// fix or error frame.
func (d *DeviceSource) Current(ctx context.Context, opts geolocate.Options) (geolocate.Fix, error) {
	d.mu.Lock()
	if !d.attached {
		d.mu.Unlock()
		return geolocate.Fix{}, geolocate.ErrPositionUnavailable
	}

	d.nextID++
	id := d.nextID
	result := make(chan fixResult, 1)
	d.oneShots[id] = result
	d.mu.Unlock()

	d.send(LocateFrame{
		Type:         FrameTypeLocate,
		HighAccuracy: opts.HighAccuracy,
		TimeoutMs:    opts.Timeout.Milliseconds(),
		MaxAgeMs:     opts.MaxAge.Milliseconds(),
	})

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	select {
	case res := <-result:
		return res.fix, res.err
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.oneShots, id)
		d.mu.Unlock()
		// Only a deadline is a GPS timeout; a canceled parent (the client
		// went away mid-locate) keeps its own error.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return geolocate.Fix{}, geolocate.ErrTimeout
		}
		return geolocate.Fix{}, ctx.Err()
	}
}

// Watch delivers every incoming fix frame to fn until ctx is canceled.
func (d *DeviceSource) Watch(ctx context.Context, _ geolocate.Options, fn func(geolocate.Fix)) error {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.watchers[id] = fn
	d.mu.Unlock()

	<-ctx.Done()

	d.mu.Lock()
	delete(d.watchers, id)
	d.mu.Unlock()
	return ctx.Err()
}

// HandleFrame processes one inbound frame from the connected client.
func (d *DeviceSource) HandleFrame(data []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		d.logger.Warn().Err(err).Msg("dropping malformed frame")
		return
	}

	switch frame.Type {
	case FrameTypeFix:
		d.deliverFix(geolocate.Fix{
			Lat:       frame.Lat,
			Lon:       frame.Lon,
			AccuracyM: frame.AccuracyM,
		})
	case FrameTypeError:
		d.deliverError(mapErrorCode(frame.Code))
	default:
		d.logger.Warn().Str("type", frame.Type).Msg("dropping frame of unknown type")
	}
}

func (d *DeviceSource) deliverFix(fix geolocate.Fix) {
	d.mu.Lock()
	oneShots := make([]chan fixResult, 0, len(d.oneShots))
	for id, ch := range d.oneShots {
		oneShots = append(oneShots, ch)
		delete(d.oneShots, id)
	}
	watchers := make([]func(geolocate.Fix), 0, len(d.watchers))
	for _, fn := range d.watchers {
		watchers = append(watchers, fn)
	}
	d.mu.Unlock()

	for _, ch := range oneShots {
		ch <- fixResult{fix: fix}
	}
	for _, fn := range watchers {
		fn(fix)
	}
}

func (d *DeviceSource) deliverError(err error) {
	d.mu.Lock()
	oneShots := make([]chan fixResult, 0, len(d.oneShots))
	for id, ch := range d.oneShots {
		oneShots = append(oneShots, ch)
		delete(d.oneShots, id)
	}
	d.mu.Unlock()

	// Watch errors stay internal; only one-shot requests surface them.
	for _, ch := range oneShots {
		ch <- fixResult{err: err}
	}
}

// send enqueues an outbound frame, dropping it when the queue is full.
func (d *DeviceSource) send(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		d.logger.Error().Err(err).Msg("marshaling outbound frame")
		return
	}

	d.mu.Lock()
	out := d.out
	d.mu.Unlock()

	select {
	case out <- data:
	default:
		d.logger.Warn().Msg("outbound frame queue full, dropping frame")
	}
}

func mapErrorCode(code string) error {
	switch code {
	case ErrorCodePermissionDenied:
		return geolocate.ErrPermissionDenied
	case ErrorCodeTimeout:
		return geolocate.ErrTimeout
	default:
		return geolocate.ErrPositionUnavailable
	}
}

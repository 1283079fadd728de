package handler

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/api/ws"
	"github.com/voisilab/voisimap/internal/camera"
	"github.com/voisilab/voisimap/internal/nav"
)

// SessionManager wires each navigation session to its device stream: the
// websocket-backed position source feeds the session, and the session's
// camera moves flow back out over the same stream.
type SessionManager struct {
	routes nav.RouteFinder
	ppns   nav.PPNResolver
	logger zerolog.Logger

	registry *nav.Registry

	mu      sync.Mutex
	devices map[string]*ws.DeviceSource
}

// NewSessionManager creates a session manager.
func NewSessionManager(routes nav.RouteFinder, ppns nav.PPNResolver, logger zerolog.Logger) *SessionManager {
	m := &SessionManager{
		routes:  routes,
		ppns:    ppns,
		logger:  logger,
		devices: make(map[string]*ws.DeviceSource),
	}
	m.registry = nav.NewRegistry(m.build, logger)
	return m
}

func (m *SessionManager) build(id string) *nav.Session {
	logger := m.logger.With().Str("session_id", id).Logger()
	device := ws.NewDeviceSource(logger)

	m.mu.Lock()
	m.devices[id] = device
	m.mu.Unlock()

	return nav.NewSession(nav.Config{
		ID:     id,
		Source: device,
		Routes: m.routes,
		PPNs:   m.ppns,
		Camera: camera.NewController(ws.NewCameraWriter(device), logger),
		Logger: m.logger,
	})
}

// Registry returns the underlying session registry.
func (m *SessionManager) Registry() *nav.Registry {
	return m.registry
}

// Create builds and registers a new session.
func (m *SessionManager) Create() *nav.Session {
	return m.registry.Create()
}

// Get returns a registered session.
func (m *SessionManager) Get(id string) (*nav.Session, error) {
	return m.registry.Get(id)
}

// Device returns the device stream of a registered session.
func (m *SessionManager) Device(id string) (*ws.DeviceSource, error) {
	if _, err := m.registry.Get(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[id]
	if !ok {
		return nil, nav.ErrSessionNotFound
	}
	return device, nil
}

// Remove closes and unregisters a session and its device stream.
func (m *SessionManager) Remove(id string) {
	m.registry.Remove(id)

	m.mu.Lock()
	device := m.devices[id]
	delete(m.devices, id)
	m.mu.Unlock()

	if device != nil {
		device.Close()
	}
}

// Close shuts down every session.
func (m *SessionManager) Close() {
	m.registry.Close()

	m.mu.Lock()
	devices := m.devices
	m.devices = make(map[string]*ws.DeviceSource)
	m.mu.Unlock()

	for _, device := range devices {
		device.Close()
	}
}

// SPDX-License-Identifier: GPL-3.0-only

// Package dbus exposes the daemon's configuration on D-Bus as an alternative to the socket
// protocol, and announces backlight changes as signals.
package dbus

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/anilaras/lumos/internal/config"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrRateLimitExceeded is returned when mutating calls exceed the rate limit.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

const (
	// rateLimitPerSecond is the maximum number of mutating calls per second.
	rateLimitPerSecond = 20

	// rateLimitBurst is the maximum burst size for mutating calls.
	rateLimitBurst = 5
)

const (
	// ServiceName is the D-Bus service name.
	ServiceName = "io.github.anilaras.Lumos"

	// ObjectPath is the D-Bus object path.
	ObjectPath = "/io/github/anilaras/Lumos"

	// InterfaceName is the D-Bus interface name.
	InterfaceName = "io.github.anilaras.Lumos"
)

// IntrospectXML is the D-Bus introspection XML for the service.
const IntrospectXML = `
<node name="` + ObjectPath + `">
  <interface name="` + InterfaceName + `">
    <method name="Get">
      <arg name="key" type="s" direction="in"/>
      <arg name="value" type="s" direction="out"/>
    </method>
    <method name="Set">
      <arg name="key" type="s" direction="in"/>
      <arg name="value" type="s" direction="in"/>
    </method>
    <method name="Persist"/>
    <method name="SetMode">
      <arg name="mode" type="s" direction="in"/>
    </method>
    <method name="SetManualBrightness">
      <arg name="percent" type="u" direction="in"/>
    </method>
    <signal name="BrightnessChanged">
      <arg name="raw" type="u"/>
      <arg name="percent" type="u"/>
    </signal>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>
`

// ConfigStore is the configuration state served over D-Bus.
// This allows for mocking in tests.
type ConfigStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Persist() error
}

// Server implements the D-Bus service.
//
// Thread safety: the store serializes its own access; connMu protects the conn field only.
type Server struct {
	conn        *dbus.Conn
	connMu      sync.RWMutex
	store       ConfigStore
	rateLimiter *rate.Limiter
	connect     func() (*dbus.Conn, error)
	busName     string
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithSessionBus registers the service on the session bus instead of the system bus.
func WithSessionBus() ServerOption {
	return func(s *Server) {
		s.connect = func() (*dbus.Conn, error) {
			return dbus.ConnectSessionBus()
		}
		s.busName = "session"
	}
}

// WithRateLimiter sets the limiter applied to mutating calls.
func WithRateLimiter(limiter *rate.Limiter) ServerOption {
	return func(s *Server) {
		s.rateLimiter = limiter
	}
}

// NewServer creates a new D-Bus server backed by store.
func NewServer(store ConfigStore, opts ...ServerOption) *Server {
	s := &Server{
		store:       store,
		rateLimiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
		busName:     "system",
	}
	s.connect = func() (*dbus.Conn, error) {
		return dbus.ConnectSystemBus()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects to the bus and exports the service.
func (s *Server) Start() error {
	conn, err := s.connect()
	if err != nil {
		return fmt.Errorf("failed to connect to %s bus: %w", s.busName, err)
	}

	success := false
	defer func() {
		if !success {
			if closeErr := conn.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("Failed to close D-Bus connection during cleanup")
			}
		}
	}()

	if err := conn.Export(s, ObjectPath, InterfaceName); err != nil {
		return fmt.Errorf("failed to export server: %w", err)
	}

	err = conn.Export(introspect.Introspectable(IntrospectXML), ObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	success = true
	log.Info().Str("service", ServiceName).Str("bus", s.busName).Msg("D-Bus service started")
	return nil
}

// Stop disconnects from the bus.
func (s *Server) Stop() error {
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Get returns the value of a configuration key.
func (s *Server) Get(key string) (string, *dbus.Error) {
	value, err := s.store.Get(key)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Rejected D-Bus Get")
		return "", dbus.MakeFailedError(err)
	}
	return value, nil
}

// Set changes a configuration key. It follows the socket protocol's SET semantics.
func (s *Server) Set(key, value string) *dbus.Error {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for Set")
		return dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	if err := s.store.Set(key, value); err != nil {
		log.Debug().Err(err).Str("key", key).Str("value", value).Msg("Rejected D-Bus Set")
		return dbus.MakeFailedError(err)
	}

	log.Debug().Str("key", key).Str("value", value).Msg("Set via D-Bus")
	return nil
}

// Persist saves the configuration file.
func (s *Server) Persist() *dbus.Error {
	if !s.rateLimiter.Allow() {
		log.Warn().Msg("Rate limit exceeded for Persist")
		return dbus.MakeFailedError(ErrRateLimitExceeded)
	}

	if err := s.store.Persist(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// SetMode switches between "auto" and "manual".
func (s *Server) SetMode(mode string) *dbus.Error {
	return s.Set(config.KeyMode, mode)
}

// SetManualBrightness sets the manual level in percent (0-100) and selects manual mode.
func (s *Server) SetManualBrightness(percent uint32) *dbus.Error {
	if percent > 100 {
		percent = 100
	}
	return s.Set(config.KeyManualBrightness, strconv.FormatUint(uint64(percent), 10))
}

// EmitBrightnessChanged emits the BrightnessChanged signal. It is a no-op before Start.
func (s *Server) EmitBrightnessChanged(raw, percent int) {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()

	if conn == nil {
		return
	}

	if raw < 0 {
		raw = 0
	}
	if percent < 0 {
		percent = 0
	}

	// #nosec G115 -- both values are clamped to be non-negative
	err := conn.Emit(ObjectPath, InterfaceName+".BrightnessChanged", uint32(raw), uint32(percent))
	if err != nil {
		log.Error().Err(err).Msg("Failed to emit BrightnessChanged signal")
	}
}

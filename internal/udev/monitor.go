// SPDX-License-Identifier: GPL-3.0-only

// Package udev watches netlink uevents for V4L2 capture devices appearing and disappearing.
package udev

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/pilebones/go-udev/netlink"
	"github.com/rs/zerolog/log"
)

const (
	// netlinkBufferSize is the receive buffer size for the netlink socket. Plugging a USB
	// camera emits a burst of uevents for its interfaces.
	netlinkBufferSize = 1024 * 1024

	// Subsystem is the kernel subsystem of video device nodes.
	Subsystem = "video4linux"

	devDir = "/dev"
)

// EventType represents the type of device event.
type EventType int

const (
	// EventAdd indicates a capture node appeared.
	EventAdd EventType = iota
	// EventRemove indicates a capture node disappeared.
	EventRemove
)

// String returns the uevent action name.
func (t EventType) String() string {
	if t == EventRemove {
		return "remove"
	}
	return "add"
}

// Event represents a capture device hot-plug event.
type Event struct {
	Type EventType

	// DevName is the device node path, e.g. /dev/video0.
	DevName string

	// DevPath is the sysfs path of the kernel object.
	DevPath string
}

// EventHandler is called when a device event occurs.
type EventHandler func(event Event)

// RecoveryHandler is called when events may have been lost (netlink buffer overflow).
type RecoveryHandler func()

// Monitor watches for video4linux add/remove events.
type Monitor struct {
	conn            *netlink.UEventConn
	handler         EventHandler
	recoveryHandler RecoveryHandler
	quit            chan struct{}
	stopped         bool
	mu              sync.Mutex
}

// NewMonitor creates a new udev monitor with the given event handler.
func NewMonitor(handler EventHandler) *Monitor {
	return &Monitor{
		handler: handler,
	}
}

// SetRecoveryHandler sets the handler called after a netlink buffer overflow.
func (m *Monitor) SetRecoveryHandler(handler RecoveryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryHandler = handler
}

// Start begins monitoring in a background goroutine.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return fmt.Errorf("monitor already started")
	}

	m.conn = &netlink.UEventConn{}
	if err := m.conn.Connect(netlink.UdevEvent); err != nil {
		m.conn = nil
		return fmt.Errorf("failed to connect to netlink: %w", err)
	}

	if err := setSocketBufferSize(m.conn.Fd, netlinkBufferSize); err != nil {
		log.Warn().Err(err).Int("size", netlinkBufferSize).Msg("Failed to set netlink buffer size")
	} else {
		log.Debug().Int("size", netlinkBufferSize).Msg("Netlink socket buffer size configured")
	}

	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.quit = m.conn.Monitor(queue, errs, createMatcher())
	m.stopped = false

	go m.processEvents(queue, errs)

	log.Info().Str("subsystem", Subsystem).Msg("udev monitor started")
	return nil
}

// Stop stops the monitor and releases resources.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.stopped {
		return nil
	}

	m.stopped = true

	select {
	case m.quit <- struct{}{}:
	default:
	}

	if err := m.conn.Close(); err != nil {
		return fmt.Errorf("failed to close netlink connection: %w", err)
	}

	m.conn = nil
	log.Info().Msg("udev monitor stopped")
	return nil
}

// createMatcher accepts add and remove events of the video4linux subsystem.
func createMatcher() *netlink.RuleDefinitions {
	rules := &netlink.RuleDefinitions{}

	subsystem := "^" + Subsystem + "$"
	for _, action := range []string{"add", "remove"} {
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM": subsystem,
			},
		})
	}

	return rules
}

func (m *Monitor) processEvents(queue chan netlink.UEvent, errs chan error) {
	for {
		select {
		case event, ok := <-queue:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.mu.Lock()
			stopped := m.stopped
			recoveryHandler := m.recoveryHandler
			m.mu.Unlock()
			if stopped {
				return
			}

			// Events may have been dropped; let the caller re-check its device.
			if isBufferOverflowError(err) {
				log.Warn().Msg("Netlink buffer overflow detected, triggering recovery")
				if recoveryHandler != nil {
					go recoveryHandler()
				}
				continue
			}

			log.Error().Err(err).Msg("udev monitor error")
		}
	}
}

// setSocketBufferSize sets the receive buffer size for a socket.
// It first tries SO_RCVBUFFORCE (requires CAP_NET_ADMIN), then falls back to SO_RCVBUF.
func setSocketBufferSize(fd int, size int) error {
	err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUFFORCE, size)
	if err == nil {
		return nil
	}
	return syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, size)
}

// isBufferOverflowError checks if the error is a netlink buffer overflow (ENOBUFS).
func isBufferOverflowError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ENOBUFS) {
		return true
	}
	// go-udev reports some failures as plain strings.
	return strings.Contains(strings.ToLower(err.Error()), "no buffer space available")
}

// DevNodePath returns the /dev path for a DEVNAME value. Kernel uevents carry a name
// relative to /dev, udev events an absolute path.
func DevNodePath(devName string) string {
	if devName == "" {
		return ""
	}
	if filepath.IsAbs(devName) {
		return filepath.Clean(devName)
	}
	return filepath.Join(devDir, devName)
}

func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	if uevent.Env["SUBSYSTEM"] != "" && uevent.Env["SUBSYSTEM"] != Subsystem {
		return
	}

	var eventType EventType
	switch uevent.Action {
	case netlink.ADD:
		eventType = EventAdd
	case netlink.REMOVE:
		eventType = EventRemove
	default:
		return
	}

	event := Event{
		Type:    eventType,
		DevName: DevNodePath(uevent.Env["DEVNAME"]),
		DevPath: uevent.KObj,
	}

	log.Debug().
		Str("action", eventType.String()).
		Str("devname", event.DevName).
		Str("devpath", event.DevPath).
		Msg("Capture device event")

	if m.handler != nil {
		m.handler(event)
	}
}

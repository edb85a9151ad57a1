// SPDX-License-Identifier: GPL-3.0-only

// Package state holds the daemon's live configuration behind a single lock and the wake
// channel used to cut the control loop's wait short.
package state

import (
	"fmt"
	"sync"

	"github.com/anilaras/lumos/internal/config"
	"github.com/rs/zerolog/log"
)

// Store owns the running configuration. Every read and write of a field goes through it.
type Store struct {
	mu    sync.RWMutex
	cfg   config.Config
	path  string
	wake  chan struct{}
	saver func(path string, cfg config.Config) error
}

// StoreOption is a functional option for configuring a Store.
type StoreOption func(*Store)

// WithSaver sets a custom persistence function for testing.
func WithSaver(fn func(path string, cfg config.Config) error) StoreOption {
	return func(s *Store) {
		s.saver = fn
	}
}

// NewStore creates a store seeded with cfg that persists to path.
func NewStore(cfg config.Config, path string, opts ...StoreOption) *Store {
	cfg.Normalize()
	s := &Store{
		cfg:   cfg,
		path:  path,
		wake:  make(chan struct{}, 1),
		saver: config.Save,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configuration file location used by Persist.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Get returns the protocol encoding of the field named by key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Get(key)
}

// Set applies a runtime mutation and wakes the control loop.
//
// Mode values are mapped leniently: anything other than "manual" or "1" selects auto.
// Setting the manual brightness also switches to manual mode. The bound invariant is
// enforced afterwards. On error the configuration is unchanged and no wake is sent.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	next := s.cfg
	var err error
	if key == config.KeyMode {
		next.Mode = config.ModeFromRequest(value)
	} else {
		err = next.Set(key, value)
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if config.IsManualKey(key) {
		next.Mode = config.ModeManual
	}
	reset := next.Normalize()
	s.cfg = next
	s.mu.Unlock()

	if reset {
		log.Warn().
			Str("key", key).
			Str("value", value).
			Msg("min_brightness must be below max_brightness, reverting both to defaults")
	}
	log.Debug().Str("key", key).Str("value", value).Msg("Configuration updated")

	s.Notify()
	return nil
}

// Persist writes a snapshot of the configuration to the store's path.
func (s *Store) Persist() error {
	cfg := s.Snapshot()
	if err := s.saver(s.path, cfg); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Failed to persist configuration")
		return fmt.Errorf("failed to persist configuration to %s: %w", s.path, err)
	}
	log.Info().Str("path", s.path).Msg("Configuration saved")
	return nil
}

// Notify asks the control loop to re-evaluate. It never blocks; pending notifications
// coalesce into one.
func (s *Store) Notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wake returns the channel that receives a value after Notify.
func (s *Store) Wake() <-chan struct{} {
	return s.wake
}

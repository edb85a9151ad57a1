// SPDX-License-Identifier: GPL-3.0-only

// Package control runs the periodic brightness evaluation.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anilaras/lumos/internal/brightness"
	"github.com/anilaras/lumos/internal/camera"
	"github.com/anilaras/lumos/internal/config"
	"github.com/rs/zerolog/log"
)

// ErrInvalidMax is returned when the backlight reports a non-positive maximum.
var ErrInvalidMax = errors.New("backlight maximum is not positive")

// Actuator is the backlight the loop reads and writes.
type Actuator interface {
	Max() (int, error)
	Current() (int, error)
	Set(raw int) error
}

// Source provides the configuration and the wake signal.
type Source interface {
	Snapshot() config.Config
	Wake() <-chan struct{}
}

// Observer is called after every successful backlight write with the raw value and its
// percentage of the maximum.
type Observer func(raw, percent int)

// Result describes one evaluation.
type Result struct {
	Mode    config.Mode
	Luma    int
	Max     int
	Current int
	Target  brightness.Target
	Written bool
}

// Loop evaluates the configuration against the backlight on a timer.
type Loop struct {
	source   Source
	actuator Actuator
	sampler  camera.Sampler
	observer Observer
}

// Option is a functional option for configuring a Loop.
type Option func(*Loop)

// WithObserver sets the callback invoked after each write.
func WithObserver(fn Observer) Option {
	return func(l *Loop) {
		l.observer = fn
	}
}

// New creates a control loop.
func New(source Source, actuator Actuator, sampler camera.Sampler, opts ...Option) *Loop {
	l := &Loop{
		source:   source,
		actuator: actuator,
		sampler:  sampler,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Step runs a single evaluation. Any error means the cycle was skipped or the write failed;
// none of them are fatal.
func (l *Loop) Step() (Result, error) {
	cfg := l.source.Snapshot()
	res := Result{Mode: cfg.Mode}

	maxRaw, err := l.actuator.Max()
	if err != nil {
		return res, fmt.Errorf("failed to read backlight maximum: %w", err)
	}
	if maxRaw <= 0 {
		return res, fmt.Errorf("%w: %d", ErrInvalidMax, maxRaw)
	}
	res.Max = maxRaw

	current, err := l.actuator.Current()
	if err != nil {
		return res, fmt.Errorf("failed to read backlight level: %w", err)
	}
	res.Current = current

	switch cfg.Mode {
	case config.ModeManual:
		res.Target = brightness.Manual(cfg, maxRaw)
	default:
		luma, err := l.sampler.Sample(cfg.CameraDevice)
		if err != nil {
			return res, fmt.Errorf("failed to sample ambient light: %w", err)
		}
		res.Luma = luma
		res.Target = brightness.Auto(luma, cfg, maxRaw)
	}

	if !res.Target.ShouldWrite(current, maxRaw) {
		log.Debug().
			Str("mode", cfg.Mode.String()).
			Int("current", current).
			Int("target", res.Target.Raw).
			Msg("Brightness within deadband")
		return res, nil
	}

	if err := l.actuator.Set(res.Target.Raw); err != nil {
		return res, fmt.Errorf("failed to write backlight level: %w", err)
	}
	res.Written = true

	percent := brightness.RawToPercent(res.Target.Raw, maxRaw)
	log.Info().
		Str("mode", cfg.Mode.String()).
		Int("luma", res.Luma).
		Int("from", current).
		Int("to", res.Target.Raw).
		Int("percent", percent).
		Msg("Brightness adjusted")

	if l.observer != nil {
		l.observer(res.Target.Raw, percent)
	}
	return res, nil
}

// Run evaluates immediately and then again whenever the configured interval elapses or the
// source signals a wake. It returns when ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if _, err := l.Step(); err != nil {
			log.Debug().Err(err).Msg("Skipping brightness update")
		}

		interval := l.source.Snapshot().Interval()
		if interval <= 0 {
			interval = time.Duration(config.DefaultIntervalSeconds) * time.Second
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug().Msg("Control loop stopped")
			return
		case <-l.source.Wake():
			timer.Stop()
			log.Debug().Msg("Control loop woken early")
		case <-timer.C:
		}
	}
}

// SPDX-License-Identifier: GPL-3.0-only

// Package config defines the daemon's runtime configuration record, the key names shared by
// the IPC protocol and the configuration file, and the validation rules for each field.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"
)

// ErrUnknownKey is returned when a key does not name a configuration field.
var ErrUnknownKey = errors.New("unknown key")

// ErrInvalidValue is returned when a value cannot be parsed or is out of range for its field.
var ErrInvalidValue = errors.New("invalid value")

const (
	// DefaultPath is the configuration file location used when none is given.
	DefaultPath = "/etc/lumos.conf"

	// DefaultMinPercent is the default lower bound of the automatic brightness range.
	DefaultMinPercent = 5

	// DefaultMaxPercent is the default upper bound of the automatic brightness range.
	DefaultMaxPercent = 100

	// DefaultIntervalSeconds is the default control-loop period.
	DefaultIntervalSeconds = 60

	// DefaultSensitivity is the default multiplier applied to the ambient percentage.
	DefaultSensitivity = 1.0

	// DefaultManualPercent is the default manual-mode brightness.
	DefaultManualPercent = 50

	// DefaultCameraDevice is the default V4L2 capture node.
	DefaultCameraDevice = "/dev/video0"

	// maxOffsetPercent bounds the additive bias in either direction.
	maxOffsetPercent = 100
)

// Keys shared by the IPC protocol and the configuration file.
const (
	KeyMinBrightness    = "min_brightness"
	KeyMaxBrightness    = "max_brightness"
	KeyInterval         = "interval"
	KeyBrightnessOffset = "brightness_offset"
	KeySensitivity      = "sensitivity"
	KeyMode             = "mode"
	KeyManualBrightness = "manual_brightness"
	KeyCameraDevice     = "camera_dev"

	// KeyBrightness is an alias of KeyManualBrightness accepted by GET and SET.
	KeyBrightness = "brightness"
)

// Config is the daemon's shared, mutable configuration.
type Config struct {
	MinPercent      int
	MaxPercent      int
	IntervalSeconds int
	OffsetPercent   int
	Sensitivity     float64
	Mode            Mode
	ManualPercent   int
	CameraDevice    string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MinPercent:      DefaultMinPercent,
		MaxPercent:      DefaultMaxPercent,
		IntervalSeconds: DefaultIntervalSeconds,
		OffsetPercent:   0,
		Sensitivity:     DefaultSensitivity,
		Mode:            ModeAuto,
		ManualPercent:   DefaultManualPercent,
		CameraDevice:    DefaultCameraDevice,
	}
}

// Interval returns the control-loop period as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Normalize enforces MinPercent < MaxPercent. When violated, both bounds revert to their
// defaults. It reports whether the bounds were reset.
func (c *Config) Normalize() bool {
	if c.MinPercent < c.MaxPercent {
		return false
	}
	c.MinPercent = DefaultMinPercent
	c.MaxPercent = DefaultMaxPercent
	return true
}

// Get returns the protocol encoding of the field named by key.
func (c Config) Get(key string) (string, error) {
	switch key {
	case KeyMinBrightness:
		return strconv.Itoa(c.MinPercent), nil
	case KeyMaxBrightness:
		return strconv.Itoa(c.MaxPercent), nil
	case KeyInterval:
		return strconv.Itoa(c.IntervalSeconds), nil
	case KeyBrightnessOffset:
		return strconv.Itoa(c.OffsetPercent), nil
	case KeySensitivity:
		return strconv.FormatFloat(c.Sensitivity, 'f', 2, 64), nil
	case KeyMode:
		return c.Mode.String(), nil
	case KeyManualBrightness, KeyBrightness:
		return strconv.Itoa(c.ManualPercent), nil
	case KeyCameraDevice:
		return c.CameraDevice, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set parses value and stores it in the field named by key. The value is validated with
// the field's rules; on error the configuration is left unchanged. Set does not enforce the
// cross-field bound invariant; callers run Normalize afterwards.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyMinBrightness:
		return setPercent(&c.MinPercent, value)
	case KeyMaxBrightness:
		return setPercent(&c.MaxPercent, value)
	case KeyManualBrightness, KeyBrightness:
		return setPercent(&c.ManualPercent, value)
	case KeyInterval:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s=%q must be a positive integer", ErrInvalidValue, key, value)
		}
		c.IntervalSeconds = n
		return nil
	case KeyBrightnessOffset:
		n, err := strconv.Atoi(value)
		if err != nil || n < -maxOffsetPercent || n > maxOffsetPercent {
			return fmt.Errorf("%w: %s=%q must be an integer between -%d and %d",
				ErrInvalidValue, key, value, maxOffsetPercent, maxOffsetPercent)
		}
		c.OffsetPercent = n
		return nil
	case KeySensitivity:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("%w: %s=%q must be a positive number", ErrInvalidValue, key, value)
		}
		c.Sensitivity = f
		return nil
	case KeyMode:
		mode, err := ParseMode(value)
		if err != nil {
			return err
		}
		c.Mode = mode
		return nil
	case KeyCameraDevice:
		if value == "" || !filepath.IsAbs(value) {
			return fmt.Errorf("%w: %s=%q must be an absolute device path", ErrInvalidValue, key, value)
		}
		c.CameraDevice = filepath.Clean(value)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

func setPercent(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > 100 {
		return fmt.Errorf("%w: %q must be an integer between 0 and 100", ErrInvalidValue, value)
	}
	*dst = n
	return nil
}

// IsManualKey reports whether setting key implies manual mode.
func IsManualKey(key string) bool {
	return key == KeyManualBrightness || key == KeyBrightness
}

// SPDX-License-Identifier: GPL-3.0-only

// Package brightness maps ambient luma samples and manual settings to raw backlight values
// and decides whether a correction is large enough to be written.
package brightness

import (
	"math"

	"github.com/anilaras/lumos/internal/config"
)

const (
	// ReferenceLuma is the luma value that maps to 100% before sensitivity and offset.
	ReferenceLuma = 180.0

	// AutoDeadband is the fraction of the raw range inside which auto mode does not write.
	AutoDeadband = 0.05

	// ManualDeadband is the fraction of the raw range inside which manual mode does not write.
	ManualDeadband = 0.01
)

// Target is a computed backlight value together with the deadband that applies to it.
type Target struct {
	// Raw is the value to write to the backlight, in the device's units.
	Raw int

	// Percent is the requested level before conversion to raw units.
	Percent float64

	// Deadband is the fraction of the raw range treated as "close enough".
	Deadband float64
}

// LumaToPercent converts a luma sample (0-255) to an ambient percentage.
// Values above ReferenceLuma exceed 100%.
func LumaToPercent(luma int) float64 {
	return float64(luma) / ReferenceLuma * 100
}

// Auto computes the auto-mode target for a luma sample. Sensitivity and offset are applied
// before the result is clamped to the configured range.
func Auto(luma int, cfg config.Config, maxRaw int) Target {
	percent := LumaToPercent(luma)*cfg.Sensitivity + float64(cfg.OffsetPercent)
	percent = ClampPercent(percent, float64(cfg.MinPercent), float64(cfg.MaxPercent))
	return Target{
		Raw:      PercentToRaw(percent, maxRaw),
		Percent:  percent,
		Deadband: AutoDeadband,
	}
}

// Manual computes the manual-mode target. The manual percentage is used as is.
func Manual(cfg config.Config, maxRaw int) Target {
	percent := float64(cfg.ManualPercent)
	return Target{
		Raw:      PercentToRaw(percent, maxRaw),
		Percent:  percent,
		Deadband: ManualDeadband,
	}
}

// ShouldWrite reports whether the target differs from current by more than the deadband.
// It returns false when maxRaw is not positive.
func (t Target) ShouldWrite(current, maxRaw int) bool {
	if maxRaw <= 0 {
		return false
	}
	diff := math.Abs(float64(current - t.Raw))
	return diff > t.Deadband*float64(maxRaw)
}

// PercentToRaw converts a percentage to raw units, rounding to the nearest integer.
// The result is clamped to [0, maxRaw].
func PercentToRaw(percent float64, maxRaw int) int {
	if maxRaw <= 0 {
		return 0
	}
	raw := int(math.Round(percent / 100 * float64(maxRaw)))
	return ClampRaw(raw, maxRaw)
}

// RawToPercent converts a raw backlight value to a rounded percentage (0-100).
func RawToPercent(raw, maxRaw int) int {
	if maxRaw <= 0 {
		return 0
	}
	raw = ClampRaw(raw, maxRaw)
	return int(math.Round(float64(raw) / float64(maxRaw) * 100))
}

// ClampPercent limits percent to [lo, hi].
func ClampPercent(percent, lo, hi float64) float64 {
	if percent < lo {
		return lo
	}
	if percent > hi {
		return hi
	}
	return percent
}

// ClampRaw limits raw to [0, maxRaw].
func ClampRaw(raw, maxRaw int) int {
	if raw < 0 {
		return 0
	}
	if raw > maxRaw {
		return maxRaw
	}
	return raw
}

// SPDX-License-Identifier: GPL-3.0-only

package config

import "fmt"

// Mode selects how the control loop derives its target brightness.
type Mode int

const (
	// ModeAuto follows the ambient light sampled from the camera.
	ModeAuto Mode = iota
	// ModeManual holds the configured manual brightness.
	ModeManual
)

// String returns the protocol encoding of the mode.
func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// ParseMode accepts "auto", "manual", "0" and "1".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "auto", "0":
		return ModeAuto, nil
	case "manual", "1":
		return ModeManual, nil
	default:
		return ModeAuto, fmt.Errorf("%w: mode %q must be auto or manual", ErrInvalidValue, s)
	}
}

// ModeFromRequest is the lenient mapping used by runtime requests: "manual" and "1" select
// manual mode, anything else selects auto.
func ModeFromRequest(s string) Mode {
	if s == "manual" || s == "1" {
		return ModeManual
	}
	return ModeAuto
}

// SPDX-License-Identifier: GPL-3.0-only

// Package backlight reads and writes the sysfs backlight control surface.
package backlight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultRoot is the sysfs directory enumerating backlight devices.
	DefaultRoot = "/sys/class/backlight"

	// AttrBrightness is the read/write attribute holding the current level.
	AttrBrightness = "brightness"

	// AttrMaxBrightness is the read-only attribute holding the highest level.
	AttrMaxBrightness = "max_brightness"
)

// ErrNoDeviceFound is returned when the enumeration root holds no backlight device.
var ErrNoDeviceFound = errors.New("no backlight device found")

// Surface is a single backlight control directory, such as
// /sys/class/backlight/intel_backlight. It holds no open handles; every attribute access
// opens and closes the file.
type Surface struct {
	path string
}

// New returns a Surface for an explicit control directory.
func New(path string) *Surface {
	return &Surface{path: path}
}

// Discover returns the first visible entry under root. Entries are considered in lexical
// order and names beginning with a dot are skipped.
func Discover(root string) (*Surface, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %w", ErrNoDeviceFound, root, err)
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		return New(filepath.Join(root, entry.Name())), nil
	}

	return nil, fmt.Errorf("%w in %s", ErrNoDeviceFound, root)
}

// Path returns the control directory.
func (s *Surface) Path() string {
	return s.path
}

// Name returns the device name, e.g. "intel_backlight".
func (s *Surface) Name() string {
	return filepath.Base(s.path)
}

// ReadAttribute reads one integer attribute.
func (s *Surface) ReadAttribute(name string) (int, error) {
	data, err := os.ReadFile(filepath.Join(s.path, name))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", name, err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return value, nil
}

// WriteAttribute writes value as decimal text to an existing attribute.
func (s *Surface) WriteAttribute(name string, value int) error {
	f, err := os.OpenFile(filepath.Join(s.path, name), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}

	if _, err := f.WriteString(strconv.Itoa(value)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Max returns max_brightness.
func (s *Surface) Max() (int, error) {
	return s.ReadAttribute(AttrMaxBrightness)
}

// Current returns brightness.
func (s *Surface) Current() (int, error) {
	return s.ReadAttribute(AttrBrightness)
}

// Set writes brightness. Negative values are written as 0.
func (s *Surface) Set(raw int) error {
	if raw < 0 {
		raw = 0
	}
	return s.WriteAttribute(AttrBrightness, raw)
}

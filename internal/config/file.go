// SPDX-License-Identifier: GPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// fileField describes one persisted field. The order of fileFields is the order in which
// Save writes them.
type fileField struct {
	key     string
	comment string
}

var fileFields = []fileField{
	{KeyMode, "Brightness mode: auto follows the camera, manual holds manual_brightness"},
	{KeyManualBrightness, "Backlight level used in manual mode, in percent (0-100)"},
	{KeyMinBrightness, "Lowest backlight level auto mode may select, in percent (0-100)"},
	{KeyMaxBrightness, "Highest backlight level auto mode may select, in percent (0-100)"},
	{KeyBrightnessOffset, "Bias added to the ambient estimate, in percent (may be negative)"},
	{KeySensitivity, "Multiplier applied to the ambient estimate (1.00 = unchanged)"},
	{KeyInterval, "Seconds between ambient light samples"},
	{KeyCameraDevice, "V4L2 capture device used for ambient light sampling"},
}

// Load overlays the key=value file at path onto base and returns the result.
//
// A missing file is not an error: base is returned unchanged. Values that fail validation
// are discarded and the base value is kept for that field. Only "=" separates a key from its
// value, and the rest of the line is the value verbatim. Unknown keys and unrecognizable
// lines are ignored, and section headers do not scope keys. The bound invariant is enforced before returning.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", path).Msg("Config file not found, using defaults")
			return base, nil
		}
		return base, fmt.Errorf("failed to read config file: %w", err)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:      "=",
		SkipUnrecognizableLines: true,
		IgnoreContinuation:      true,
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
	}, data)
	if err != nil {
		return base, fmt.Errorf("failed to parse config file: %w", err)
	}

	// The format has no sections. Keys after a stray [header] line still apply.
	cfg := base
	for _, section := range file.Sections() {
		if section.Name() != ini.DefaultSection && len(section.Keys()) > 0 {
			log.Debug().Str("path", path).Str("section", section.Name()).Msg("Reading keys below section header")
		}
		for _, key := range section.Keys() {
			name := strings.TrimSpace(key.Name())
			value := strings.TrimSpace(key.String())
			if err := cfg.Set(name, value); err != nil {
				log.Debug().Err(err).Str("path", path).Str("key", name).Msg("Ignoring config entry")
			}
		}
	}

	if cfg.Normalize() {
		log.Warn().
			Str("path", path).
			Int("min", DefaultMinPercent).
			Int("max", DefaultMaxPercent).
			Msg("min_brightness must be below max_brightness, reverting both to defaults")
	}

	return cfg, nil
}

// Save writes cfg to path, replacing any existing file.
func Save(path string, cfg Config) error {
	if err := os.WriteFile(path, Encode(cfg), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode renders cfg in the configuration file format.
func Encode(cfg Config) []byte {
	var b strings.Builder
	b.WriteString("# Lumos configuration\n")
	b.WriteString("# Written by lumosd on PERSIST. Lines starting with # are ignored.\n")

	for _, field := range fileFields {
		value, err := cfg.Get(field.key)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n# %s\n%s=%s\n", field.comment, field.key, value)
	}

	return []byte(b.String())
}

// SPDX-License-Identifier: GPL-3.0-only

package backlight_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anilaras/lumos/internal/backlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDevice creates a fake backlight directory under root.
func newDevice(t *testing.T, root, name, maxValue, current string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, backlight.AttrMaxBrightness), []byte(maxValue), 0o444))
	require.NoError(t, os.WriteFile(filepath.Join(dir, backlight.AttrBrightness), []byte(current), 0o644))
	return dir
}

func TestDiscover_FirstVisibleEntry(t *testing.T) {
	root := t.TempDir()
	newDevice(t, root, ".hidden", "10\n", "5\n")
	newDevice(t, root, "intel_backlight", "19393\n", "9000\n")
	newDevice(t, root, "nvidia_0", "100\n", "50\n")

	surface, err := backlight.Discover(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "intel_backlight"), surface.Path())
	assert.Equal(t, "intel_backlight", surface.Name())
}

func TestDiscover_NoDevice(t *testing.T) {
	root := t.TempDir()
	newDevice(t, root, ".only-hidden", "10\n", "5\n")

	surface, err := backlight.Discover(root)
	assert.Nil(t, surface)
	assert.ErrorIs(t, err, backlight.ErrNoDeviceFound)
}

func TestDiscover_MissingRoot(t *testing.T) {
	surface, err := backlight.Discover(filepath.Join(t.TempDir(), "absent"))
	assert.Nil(t, surface)
	assert.ErrorIs(t, err, backlight.ErrNoDeviceFound)
}

func TestSurface_ReadAttributes(t *testing.T) {
	dir := newDevice(t, t.TempDir(), "amdgpu_bl0", "255\n", "128\n")
	surface := backlight.New(dir)

	maxValue, err := surface.Max()
	require.NoError(t, err)
	assert.Equal(t, 255, maxValue)

	current, err := surface.Current()
	require.NoError(t, err)
	assert.Equal(t, 128, current)
}

func TestSurface_ReadAttribute_Errors(t *testing.T) {
	dir := newDevice(t, t.TempDir(), "acpi_video0", "garbage", "")
	surface := backlight.New(dir)

	_, err := surface.Max()
	assert.Error(t, err)

	_, err = surface.Current()
	assert.Error(t, err)

	_, err = surface.ReadAttribute("actual_brightness")
	assert.Error(t, err)
}

func TestSurface_Set(t *testing.T) {
	dir := newDevice(t, t.TempDir(), "intel_backlight", "1000\n", "100\n")
	surface := backlight.New(dir)

	require.NoError(t, surface.Set(750))
	data, err := os.ReadFile(filepath.Join(dir, backlight.AttrBrightness))
	require.NoError(t, err)
	assert.Equal(t, "750", string(data))

	current, err := surface.Current()
	require.NoError(t, err)
	assert.Equal(t, 750, current)
}

func TestSurface_Set_ClampsNegative(t *testing.T) {
	dir := newDevice(t, t.TempDir(), "intel_backlight", "1000\n", "100\n")
	surface := backlight.New(dir)

	require.NoError(t, surface.Set(-20))
	current, err := surface.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, current)
}

func TestSurface_WriteAttribute_MissingFile(t *testing.T) {
	surface := backlight.New(filepath.Join(t.TempDir(), "gone"))

	err := surface.WriteAttribute(backlight.AttrBrightness, 10)
	assert.Error(t, err)

	// Writes never create attributes.
	_, statErr := os.Stat(filepath.Join(surface.Path(), backlight.AttrBrightness))
	assert.True(t, os.IsNotExist(statErr))
}

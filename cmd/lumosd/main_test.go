// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/anilaras/lumos/internal/backlight"
	"github.com/anilaras/lumos/internal/config"
	"github.com/anilaras/lumos/internal/ipc"
	"github.com/anilaras/lumos/internal/state"
	"github.com/anilaras/lumos/internal/udev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBacklight creates root/<name> with the two sysfs attributes.
func fakeBacklight(t *testing.T, root, name string, maxRaw, current int) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, backlight.AttrMaxBrightness), []byte(strconv.Itoa(maxRaw)+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, backlight.AttrBrightness), []byte(strconv.Itoa(current)+"\n"), 0o644))
	return dir
}

func TestNewRootCmd_Defaults(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	flags := cmd.Flags()
	configPath, err := flags.GetString("config")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPath, configPath)

	interval, err := flags.GetInt("interval")
	require.NoError(t, err)
	assert.Equal(t, 0, interval)

	socket, err := flags.GetString("socket")
	require.NoError(t, err)
	assert.Equal(t, ipc.DefaultSocketPath, socket)

	root, err := flags.GetString("backlight-root")
	require.NoError(t, err)
	assert.Equal(t, backlight.DefaultRoot, root)

	enabled, err := flags.GetBool("dbus")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestNewRootCmd_ShortFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-c", "/tmp/lumos.conf", "-i", "15", "-v"}))

	configPath, err := cmd.Flags().GetString("config")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lumos.conf", configPath)

	interval, err := cmd.Flags().GetInt("interval")
	require.NoError(t, err)
	assert.Equal(t, 15, interval)

	verbose, err := cmd.Flags().GetBool("verbose")
	require.NoError(t, err)
	assert.True(t, verbose)
}

func TestNewRootCmd_UnknownFlag(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--bogus"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestNewRootCmd_Help(t *testing.T) {
	var out strings.Builder
	cmd := newRootCmd()
	cmd.SetArgs([]string{"-h"})
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "lumosd")
	assert.Contains(t, out.String(), "--interval")
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		expected int
	}{
		{name: "no override", interval: 0, expected: 30},
		{name: "negative ignored", interval: -5, expected: 30},
		{name: "override", interval: 10, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.IntervalSeconds = 30

			got := applyOverrides(cfg, &options{interval: tt.interval})
			assert.Equal(t, tt.expected, got.IntervalSeconds)
		})
	}
}

func woken(store *state.Store) bool {
	select {
	case <-store.Wake():
		return true
	default:
		return false
	}
}

func TestCreateHotplugHandler(t *testing.T) {
	tests := []struct {
		name       string
		event      udev.Event
		expectWake bool
	}{
		{
			name:       "configured camera added",
			event:      udev.Event{Type: udev.EventAdd, DevName: config.DefaultCameraDevice},
			expectWake: true,
		},
		{
			name:       "other camera added",
			event:      udev.Event{Type: udev.EventAdd, DevName: "/dev/video7"},
			expectWake: false,
		},
		{
			name:       "configured camera removed",
			event:      udev.Event{Type: udev.EventRemove, DevName: config.DefaultCameraDevice},
			expectWake: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := state.NewStore(config.Default(), "")
			handler := createHotplugHandler(store, 0)

			handler(tt.event)
			assert.Equal(t, tt.expectWake, woken(store))
		})
	}
}

func TestCreateHotplugHandler_FollowsConfiguredCamera(t *testing.T) {
	store := state.NewStore(config.Default(), "")
	require.NoError(t, store.Set(config.KeyCameraDevice, "/dev/video2"))
	<-store.Wake()

	handler := createHotplugHandler(store, 0)

	handler(udev.Event{Type: udev.EventAdd, DevName: config.DefaultCameraDevice})
	assert.False(t, woken(store))

	handler(udev.Event{Type: udev.EventAdd, DevName: "/dev/video2"})
	assert.True(t, woken(store))
}

func TestCreateRecoveryHandler(t *testing.T) {
	store := state.NewStore(config.Default(), "")
	createRecoveryHandler(store)()
	assert.True(t, woken(store))
}

func TestRun_NoBacklight(t *testing.T) {
	opts := &options{
		configPath:    filepath.Join(t.TempDir(), "lumos.conf"),
		backlightRoot: t.TempDir(),
		socketPath:    filepath.Join(t.TempDir(), "lumos.sock"),
	}

	err := run(context.Background(), opts)
	assert.ErrorIs(t, err, backlight.ErrNoDeviceFound)
}

func TestRun_SocketFailure(t *testing.T) {
	root := t.TempDir()
	fakeBacklight(t, root, "acpi_video0", 100, 0)

	opts := &options{
		configPath:    filepath.Join(t.TempDir(), "lumos.conf"),
		backlightRoot: root,
		socketPath:    filepath.Join(t.TempDir(), "missing", "lumos.sock"),
	}

	err := run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IPC server")
}

func TestRun_ManualModeEndToEnd(t *testing.T) {
	root := t.TempDir()
	device := fakeBacklight(t, root, "intel_backlight", 200, 0)

	configPath := filepath.Join(t.TempDir(), "lumos.conf")
	require.NoError(t, os.WriteFile(configPath, []byte("mode=manual\nmanual_brightness=40\n"), 0o644))

	sockDir, err := os.MkdirTemp("", "lumosd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(sockDir) })

	opts := &options{
		configPath:    configPath,
		backlightRoot: root,
		socketPath:    filepath.Join(sockDir, "lumos.sock"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, opts)
	}()

	brightnessFile := filepath.Join(device, backlight.AttrBrightness)
	readBrightness := func() string {
		data, err := os.ReadFile(brightnessFile)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	require.Eventually(t, func() bool {
		return readBrightness() == "80"
	}, 3*time.Second, 20*time.Millisecond)

	client := ipc.NewClient(opts.socketPath)
	mode, err := client.Get(config.KeyMode)
	require.NoError(t, err)
	assert.Equal(t, "manual", mode)

	require.NoError(t, client.Set(config.KeyManualBrightness, "90"))
	require.Eventually(t, func() bool {
		return readBrightness() == "180"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

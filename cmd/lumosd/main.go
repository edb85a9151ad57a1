// SPDX-License-Identifier: GPL-3.0-only

// Package main provides the entry point for the Lumos ambient backlight daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/anilaras/lumos/internal/backlight"
	"github.com/anilaras/lumos/internal/camera"
	"github.com/anilaras/lumos/internal/config"
	"github.com/anilaras/lumos/internal/control"
	"github.com/anilaras/lumos/internal/dbus"
	"github.com/anilaras/lumos/internal/ipc"
	"github.com/anilaras/lumos/internal/state"
	"github.com/anilaras/lumos/internal/udev"
)

// hotplugSettleDelay gives a freshly plugged camera time to finish initializing before it
// is sampled.
const hotplugSettleDelay = 500 * time.Millisecond

// options holds the command-line flags.
type options struct {
	configPath    string
	interval      int
	verbose       bool
	socketPath    string
	backlightRoot string
	dbus          bool
	dbusSession   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "lumosd",
		Short: "Ambient light backlight daemon",
		Long: `lumosd keeps the display backlight matched to ambient light.

It periodically samples a V4L2 camera, derives a target brightness and writes it to
the first backlight found under /sys/class/backlight. The configuration can be changed
at runtime through a Unix socket (see lumosctl) and, optionally, over D-Bus.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Configuration file")
	flags.IntVarP(&opts.interval, "interval", "i", 0, "Override the sampling interval in seconds")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&opts.socketPath, "socket", ipc.DefaultSocketPath, "Control socket path")
	flags.StringVar(&opts.backlightRoot, "backlight-root", backlight.DefaultRoot, "Directory enumerating backlight devices")
	flags.BoolVar(&opts.dbus, "dbus", false, "Expose the configuration on D-Bus")
	flags.BoolVar(&opts.dbusSession, "dbus-session", false, "Use the session bus instead of the system bus")

	return cmd
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// applyOverrides layers command-line settings on top of the loaded configuration.
func applyOverrides(cfg config.Config, opts *options) config.Config {
	if opts.interval > 0 {
		cfg.IntervalSeconds = opts.interval
	}
	return cfg
}

func run(ctx context.Context, opts *options) error {
	setupLogging(opts.verbose)

	log.Info().Msg("Starting lumosd")

	surface, err := backlight.Discover(opts.backlightRoot)
	if err != nil {
		return err
	}
	if maxRaw, err := surface.Max(); err != nil {
		log.Warn().Err(err).Str("device", surface.Name()).Msg("Failed to read max_brightness")
	} else {
		log.Info().Str("device", surface.Name()).Int("max", maxRaw).Msg("Using backlight")
	}

	cfg, err := config.Load(opts.configPath, config.Default())
	if err != nil {
		log.Warn().Err(err).Str("path", opts.configPath).Msg("Failed to load config, using defaults")
	}
	cfg = applyOverrides(cfg, opts)

	log.Info().
		Str("mode", cfg.Mode.String()).
		Int("interval", cfg.IntervalSeconds).
		Str("camera", cfg.CameraDevice).
		Msg("Configuration loaded")

	store := state.NewStore(cfg, opts.configPath)

	ipcServer := ipc.NewServer(store, ipc.WithSocketPath(opts.socketPath))
	if err := ipcServer.Start(); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer func() {
		if err := ipcServer.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop IPC server")
		}
	}()

	var loopOpts []control.Option
	if opts.dbus {
		var busOpts []dbus.ServerOption
		if opts.dbusSession {
			busOpts = append(busOpts, dbus.WithSessionBus())
		}
		busServer := dbus.NewServer(store, busOpts...)
		if err := busServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start D-Bus service (D-Bus interface disabled)")
		} else {
			loopOpts = append(loopOpts, control.WithObserver(busServer.EmitBrightnessChanged))
			defer func() {
				if err := busServer.Stop(); err != nil {
					log.Error().Err(err).Msg("Failed to stop D-Bus server")
				}
			}()
		}
	}

	monitor := udev.NewMonitor(createHotplugHandler(store, hotplugSettleDelay))
	monitor.SetRecoveryHandler(createRecoveryHandler(store))
	if err := monitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start udev monitor (camera hot-plug detection disabled)")
	}
	defer func() {
		if err := monitor.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop udev monitor")
		}
	}()

	loop := control.New(store, surface, camera.NewV4L2Sampler(), loopOpts...)

	log.Info().Msg("Daemon running, press Ctrl+C to stop")
	loop.Run(ctx)

	log.Info().Msg("Shutting down...")
	return nil
}

// createHotplugHandler returns an event handler that wakes the control loop when the
// configured camera appears, so the new device is sampled without waiting out the interval.
func createHotplugHandler(store *state.Store, settle time.Duration) udev.EventHandler {
	return func(event udev.Event) {
		device := store.Snapshot().CameraDevice
		if event.DevName != device {
			log.Debug().Str("devname", event.DevName).Msg("Ignoring event for other capture device")
			return
		}

		switch event.Type {
		case udev.EventAdd:
			log.Info().Str("camera", device).Msg("Camera connected")
			if settle > 0 {
				time.Sleep(settle)
			}
			store.Notify()
		case udev.EventRemove:
			log.Warn().Str("camera", device).Msg("Camera disconnected, auto mode paused until it returns")
		}
	}
}

// createRecoveryHandler returns a handler for netlink buffer overflow recovery. A missed
// add event is covered by re-evaluating immediately.
func createRecoveryHandler(store *state.Store) udev.RecoveryHandler {
	return func() {
		log.Info().Msg("Re-evaluating after netlink buffer overflow")
		store.Notify()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}

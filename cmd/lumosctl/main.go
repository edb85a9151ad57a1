// SPDX-License-Identifier: GPL-3.0-only

// Package main provides lumosctl, a command-line client for the lumosd control socket.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anilaras/lumos/internal/config"
	"github.com/anilaras/lumos/internal/ipc"
)

// statusKeys lists the keys printed by "status", in display order.
var statusKeys = []string{
	config.KeyMode,
	config.KeyManualBrightness,
	config.KeyMinBrightness,
	config.KeyMaxBrightness,
	config.KeyBrightnessOffset,
	config.KeySensitivity,
	config.KeyInterval,
	config.KeyCameraDevice,
}

func newRootCmd() *cobra.Command {
	var socketPath string

	client := func() *ipc.Client {
		return ipc.NewClient(socketPath)
	}

	rootCmd := &cobra.Command{
		Use:   "lumosctl",
		Short: "Control a running lumosd",
		Long: `lumosctl reads and changes the configuration of a running lumosd through its
control socket. Changes take effect immediately; use "persist" to keep them
across restarts.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", ipc.DefaultSocketPath, "Control socket path")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := client().Get(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change the value of a key",
		Long: `Change the value of a key. Setting manual_brightness (or its alias brightness)
also switches the daemon to manual mode.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().Set(args[0], args[1])
		},
	}

	persistCmd := &cobra.Command{
		Use:   "persist",
		Short: "Save the running configuration to the daemon's config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Persist(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved")
			return err
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print every configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd, client())
		},
	}

	rootCmd.AddCommand(getCmd, setCmd, persistCmd, statusCmd)
	return rootCmd
}

func printStatus(cmd *cobra.Command, c *ipc.Client) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, key := range statusKeys {
		value, err := c.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", key, value); err != nil {
			return err
		}
	}
	return w.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	goflag "flag"

	"github.com/spf13/cobra"

	"github.com/shamexln/capno/pkg/config"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "capno",
	Short: "Gas-analysis sensor module driver",
	Long: `Capno - host-side driver for the multi-gas analysis sensor module.

Drives the module through its initialization and operating sequence over
RS-232 (19200 8N1), reacts to continuous parameter-status frames, and
surfaces all activity to the session log.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200]
  WebSocket: --url ws://host/path [--username user]

Settings may also come from a TOML config file (--config) or from the
CAPNO_PORT, CAPNO_BAUD and CAPNO_URL environment variables; flags win.

For WebSocket authentication, the password is read from the
CAPNO_PASSWORD environment variable, or prompted interactively if not
set. The --password flag is intentionally not provided to avoid leaking
credentials in shell history.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("port") && cfg.Port != "" {
			portName = cfg.Port
		}
		if !cmd.Flags().Changed("baud") && cfg.Baud > 0 {
			baudRate = cfg.Baud
		}
		if !cmd.Flags().Changed("url") && cfg.URL != "" {
			wsURL = cfg.URL
		}
		if !cmd.Flags().Changed("username") && cfg.Username != "" {
			wsUsername = cfg.Username
		}
		if !cmd.Flags().Changed("no-ssl-verify") {
			wsNoSSLVerify = cfg.NoSSLVerify
		}
		return nil
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 19200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")

	// glog registers its flags (-v, -logtostderr, -log_dir) on the
	// standard flag set; make them reachable from the cobra surface.
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

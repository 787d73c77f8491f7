// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/refstat/internal/config"
	"github.com/Thermoquad/refstat/internal/logging"
)

var (
	configPath string
	logLevel   string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Resolved by loadConfig before any subcommand runs
	appConfig config.Config
	logger    = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "refstat",
	Short: "Referee System Serial Protocol Client",
	Long: `Refstat - A CLI tool for monitoring the referee system serial link.

Decodes referee telemetry frames (game state, robot status, damage, shooting
data) and the power manager side channel that shares the same link, and sends
operator UI graphics and robot interaction data back to the referee box.

Connection modes:
  Serial:    --port /dev/usbReferee [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings are read from --config (TOML) and overridden by flags. For
WebSocket authentication, the password is read from the REFSTAT_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version:           "0.3.0",
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (default from config, /dev/usbReferee)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Baud rate (serial only, default 115200)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// loadConfig merges defaults, the config file and flags, then builds the
// logger
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baudRate
	}
	if flags.Changed("url") {
		cfg.WebSocket.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.WebSocket.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.WebSocket.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, ok := logging.ParseLevel(cfg.Log.Level)
	if !ok {
		return fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Timestamp = cfg.Log.Timestamp
	logCfg.NoColor = cfg.Log.NoColor

	appConfig = cfg
	logger = logging.New(logCfg)
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/internal/config"
	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

var (
	configPath string
	cfg        = config.DefaultConfig()

	// Serial and socket connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Offline and diagnostic flags
	simulate    bool
	capturePath string
	replayPath  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "pumpstat",
	Short: "Next Generation HPLC pump controller",
	Long: `Pumpstat - A CLI tool for controlling and monitoring Next Generation class
HPLC pumps over their ASCII serial protocol.

Connection modes:
  Serial:    --port /dev/ttyUSB0
  Socket:    --port socket://10.0.0.5:4001
  WebSocket: --url ws://host/path [--username user]
  Simulator: --simulate
  Replay:    --replay session.cbor

For WebSocket authentication, the password is read from the PUMPSTAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Exit codes:
  0 - Success
  1 - Pump fault, malformed response or invalid argument
  2 - Connection error or no response`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device or socket://host:port")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Talk to a simulated pump instead of hardware")
	rootCmd.PersistentFlags().StringVar(&capturePath, "capture", "", "Record every frame to a CBOR capture file")
	rootCmd.PersistentFlags().StringVar(&replayPath, "replay", "", "Replay a CBOR capture file instead of a device")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every frame sent and received")
}

// loadSettings merges the config file with the command line and sets up
// logging. Flags given explicitly win over the file.
func loadSettings(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Device = portName
	}
	if flags.Changed("url") {
		cfg.Device = wsURL
	}
	if flags.Changed("baud") {
		cfg.BaudRate = baudRate
	}
	if flags.Changed("username") {
		cfg.WebSocket.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.WebSocket.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("capture") {
		cfg.Capture.Path = capturePath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	return setupLogging(cfg.Log)
}

func setupLogging(lc config.LogConfig) error {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if lc.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var (
		connErr   *nextgen.ConnectionError
		noRespErr *nextgen.NoResponseError
	)
	if errors.As(err, &connErr) || errors.As(err, &noRespErr) {
		return 2
	}
	return 1
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/Thermoquad/pumpstat/pkg/capture"
	"github.com/Thermoquad/pumpstat/pkg/nextgen"
	"github.com/Thermoquad/pumpstat/pkg/simulator"
	"github.com/Thermoquad/pumpstat/pkg/transport"
)

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("PUMPSTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// openTransport builds the transport selected by flags and config
func openTransport() (nextgen.Transport, string, error) {
	switch {
	case simulate:
		return simulator.New(simulator.WithSolventSelect(), simulator.WithLeakSensor()), "Simulator", nil

	case replayPath != "":
		f, err := os.Open(replayPath)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		records, err := capture.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return capture.NewReplay(records), fmt.Sprintf("Replay: %s (%d records)", replayPath, len(records)), nil

	case cfg.Device == "":
		return nil, "", fmt.Errorf("either --port, --url, --simulate or a config file device must be specified")
	}

	tc := transport.DefaultConfig()
	tc.BaudRate = cfg.BaudRate
	tc.ReadTimeout = cfg.Timing.ReadTimeout
	tc.Username = cfg.WebSocket.Username
	tc.SkipTLSVerify = cfg.WebSocket.NoSSLVerify

	isWebSocket := strings.HasPrefix(cfg.Device, "ws://") || strings.HasPrefix(cfg.Device, "wss://")
	if isWebSocket && tc.Username != "" {
		password, err := GetPassword()
		if err != nil {
			return nil, "", err
		}
		tc.Password = password
	}

	t, err := transport.New(cfg.Device, tc)
	if err != nil {
		return nil, "", err
	}
	info := cfg.Device
	if s, ok := t.(fmt.Stringer); ok {
		info = s.String()
	}
	return t, info, nil
}

// OpenSession opens and identifies the pump, wrapping the transport in a
// capture recorder when one is configured
func OpenSession(observers ...nextgen.Observer) (*session, error) {
	t, info, err := openTransport()
	if err != nil {
		return nil, &nextgen.ConnectionError{Device: cfg.Device, Err: err}
	}

	s := &session{info: info, stats: nextgen.NewStatistics()}

	if cfg.Capture.Path != "" {
		f, err := os.Create(cfg.Capture.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create capture file: %w", err)
		}
		rec := capture.NewRecorder(t, f)
		log.WithFields(log.Fields{
			"path":    cfg.Capture.Path,
			"session": rec.Session(),
		}).Info("Capturing frames")
		t = rec
		s.recorder = rec
		s.captureFile = f
	}

	opts := []nextgen.Option{
		nextgen.WithTiming(cfg.EngineTiming()),
		nextgen.WithLogger(log.StandardLogger().WithField("device", info)),
		nextgen.WithObserver(s.stats),
	}
	for _, o := range observers {
		opts = append(opts, nextgen.WithObserver(o))
	}

	conn, err := nextgen.Open(info, t, opts...)
	if err != nil {
		s.closeCapture()
		return nil, err
	}
	s.conn = conn
	return s, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport provides the byte streams a pump can be reached over:
// a local serial port, a raw TCP socket to a serial device server, and a
// WebSocket bridge.
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

// ErrClosed is returned for I/O on a transport that is not open
var ErrClosed = errors.New("transport closed")

// Config holds the settings shared by all transports
type Config struct {
	BaudRate      int           // serial only
	ReadTimeout   time.Duration // used when ReadUntil is given no timeout
	DialTimeout   time.Duration // socket and WebSocket only
	Username      string        // WebSocket Basic auth
	Password      string        // WebSocket Basic auth
	SkipTLSVerify bool          // wss:// only
}

// DefaultConfig returns the line settings Next Generation pumps use
func DefaultConfig() Config {
	return Config{
		BaudRate:    nextgen.BaudRate,
		ReadTimeout: nextgen.DefaultReadTimeout,
		DialTimeout: 10 * time.Second,
	}
}

// New returns an unopened transport for the device. The device is a serial
// port path, a file:// URL naming one, socket:// or tcp:// followed by
// host:port, or a ws:// or wss:// URL.
func New(device string, cfg Config) (nextgen.Transport, error) {
	if !strings.Contains(device, "://") {
		return NewSerial(device, cfg), nil
	}

	u, err := url.Parse(device)
	if err != nil {
		return nil, fmt.Errorf("invalid device URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		return NewSerial(u.Path, cfg), nil
	case "socket", "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("missing host:port in %s", device)
		}
		return NewSocket(u.Host, cfg), nil
	case "ws", "wss":
		return NewWebSocket(device, cfg), nil
	}
	return nil, fmt.Errorf("unsupported device scheme: %s (use a port path, socket://, ws:// or wss://)", u.Scheme)
}

// frameBuffer holds bytes received past the last returned frame
type frameBuffer struct {
	pending []byte
}

// fillFunc reads more bytes, waiting at most remaining. It returns no
// bytes and a nil error when nothing arrived in time.
type fillFunc func(remaining time.Duration) ([]byte, error)

// readUntil returns buffered bytes up to and including delim, calling fill
// until delim arrives or the timeout expires. On timeout everything
// received so far is returned with a nil error.
func (b *frameBuffer) readUntil(delim byte, timeout time.Duration, fill fillFunc) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	for {
		if i := bytes.IndexByte(b.pending, delim); i >= 0 {
			return b.take(i + 1), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return b.take(len(b.pending)), nil
		}

		data, err := fill(remaining)
		b.pending = append(b.pending, data...)
		if err != nil {
			return b.take(len(b.pending)), err
		}
		if len(data) == 0 {
			return b.take(len(b.pending)), nil
		}
	}
}

func (b *frameBuffer) take(n int) []byte {
	out := make([]byte, n)
	copy(out, b.pending[:n])
	b.pending = b.pending[n:]
	return out
}

func (b *frameBuffer) reset() {
	b.pending = nil
}

func timeoutOr(timeout, fallback time.Duration) time.Duration {
	if timeout <= 0 {
		return fallback
	}
	return timeout
}

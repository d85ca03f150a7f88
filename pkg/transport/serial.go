// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Serial is a local serial port, 8 data bits, no parity, one stop bit
type Serial struct {
	name string
	cfg  Config
	port serial.Port
	buf  frameBuffer
}

// NewSerial returns an unopened serial transport
func NewSerial(name string, cfg Config) *Serial {
	return &Serial{name: name, cfg: cfg}
}

// Open opens the port
func (s *Serial) Open() error {
	baud := s.cfg.BaudRate
	if baud == 0 {
		baud = DefaultConfig().BaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(s.name, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.name, err)
	}
	s.port = port
	return nil
}

// Close closes the port
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// IsOpen reports whether the port is open
func (s *Serial) IsOpen() bool {
	return s.port != nil
}

// ResetBuffers discards unread input and unsent output
func (s *Serial) ResetBuffers() error {
	if s.port == nil {
		return ErrClosed
	}
	s.buf.reset()
	if err := s.port.ResetInputBuffer(); err != nil {
		return err
	}
	return s.port.ResetOutputBuffer()
}

func (s *Serial) Write(p []byte) (int, error) {
	if s.port == nil {
		return 0, ErrClosed
	}
	return s.port.Write(p)
}

// Flush waits until all written bytes are transmitted
func (s *Serial) Flush() error {
	if s.port == nil {
		return ErrClosed
	}
	return s.port.Drain()
}

// ReadUntil reads up to and including delim or until the timeout expires
func (s *Serial) ReadUntil(delim byte, timeout time.Duration) ([]byte, error) {
	if s.port == nil {
		return nil, ErrClosed
	}
	timeout = timeoutOr(timeout, s.cfg.ReadTimeout)
	chunk := make([]byte, 64)
	return s.buf.readUntil(delim, timeout, func(remaining time.Duration) ([]byte, error) {
		if err := s.port.SetReadTimeout(remaining); err != nil {
			return nil, err
		}
		// go.bug.st/serial returns 0, nil when the read timeout expires
		n, err := s.port.Read(chunk)
		return chunk[:n], err
	})
}

// String describes the port for log output
func (s *Serial) String() string {
	return fmt.Sprintf("Serial: %s @ %d baud", s.name, s.cfg.BaudRate)
}

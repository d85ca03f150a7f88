// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// Socket is a raw TCP connection to a serial device server
type Socket struct {
	addr string
	cfg  Config
	conn net.Conn
	buf  frameBuffer
}

// NewSocket returns an unopened socket transport for host:port
func NewSocket(addr string, cfg Config) *Socket {
	return &Socket{addr: addr, cfg: cfg}
}

// Open dials the device server
func (s *Socket) Open() error {
	conn, err := net.DialTimeout("tcp", s.addr, timeoutOr(s.cfg.DialTimeout, DefaultConfig().DialTimeout))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.addr, err)
	}
	s.conn = conn
	return nil
}

// Close closes the connection
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsOpen reports whether the connection is open
func (s *Socket) IsOpen() bool {
	return s.conn != nil
}

// ResetBuffers discards anything received but not yet read
func (s *Socket) ResetBuffers() error {
	if s.conn == nil {
		return ErrClosed
	}
	s.buf.reset()

	scratch := make([]byte, 256)
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := s.conn.Read(scratch)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (s *Socket) Write(p []byte) (int, error) {
	if s.conn == nil {
		return 0, ErrClosed
	}
	return s.conn.Write(p)
}

// Flush is a no-op; writes complete when they return
func (s *Socket) Flush() error {
	return nil
}

// ReadUntil reads up to and including delim or until the timeout expires
func (s *Socket) ReadUntil(delim byte, timeout time.Duration) ([]byte, error) {
	if s.conn == nil {
		return nil, ErrClosed
	}
	timeout = timeoutOr(timeout, s.cfg.ReadTimeout)
	chunk := make([]byte, 64)
	return s.buf.readUntil(delim, timeout, func(remaining time.Duration) ([]byte, error) {
		if err := s.conn.SetReadDeadline(time.Now().Add(remaining)); err != nil {
			return nil, err
		}
		n, err := s.conn.Read(chunk)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			err = nil
		}
		return chunk[:n], err
	})
}

// String describes the connection for log output
func (s *Socket) String() string {
	return fmt.Sprintf("Socket: %s", s.addr)
}

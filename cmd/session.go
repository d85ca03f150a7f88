// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Thermoquad/pumpstat/pkg/capture"
	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

// session serializes access to one pump connection. The TUI and the HTTP
// server call into the pump from several goroutines.
type session struct {
	mu    sync.Mutex
	conn  *nextgen.Connection
	info  string
	stats *nextgen.Statistics

	recorder    *capture.Recorder
	captureFile *os.File
}

// Do runs fn with exclusive access to the pump
func (s *session) Do(fn func(c *nextgen.Connection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.conn)
}

// Profile returns the identified profile. It never changes after open.
func (s *session) Profile() nextgen.Profile {
	return s.conn.Profile()
}

// Close closes the connection and the capture file
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.conn.Close()
	s.closeCapture()
	return err
}

func (s *session) closeCapture() {
	if s.captureFile == nil {
		return
	}
	if err := s.recorder.Err(); err != nil {
		log.WithError(err).Warn("Capture incomplete")
	}
	if err := s.captureFile.Close(); err != nil {
		log.WithError(err).Warn("Failed to close capture file")
	}
	s.captureFile = nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"fmt"
	"sync"
	"time"
)

// Counters is a point-in-time copy of the statistics
type Counters struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalCommands uint64
	Successful    uint64
	DeviceFaults  uint64
	NoResponses   uint64
	Unexpected    uint64
	Attempts      uint64
	Retries       uint64

	// Rates (calculated)
	CommandRate float64 // commands/sec
	ErrorRate   float64 // errors/sec

	// Latency
	TotalLatency time.Duration
	MaxLatency   time.Duration
}

// Statistics tracks command outcomes and retry rates. It implements Observer.
type Statistics struct {
	mu sync.Mutex
	Counters
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		Counters: Counters{
			StartTime:      now,
			LastUpdateTime: now,
		},
	}
}

// Attempt counts a write attempt. Attempts after the first are retries.
func (s *Statistics) Attempt(command string, attempt int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Attempts++
	if attempt > 1 {
		s.Retries++
	}
}

// Result counts the outcome of a completed command
func (s *Statistics) Result(command string, outcome Outcome, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalCommands++
	switch outcome {
	case OutcomeOK:
		s.Successful++
	case OutcomeFault:
		s.DeviceFaults++
	case OutcomeNoResponse:
		s.NoResponses++
	case OutcomeUnexpected:
		s.Unexpected++
	}

	s.TotalLatency += elapsed
	if elapsed > s.MaxLatency {
		s.MaxLatency = elapsed
	}
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates command and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
}

func (s *Counters) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.CommandRate = float64(s.TotalCommands) / elapsed
		s.ErrorRate = float64(s.DeviceFaults+s.NoResponses+s.Unexpected) / elapsed
	}
}

// Snapshot returns a copy of the counters safe to read without locking
func (s *Statistics) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
	return s.Counters
}

// AverageLatency returns the mean time spent per command
func (s Counters) AverageLatency() time.Duration {
	if s.TotalCommands == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.TotalCommands)
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()

	var successPercent, faultPercent, noResponsePercent float64
	if snap.TotalCommands > 0 {
		successPercent = float64(snap.Successful) * 100.0 / float64(snap.TotalCommands)
		faultPercent = float64(snap.DeviceFaults) * 100.0 / float64(snap.TotalCommands)
		noResponsePercent = float64(snap.NoResponses) * 100.0 / float64(snap.TotalCommands)
	}

	elapsed := time.Since(snap.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Commands:        %8d\n", snap.TotalCommands)
	result += fmt.Sprintf("Successful:      %8d (%.1f%%)\n", snap.Successful, successPercent)

	if snap.DeviceFaults > 0 {
		result += fmt.Sprintf("Device Faults:   %8d (%.1f%%)\n", snap.DeviceFaults, faultPercent)
	}
	if snap.NoResponses > 0 {
		result += fmt.Sprintf("No Response:     %8d (%.1f%%)\n", snap.NoResponses, noResponsePercent)
	}
	if snap.Unexpected > 0 {
		result += fmt.Sprintf("Unexpected:      %8d\n", snap.Unexpected)
	}

	result += fmt.Sprintf("Attempts:        %8d (%d retries)\n", snap.Attempts, snap.Retries)
	result += fmt.Sprintf("Avg Latency:     %8s\n", snap.AverageLatency().Round(time.Millisecond))
	result += fmt.Sprintf("Max Latency:     %8s\n", snap.MaxLatency.Round(time.Millisecond))
	result += fmt.Sprintf("Command Rate:    %8.1f cmds/sec\n", snap.CommandRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", snap.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.Counters = Counters{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

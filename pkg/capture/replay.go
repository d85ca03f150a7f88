// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"fmt"
	"time"
)

// Replay is a transport that plays a capture back. Each write must match
// the next recorded tx frame and makes the rx frames recorded after it
// available for reading.
type Replay struct {
	records []Record
	next    int
	pending bytes.Buffer
	open    bool
}

// NewReplay creates a replay transport over the records
func NewReplay(records []Record) *Replay {
	return &Replay{records: records}
}

func (r *Replay) Open() error {
	r.open = true
	return nil
}

func (r *Replay) Close() error {
	r.open = false
	return nil
}

func (r *Replay) IsOpen() bool {
	return r.open
}

func (r *Replay) Flush() error {
	return nil
}

// ResetBuffers drops rx frames queued by the previous write
func (r *Replay) ResetBuffers() error {
	r.pending.Reset()
	return nil
}

// Write checks p against the next recorded tx frame
func (r *Replay) Write(p []byte) (int, error) {
	for r.next < len(r.records) && r.records[r.next].Direction != TX {
		r.next++
	}
	if r.next >= len(r.records) {
		return 0, fmt.Errorf("replay: capture exhausted, got %q", p)
	}
	if want := r.records[r.next].Data; !bytes.Equal(want, p) {
		return 0, fmt.Errorf("replay: expected %q, got %q", want, p)
	}
	r.next++

	for r.next < len(r.records) && r.records[r.next].Direction == RX {
		r.pending.Write(r.records[r.next].Data)
		r.next++
	}
	return len(p), nil
}

// ReadUntil returns queued rx bytes up to and including delim
func (r *Replay) ReadUntil(delim byte, _ time.Duration) ([]byte, error) {
	if i := bytes.IndexByte(r.pending.Bytes(), delim); i >= 0 {
		return append([]byte(nil), r.pending.Next(i+1)...), nil
	}
	return append([]byte(nil), r.pending.Next(r.pending.Len())...), nil
}

// Remaining returns the number of records not yet replayed
func (r *Replay) Remaining() int {
	return len(r.records) - r.next
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records the frames exchanged with a pump as a CBOR
// sequence and replays them as a transport.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

// Direction of a captured frame
type Direction string

const (
	TX Direction = "tx" // host to pump
	RX Direction = "rx" // pump to host
)

// Record is one captured chunk of bytes
//
// CBOR layout (integer keys):
//
//	0 => session (text)
//	1 => time (int, Unix nanoseconds)
//	2 => direction ("tx" / "rx")
//	3 => data (bytes)
type Record struct {
	Session   string    `cbor:"0,keyasint"`
	Time      int64     `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint"`
	Data      []byte    `cbor:"3,keyasint"`
}

// At returns the capture time
func (r Record) At() time.Time {
	return time.Unix(0, r.Time)
}

// Recorder wraps a transport and appends every frame written to or read
// from it to w
type Recorder struct {
	nextgen.Transport

	session string
	mu      sync.Mutex
	enc     *cbor.Encoder
	err     error
}

// NewRecorder starts a capture session on w
func NewRecorder(inner nextgen.Transport, w io.Writer) *Recorder {
	return &Recorder{
		Transport: inner,
		session:   uuid.NewString(),
		enc:       cbor.NewEncoder(w),
	}
}

// Session returns the identifier stamped on every record
func (r *Recorder) Session() string {
	return r.session
}

// Err returns the first error encountered writing the capture
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) Write(p []byte) (int, error) {
	n, err := r.Transport.Write(p)
	if n > 0 {
		r.record(TX, p[:n])
	}
	return n, err
}

// ReadUntil records every non-empty read
func (r *Recorder) ReadUntil(delim byte, timeout time.Duration) ([]byte, error) {
	data, err := r.Transport.ReadUntil(delim, timeout)
	if len(data) > 0 {
		r.record(RX, data)
	}
	return data, err
}

func (r *Recorder) record(dir Direction, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}

	rec := Record{
		Session:   r.session,
		Time:      time.Now().UnixNano(),
		Direction: dir,
		Data:      append([]byte(nil), data...),
	}
	if err := r.enc.Encode(rec); err != nil {
		r.err = fmt.Errorf("failed to write capture record: %w", err)
	}
}

// ReadAll decodes every record of a capture
func ReadAll(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)
	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("failed to decode record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

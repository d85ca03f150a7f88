// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package simulator provides an in-process Next Generation pump that speaks
// the ASCII command protocol over an in-memory byte stream. It satisfies the
// same transport contract as a serial port, so the protocol engine and the
// CLI can run without hardware.
package simulator

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned for I/O on a closed simulator
var ErrClosed = errors.New("simulator: port closed")

// Pump is a virtual pump. It is safe for concurrent use.
type Pump struct {
	mu sync.Mutex

	cfg   config
	state pumpState

	open     bool
	rx       bytes.Buffer // bytes written by the host, not yet terminated
	tx       bytes.Buffer // responses waiting to be read
	drop     int
	commands []string
}

// config holds the fixed properties chosen at construction
type config struct {
	unit           string
	decimals       int
	head           string
	firmware       string
	maxFlowrate    float64
	maxPressure    float64
	pressureSensor bool
	solventSelect  bool
	leakSensor     bool
	openErr        error
}

// pumpState holds everything commands can change
type pumpState struct {
	running      bool
	flowrate     int64 // fi units
	compensation int   // uc units, 1000 == 1.00
	upperLimit   int64 // up units
	lowerLimit   int64 // lp units
	pressure     float64
	keypad       bool
	prime        bool
	stall        bool
	upperFault   bool
	lowerFault   bool
	strokes      int
	leakMode     int
	leak         bool
	solvent      int
}

// Option configures a simulated pump
type Option func(*config)

// WithPressureUnit selects psi, bar or MPa
func WithPressureUnit(unit string) Option {
	return func(c *config) { c.unit = unit }
}

// WithDecimals selects the flowrate precision, 2 or 3
func WithDecimals(decimals int) Option {
	return func(c *config) { c.decimals = decimals }
}

func WithHead(head string) Option {
	return func(c *config) { c.head = head }
}

func WithFirmware(firmware string) Option {
	return func(c *config) { c.firmware = firmware }
}

func WithMaxFlowrate(mlPerMin float64) Option {
	return func(c *config) { c.maxFlowrate = mlPerMin }
}

func WithMaxPressure(v float64) Option {
	return func(c *config) { c.maxPressure = v }
}

// WithoutPressureSensor makes pr, pu and mp answer with a fault
func WithoutPressureSensor() Option {
	return func(c *config) { c.pressureSensor = false }
}

// WithSolventSelect enables the rs and ss commands
func WithSolventSelect() Option {
	return func(c *config) { c.solventSelect = true }
}

// WithLeakSensor enables the leak sensor
func WithLeakSensor() Option {
	return func(c *config) { c.leakSensor = true }
}

// WithOpenError makes Open fail with err
func WithOpenError(err error) Option {
	return func(c *config) { c.openErr = err }
}

// defaultMaxPressure is 6000 psi in each unit
var defaultMaxPressure = map[string]float64{
	"psi": 6000,
	"bar": 413.7,
	"MPa": 41.37,
}

// New creates a stopped pump with factory settings. Without options it
// reports psi, two flowrate decimals and a 10 mL/min stainless head.
func New(opts ...Option) *Pump {
	cfg := config{
		unit:           "psi",
		decimals:       2,
		head:           "SS",
		firmware:       "Next Generation Pump Version 2.0.7",
		maxFlowrate:    10,
		pressureSensor: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxPressure == 0 {
		cfg.maxPressure = defaultMaxPressure[cfg.unit]
	}
	p := &Pump{cfg: cfg}
	p.state = p.factoryState()
	return p
}

func (p *Pump) factoryState() pumpState {
	return pumpState{
		compensation: 1000,
		upperLimit:   p.encodePressure(p.cfg.maxPressure),
		keypad:       true,
		solvent:      46,
	}
}

// Open implements the transport contract
func (p *Pump) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.openErr != nil {
		return p.cfg.openErr
	}
	p.open = true
	return nil
}

// Close implements the transport contract
func (p *Pump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	p.rx.Reset()
	p.tx.Reset()
	return nil
}

// IsOpen implements the transport contract
func (p *Pump) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// ResetBuffers discards pending input and output
func (p *Pump) ResetBuffers() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrClosed
	}
	p.rx.Reset()
	p.tx.Reset()
	return nil
}

// Write feeds bytes to the pump. Every carriage return completes a
// command and queues its response.
func (p *Pump) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return 0, ErrClosed
	}
	for _, c := range b {
		if c != '\r' {
			p.rx.WriteByte(c)
			continue
		}
		command := p.rx.String()
		p.rx.Reset()
		p.commands = append(p.commands, command)

		response := p.handle(command)
		if response == "" {
			continue
		}
		if p.drop > 0 {
			p.drop--
			continue
		}
		p.tx.WriteString(response)
	}
	return len(b), nil
}

// Flush implements the transport contract
func (p *Pump) Flush() error {
	return nil
}

// ReadUntil returns queued response bytes up to and including delim. It
// never blocks; an empty result stands for a read timeout.
func (p *Pump) ReadUntil(delim byte, _ time.Duration) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil, ErrClosed
	}
	if i := bytes.IndexByte(p.tx.Bytes(), delim); i >= 0 {
		return p.tx.Next(i + 1), nil
	}
	return p.tx.Next(p.tx.Len()), nil
}

// DropResponses discards the next n responses, as if the line lost them
func (p *Pump) DropResponses(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drop = n
}

// Commands returns every command received so far, without terminators
func (p *Pump) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.commands))
	copy(out, p.commands)
	return out
}

// SetFaults latches the given faults until cf is received. An active fault
// stops the pump.
func (p *Pump) SetFaults(stall, upper, lower bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.stall = stall
	p.state.upperFault = upper
	p.state.lowerFault = lower
	if stall || upper || lower {
		p.state.running = false
	}
}

// SetPressure sets the pressure reported while the pump runs
func (p *Pump) SetPressure(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.pressure = v
}

// SetLeak sets the leak sensor reading
func (p *Pump) SetLeak(leak bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.leak = leak
}

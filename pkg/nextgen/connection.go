// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import log "github.com/sirupsen/logrus"

// State is the lifecycle state of a Connection
type State int

const (
	StateOpen State = iota
	StateIdentified
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateIdentified:
		return "identified"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection is an open, identified pump. The typed command layer is
// embedded, so every Pump operation is available directly.
//
// A Connection is not safe for concurrent use; callers must serialize
// access. Once closed it cannot be reopened.
type Connection struct {
	*Pump
	device string
	state  State
}

// Open opens the transport, identifies the pump and returns a connection
// ready for commands. A transport that fails to open is reported as
// *ConnectionError.
func Open(device string, t Transport, opts ...Option) (*Connection, error) {
	if err := t.Open(); err != nil {
		return nil, &ConnectionError{Device: device, Err: err}
	}

	e := NewEngine(t, opts...)
	logger := e.Logger().WithField("device", device)
	logger.Info("Opened pump connection")

	c := &Connection{device: device, state: StateOpen}
	profile := Identify(e)
	c.state = StateIdentified
	logger.WithFields(profileFields(profile)).Info("Identified pump")

	c.Pump = NewPump(e, profile)
	c.state = StateReady
	return c, nil
}

// Close releases the transport. Closing twice returns ErrClosed.
func (c *Connection) Close() error {
	if c.state == StateClosed {
		return ErrClosed
	}
	c.state = StateClosed
	c.engine.Logger().WithField("device", c.device).Info("Closed pump connection")
	return c.engine.Transport().Close()
}

// State returns the lifecycle state
func (c *Connection) State() State {
	return c.state
}

// Device returns the device identifier the connection was opened with
func (c *Connection) Device() string {
	return c.device
}

func profileFields(p Profile) log.Fields {
	fields := log.Fields{}
	if v, ok := p.Head(); ok {
		fields["head"] = v
	}
	if v, ok := p.FirmwareVersion(); ok {
		fields["firmware"] = v
	}
	if v, ok := p.PressureUnit(); ok {
		fields["pressure_unit"] = v
	}
	if v, ok := p.FlowrateExponent(); ok {
		fields["flowrate_exponent"] = v
	}
	return fields
}

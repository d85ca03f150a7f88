// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import "strings"

// Pump is the typed command layer. It sends commands through an Engine and
// applies the Profile's pressure unit and flowrate precision to every
// value it encodes or decodes.
//
// A Pump is not safe for concurrent use.
type Pump struct {
	engine  *Engine
	profile Profile
}

// NewPump creates a typed command layer over an engine and a profile
func NewPump(e *Engine, p Profile) *Pump {
	return &Pump{engine: e, profile: p}
}

// Engine returns the underlying protocol engine
func (p *Pump) Engine() *Engine {
	return p.engine
}

// Profile returns the device profile the pump encodes against
func (p *Pump) Profile() Profile {
	return p.profile
}

// query sends a command and requires an OK acknowledgement
func (p *Pump) query(command string) (string, error) {
	resp, err := p.engine.Send(command)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(strings.TrimSpace(resp), OKMarker) {
		return "", newDecodeError(command, resp, "response does not start with OK")
	}
	return resp, nil
}

func (p *Pump) command(command string) error {
	_, err := p.query(command)
	return err
}

// Run starts the pump
func (p *Pump) Run() error { return p.command(CmdRun) }

// Stop stops the pump
func (p *Pump) Stop() error { return p.command(CmdStop) }

// KeypadEnable unlocks the front panel keypad
func (p *Pump) KeypadEnable() error { return p.command(CmdKeypadEnable) }

// KeypadDisable locks the front panel keypad
func (p *Pump) KeypadDisable() error { return p.command(CmdKeypadDisable) }

// ClearFaults clears latched pump faults
func (p *Pump) ClearFaults() error { return p.command(CmdClearFaults) }

// Reset restores the user-adjustable settings to factory defaults
func (p *Pump) Reset() error { return p.command(CmdReset) }

// ZeroSeal zeroes the seal-life stroke counter
func (p *Pump) ZeroSeal() error { return p.command(CmdZeroSeal) }

// ClearBuffer clears the pump's command buffer. The pump does not answer.
func (p *Pump) ClearBuffer() error {
	_, err := p.engine.Send(ClearBufferCommand)
	return err
}

// CurrentConditions reads pressure and flowrate
func (p *Pump) CurrentConditions() (CurrentConditions, error) {
	resp, err := p.engine.Send(CmdCurrentConditions)
	if err != nil {
		return CurrentConditions{}, err
	}
	unit, _ := p.profile.PressureUnit()
	return ParseCurrentConditions(resp, unit)
}

// CurrentState reads the flowrate, pressure limits and run state
func (p *Pump) CurrentState() (CurrentState, error) {
	resp, err := p.engine.Send(CmdCurrentState)
	if err != nil {
		return CurrentState{}, err
	}
	unit, _ := p.profile.PressureUnit()
	return ParseCurrentState(resp, unit)
}

// PumpInformation reads the pi status bundle
func (p *Pump) PumpInformation() (PumpInfo, error) {
	resp, err := p.engine.Send(CmdPumpInformation)
	if err != nil {
		return PumpInfo{}, err
	}
	return ParsePumpInfo(resp)
}

// ReadFaults reads the fault flags
func (p *Pump) ReadFaults() (Faults, error) {
	resp, err := p.engine.Send(CmdReadFaults)
	if err != nil {
		return Faults{}, err
	}
	return ParseFaults(resp)
}

// IsRunning reports the run state from the cs response
func (p *Pump) IsRunning() (bool, error) {
	s, err := p.CurrentState()
	if err != nil {
		return false, err
	}
	return s.IsRunning, nil
}

// StrokeCounter reads the seal-life stroke counter
func (p *Pump) StrokeCounter() (int, error) {
	resp, err := p.query(CmdStrokeCounter)
	if err != nil {
		return 0, err
	}
	return parseSuffixInt(CmdStrokeCounter, resp)
}

// Pressure reads the current pressure in the pump's pressure unit
func (p *Pump) Pressure() (float64, error) {
	resp, err := p.query(CmdPressure)
	if err != nil {
		return 0, err
	}
	s, err := bodyValue(CmdPressure, resp)
	if err != nil {
		return 0, err
	}
	unit, _ := p.profile.PressureUnit()
	v, err := parsePressure(s, unit)
	if err != nil {
		return 0, newDecodeError(CmdPressure, resp, "%q is not a %s pressure", s, unitName(unit))
	}
	return v, nil
}

// LeakDetected reports whether the leak sensor sees a leak. Pumps without
// a leak sensor always report false.
func (p *Pump) LeakDetected() (bool, error) {
	resp, err := p.query(CmdLeakSensor)
	if err != nil {
		return false, err
	}
	s, err := suffixValue(CmdLeakSensor, resp)
	if err != nil {
		return false, err
	}
	v, err := parseFlag(s)
	if err != nil {
		return false, newDecodeError(CmdLeakSensor, resp, "%q is not 0 or 1", s)
	}
	return v, nil
}

// Send passes a raw command through to the engine
func (p *Pump) Send(command string) (string, error) {
	return p.engine.Send(command)
}

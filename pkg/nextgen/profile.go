// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"fmt"
	"strconv"
	"strings"
)

// PressureUnit is the pressure unit system a pump is configured for
type PressureUnit string

const (
	PSI PressureUnit = "psi"
	Bar PressureUnit = "bar"
	MPa PressureUnit = "MPa"
)

// ParsePressureUnit converts a unit token reported by the pump
func ParsePressureUnit(s string) (PressureUnit, error) {
	switch PressureUnit(strings.TrimSpace(s)) {
	case PSI:
		return PSI, nil
	case Bar:
		return Bar, nil
	case MPa:
		return MPa, nil
	}
	return "", fmt.Errorf("unknown pressure unit %q", s)
}

// Flowrate exponents derived from the decimal precision of reported flowrates
const (
	FlowrateExponentTwoDecimals   = -5 // "5.00": fi takes µL/min × 10
	FlowrateExponentThreeDecimals = -6 // "5.000": fi takes µL/min
)

// Profile holds the per-connection constants discovered by Identify.
// Fields a pump did not report are absent and their accessors return
// ok == false.
type Profile struct {
	firmwareVersion  *string
	head             *string
	maxFlowrate      *float64
	maxPressure      *float64
	pressureUnit     *PressureUnit
	flowrateExponent *int
}

// FirmwareVersion returns the text reported by the id command
func (p Profile) FirmwareVersion() (string, bool) {
	if p.firmwareVersion == nil {
		return "", false
	}
	return *p.firmwareVersion, true
}

// Head returns the pump head type
func (p Profile) Head() (string, bool) {
	if p.head == nil {
		return "", false
	}
	return *p.head, true
}

// MaxFlowrate returns the maximum flowrate in mL/min
func (p Profile) MaxFlowrate() (float64, bool) {
	if p.maxFlowrate == nil {
		return 0, false
	}
	return *p.maxFlowrate, true
}

// MaxPressure returns the maximum pressure in the pump's pressure unit.
// Pumps without a pressure sensor do not report one.
func (p Profile) MaxPressure() (float64, bool) {
	if p.maxPressure == nil {
		return 0, false
	}
	return *p.maxPressure, true
}

// PressureUnit returns the pump's pressure unit system
func (p Profile) PressureUnit() (PressureUnit, bool) {
	if p.pressureUnit == nil {
		return "", false
	}
	return *p.pressureUnit, true
}

// FlowrateExponent returns the power of ten converting L/min into the
// integer units of the fi command
func (p Profile) FlowrateExponent() (int, bool) {
	if p.flowrateExponent == nil {
		return 0, false
	}
	return *p.flowrateExponent, true
}

// HasPressureSensor reports whether the pump answered the max pressure query
func (p Profile) HasPressureSensor() bool {
	return p.maxPressure != nil
}

// ProfileField sets a single profile field when building a Profile by hand
type ProfileField func(*Profile)

// NewProfile builds a profile from explicit values. Identify is the normal
// way to obtain one.
func NewProfile(fields ...ProfileField) Profile {
	var p Profile
	for _, f := range fields {
		f(&p)
	}
	return p
}

// Field setters for NewProfile

func WithFirmwareVersion(v string) ProfileField {
	return func(p *Profile) { p.firmwareVersion = &v }
}

func WithHead(v string) ProfileField {
	return func(p *Profile) { p.head = &v }
}

func WithMaxFlowrate(v float64) ProfileField {
	return func(p *Profile) { p.maxFlowrate = &v }
}

func WithMaxPressure(v float64) ProfileField {
	return func(p *Profile) { p.maxPressure = &v }
}

func WithPressureUnit(v PressureUnit) ProfileField {
	return func(p *Profile) { p.pressureUnit = &v }
}

func WithFlowrateExponent(v int) ProfileField {
	return func(p *Profile) { p.flowrateExponent = &v }
}

// Identify queries the pump's identification commands and builds its
// profile. A query that faults or returns a malformed response leaves its
// field absent; identification itself never fails.
func Identify(e *Engine) Profile {
	var p Profile

	p.head = identifyField(e, CmdPumpInformation, parseHead)
	p.maxFlowrate = identifyField(e, CmdMaxFlowrate, func(r string) (float64, error) {
		return parseSuffixFloat(CmdMaxFlowrate, r)
	})
	// needed before any flowrate is encoded
	p.flowrateExponent = identifyField(e, CmdCurrentState, parseFlowrateExponent)
	p.firmwareVersion = identifyField(e, CmdIdentify, func(r string) (string, error) {
		return bodyValue(CmdIdentify, r)
	})

	// only pumps with a pressure sensor answer these
	p.pressureUnit = identifyField(e, CmdPressureUnits, parseUnitResponse)
	p.maxPressure = identifyField(e, CmdMaxPressure, func(r string) (float64, error) {
		return parseSuffixFloat(CmdMaxPressure, r)
	})

	return p
}

// identifyField sends one identification query and parses its response.
// Failures are logged and yield nil.
func identifyField[T any](e *Engine, command string, parse func(string) (T, error)) *T {
	resp, err := e.Send(command)
	if err == nil {
		var v T
		if v, err = parse(resp); err == nil {
			return &v
		}
	}
	e.Logger().WithError(err).WithField("command", command).Warn("Identification query failed, leaving field unset")
	return nil
}

// parseHead extracts the head type from field 4 of a pi response
func parseHead(response string) (string, error) {
	fields, err := splitFields(CmdPumpInformation, response, 0)
	if err != nil {
		return "", err
	}
	if len(fields) < 5 {
		return "", newDecodeError(CmdPumpInformation, response, "missing head field")
	}
	return strings.TrimSpace(fields[4]), nil
}

// parseFlowrateExponent inspects the decimal precision of the flowrate
// field of a cs response
func parseFlowrateExponent(response string) (int, error) {
	fields, err := splitFields(CmdCurrentState, response, 0)
	if err != nil {
		return 0, err
	}
	if len(fields) < 2 {
		return 0, newDecodeError(CmdCurrentState, response, "missing flowrate field")
	}
	_, decimals, found := strings.Cut(fields[1], ".")
	if !found {
		return 0, newDecodeError(CmdCurrentState, response, "flowrate %q has no decimal point", fields[1])
	}
	switch len(decimals) {
	case 2:
		return FlowrateExponentTwoDecimals, nil
	case 3:
		return FlowrateExponentThreeDecimals, nil
	}
	return 0, newDecodeError(CmdCurrentState, response, "unsupported flowrate precision %d", len(decimals))
}

func parseUnitResponse(response string) (PressureUnit, error) {
	token, err := bodyValue(CmdPressureUnits, response)
	if err != nil {
		return "", err
	}
	unit, err := ParsePressureUnit(token)
	if err != nil {
		return "", newDecodeError(CmdPressureUnits, response, "%v", err)
	}
	return unit, nil
}

func parseSuffixFloat(command, response string) (float64, error) {
	s, err := suffixValue(command, response)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newDecodeError(command, response, "%q is not a number", s)
	}
	return v, nil
}

func parseSuffixInt(command, response string) (int, error) {
	s, err := suffixValue(command, response)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, newDecodeError(command, response, "%q is not an integer", s)
	}
	return v, nil
}

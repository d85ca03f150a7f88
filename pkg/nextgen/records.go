// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"strconv"
	"strings"
)

// CurrentConditions is the decoded cc response: OK,<pressure>,<flowrate>/
type CurrentConditions struct {
	Pressure float64 `json:"pressure"`
	Flowrate float64 `json:"flowrate"`
	Response string  `json:"response"`
}

// CurrentState is the decoded cs response:
// OK,<flowrate>,<upper>,<lower>,<unit>,0,<running>,0/
type CurrentState struct {
	Flowrate     float64      `json:"flowrate"`
	UpperLimit   float64      `json:"upper_limit"`
	LowerLimit   float64      `json:"lower_limit"`
	PressureUnit PressureUnit `json:"pressure_unit"`
	IsRunning    bool         `json:"is_running"`
	Response     string       `json:"response"`
}

// PumpInfo is the decoded pi response:
// OK,<flow>,<running>,<p_comp>,<head>,0,1,0,0,<upf>,<lpf>,<prime>,<keypad>,0,0,0,0,<stall>/
type PumpInfo struct {
	Flowrate             float64 `json:"flowrate"`
	IsRunning            bool    `json:"is_running"`
	PressureCompensation float64 `json:"pressure_compensation"`
	Head                 string  `json:"head"`
	UpperFault           bool    `json:"upper_fault"`
	LowerFault           bool    `json:"lower_fault"`
	InPrime              bool    `json:"in_prime"`
	KeypadEnabled        bool    `json:"keypad_enabled"`
	MotorStallFault      bool    `json:"motor_stall_fault"`
	Response             string  `json:"response"`
}

// Faults is the decoded rf response: OK,<stall>,<upf>,<lpf>/
type Faults struct {
	MotorStallFault bool   `json:"motor_stall_fault"`
	UpperFault      bool   `json:"upper_fault"`
	LowerFault      bool   `json:"lower_fault"`
	Response        string `json:"response"`
}

// Any reports whether at least one fault is active
func (f Faults) Any() bool {
	return f.MotorStallFault || f.UpperFault || f.LowerFault
}

// ParseCurrentConditions decodes a cc response. Pressure is an integer
// when unit is psi and a decimal value otherwise.
func ParseCurrentConditions(response string, unit PressureUnit) (CurrentConditions, error) {
	fields, err := splitFields(CmdCurrentConditions, response, currentConditionsFields)
	if err != nil {
		return CurrentConditions{}, err
	}
	d := fieldDecoder{command: CmdCurrentConditions, response: response, fields: fields}
	c := CurrentConditions{
		Pressure: d.pressure(1, unit),
		Flowrate: d.float(2),
		Response: response,
	}
	return c, d.err
}

// ParseCurrentState decodes a cs response. Limits are decoded like
// ParseCurrentConditions decodes pressure.
func ParseCurrentState(response string, unit PressureUnit) (CurrentState, error) {
	fields, err := splitFields(CmdCurrentState, response, currentStateFields)
	if err != nil {
		return CurrentState{}, err
	}
	d := fieldDecoder{command: CmdCurrentState, response: response, fields: fields}
	s := CurrentState{
		Flowrate:     d.float(1),
		UpperLimit:   d.pressure(2, unit),
		LowerLimit:   d.pressure(3, unit),
		PressureUnit: PressureUnit(strings.TrimSpace(fields[4])),
		IsRunning:    d.bool(6),
		Response:     response,
	}
	return s, d.err
}

// ParsePumpInfo decodes a pi response
func ParsePumpInfo(response string) (PumpInfo, error) {
	fields, err := splitFields(CmdPumpInformation, response, pumpInfoFields)
	if err != nil {
		return PumpInfo{}, err
	}
	d := fieldDecoder{command: CmdPumpInformation, response: response, fields: fields}
	info := PumpInfo{
		Flowrate:             d.float(1),
		IsRunning:            d.bool(2),
		PressureCompensation: d.float(3),
		Head:                 strings.TrimSpace(fields[4]),
		UpperFault:           d.bool(9),
		LowerFault:           d.bool(10),
		InPrime:              d.bool(11),
		KeypadEnabled:        d.bool(12),
		MotorStallFault:      d.bool(17),
		Response:             response,
	}
	return info, d.err
}

// ParseFaults decodes an rf response
func ParseFaults(response string) (Faults, error) {
	fields, err := splitFields(CmdReadFaults, response, faultsFields)
	if err != nil {
		return Faults{}, err
	}
	d := fieldDecoder{command: CmdReadFaults, response: response, fields: fields}
	f := Faults{
		MotorStallFault: d.bool(1),
		UpperFault:      d.bool(2),
		LowerFault:      d.bool(3),
		Response:        response,
	}
	return f, d.err
}

// fieldDecoder converts positional fields and keeps the first error
type fieldDecoder struct {
	command  string
	response string
	fields   []string
	err      error
}

func (d *fieldDecoder) fail(index int, format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	d.err = newDecodeError(d.command, d.response, "field %d: "+format, append([]interface{}{index}, args...)...)
}

func (d *fieldDecoder) float(index int) float64 {
	s := strings.TrimSpace(d.fields[index])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d.fail(index, "%q is not a number", s)
		return 0
	}
	return v
}

func (d *fieldDecoder) bool(index int) bool {
	v, err := parseFlag(d.fields[index])
	if err != nil {
		d.fail(index, "%q is not 0 or 1", d.fields[index])
	}
	return v
}

func (d *fieldDecoder) pressure(index int, unit PressureUnit) float64 {
	s := strings.TrimSpace(d.fields[index])
	v, err := parsePressure(s, unit)
	if err != nil {
		d.fail(index, "%q is not a %s pressure", s, unitName(unit))
	}
	return v
}

// parseFlag decodes the literal "0" / "1" flags used by the pump
func parseFlag(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, strconv.ErrSyntax
}

// parsePressure decodes a pressure value. psi pressures are integers.
func parsePressure(s string, unit PressureUnit) (float64, error) {
	if unit == PSI {
		v, err := strconv.Atoi(s)
		return float64(v), err
	}
	return strconv.ParseFloat(s, 64)
}

func unitName(unit PressureUnit) string {
	if unit == "" {
		return "unitless"
	}
	return string(unit)
}

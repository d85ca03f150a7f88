// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"fmt"
	"math"
	"strconv"
)

// EncodeFlowrate converts a flowrate in mL/min into the fi command for a
// pump with the given flowrate exponent
func EncodeFlowrate(mlPerMin float64, exponent int) (string, error) {
	if exponent != FlowrateExponentTwoDecimals && exponent != FlowrateExponentThreeDecimals {
		return "", &ValidationError{Field: "flowrate exponent", Value: exponent, Message: "unsupported flowrate precision"}
	}
	if math.IsNaN(mlPerMin) || math.IsInf(mlPerMin, 0) || mlPerMin < 0 {
		return "", &ValidationError{Field: "flowrate", Value: mlPerMin, Message: "must be a non-negative number"}
	}
	units := math.RoundToEven(mlPerMin / 1000 / math.Pow10(exponent))
	if units > math.MaxInt32 {
		return "", &ValidationError{Field: "flowrate", Value: mlPerMin, Message: "out of range"}
	}
	return CmdFlowrate + strconv.FormatInt(int64(units), 10), nil
}

// EncodeFlowrateCompensation rounds the factor to two decimals, clamps it
// to [MinCompensation, MaxCompensation] and builds the uc command
func EncodeFlowrateCompensation(factor float64) (string, error) {
	if math.IsNaN(factor) {
		return "", &ValidationError{Field: "flowrate compensation", Value: factor, Message: "not a number"}
	}
	v := roundTo(factor, 2)
	if v < MinCompensation {
		v = MinCompensation
	} else if v > MaxCompensation {
		v = MaxCompensation
	}
	return fmt.Sprintf("%s%04d", CmdCompensation, int(math.RoundToEven(v*1000))), nil
}

// EncodePressureLimit builds an up or lp command. psi limits are whole
// numbers, bar limits carry one decimal and MPa limits two, both sent
// without the decimal point.
func EncodePressureLimit(command string, limit float64, unit PressureUnit) (string, error) {
	if command != CmdUpperPressureLimit && command != CmdLowerPressureLimit {
		return "", &ValidationError{Field: "pressure limit command", Value: command, Message: "must be up or lp"}
	}
	if math.IsNaN(limit) || math.IsInf(limit, 0) {
		return "", &ValidationError{Field: "pressure limit", Value: limit, Message: "not a number"}
	}

	var v float64
	switch unit {
	case PSI:
		v = math.RoundToEven(limit)
	case Bar:
		v = math.RoundToEven(roundTo(limit, 1) * 10) // 19.99 -> 20.0 -> 200
	case MPa:
		v = math.RoundToEven(roundTo(limit, 2) * 100) // 1.999 -> 2.00 -> 200
	default:
		return "", &ValidationError{Field: "pressure unit", Value: string(unit), Message: "unknown pressure unit"}
	}
	if math.Abs(v) > math.MaxInt32 {
		return "", &ValidationError{Field: "pressure limit", Value: limit, Message: "out of range"}
	}
	return command + strconv.FormatInt(int64(v), 10), nil
}

// roundTo rounds half to even to the given number of decimals, so
// 1.125 becomes 1.12
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.RoundToEven(v*scale) / scale
}

// Flowrate reads the current flowrate in mL/min from the cc response
func (p *Pump) Flowrate() (float64, error) {
	c, err := p.CurrentConditions()
	if err != nil {
		return 0, err
	}
	return c.Flowrate, nil
}

// SetFlowrate sets the flowrate in mL/min
func (p *Pump) SetFlowrate(mlPerMin float64) error {
	exp, ok := p.profile.FlowrateExponent()
	if !ok {
		return &ValidationError{Field: "flowrate exponent", Value: nil, Message: "pump did not report its flowrate precision"}
	}
	command, err := EncodeFlowrate(mlPerMin, exp)
	if err != nil {
		return err
	}
	return p.command(command)
}

// FlowrateCompensation returns the compensation factor, 1.0 meaning none
func (p *Pump) FlowrateCompensation() (float64, error) {
	resp, err := p.query(CmdCompensation)
	if err != nil {
		return 0, err
	}
	pct, err := parseSuffixFloat(CmdCompensation, resp)
	if err != nil {
		return 0, err
	}
	return pct / 100, nil
}

// SetFlowrateCompensation sets the compensation factor. Values outside
// [0.85, 1.15] are clamped to the nearest bound.
func (p *Pump) SetFlowrateCompensation(factor float64) error {
	command, err := EncodeFlowrateCompensation(factor)
	if err != nil {
		return err
	}
	return p.command(command)
}

// UpperPressureLimit returns the upper limit in the pump's pressure unit
func (p *Pump) UpperPressureLimit() (float64, error) {
	return p.pressureLimit(CmdUpperPressureLimit)
}

// SetUpperPressureLimit sets the upper limit in the pump's pressure unit
func (p *Pump) SetUpperPressureLimit(limit float64) error {
	return p.setPressureLimit(CmdUpperPressureLimit, limit)
}

// LowerPressureLimit returns the lower limit in the pump's pressure unit
func (p *Pump) LowerPressureLimit() (float64, error) {
	return p.pressureLimit(CmdLowerPressureLimit)
}

// SetLowerPressureLimit sets the lower limit in the pump's pressure unit
func (p *Pump) SetLowerPressureLimit(limit float64) error {
	return p.setPressureLimit(CmdLowerPressureLimit, limit)
}

// pressureLimit decodes OK,UP:<v>/ and OK,LP:<v>/
func (p *Pump) pressureLimit(command string) (float64, error) {
	resp, err := p.query(command)
	if err != nil {
		return 0, err
	}
	return parseSuffixFloat(command, resp)
}

func (p *Pump) setPressureLimit(command string, limit float64) error {
	unit, ok := p.profile.PressureUnit()
	if !ok {
		return &ValidationError{Field: "pressure unit", Value: nil, Message: "pump did not report a pressure unit"}
	}
	encoded, err := EncodePressureLimit(command, limit, unit)
	if err != nil {
		return err
	}
	return p.command(encoded)
}

// SetLeakMode selects the leak sensor behaviour. The pump cannot report
// its current mode.
func (p *Pump) SetLeakMode(mode LeakMode) error {
	command, err := EncodeLeakMode(mode)
	if err != nil {
		return err
	}
	return p.command(command)
}

// Solvent returns the solvent compressibility in 10^-6 per bar
func (p *Pump) Solvent() (int, error) {
	resp, err := p.query(CmdReadSolvent)
	if err != nil {
		return 0, err
	}
	s, err := bodyValue(CmdReadSolvent, resp)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, newDecodeError(CmdReadSolvent, resp, "%q is not an integer", s)
	}
	return v, nil
}

// SetSolvent selects a solvent by name or by compressibility value
func (p *Pump) SetSolvent(nameOrValue string) error {
	return p.command(EncodeSolvent(nameOrValue))
}

// SetSolventCompressibility sets the solvent compressibility directly
func (p *Pump) SetSolventCompressibility(value int) error {
	return p.command(CmdSetSolvent + strconv.Itoa(value))
}

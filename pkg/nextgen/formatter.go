// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"fmt"
	"strings"
)

const unknownValue = "unknown"

// FormatProfile formats a device profile into a human-readable string
func FormatProfile(p Profile) string {
	var b strings.Builder

	b.WriteString("Pump profile:\n")
	fmt.Fprintf(&b, "  Firmware:          %s\n", optionalString(p.FirmwareVersion()))
	fmt.Fprintf(&b, "  Head:              %s\n", optionalString(p.Head()))
	if v, ok := p.MaxFlowrate(); ok {
		fmt.Fprintf(&b, "  Max flowrate:      %g mL/min\n", v)
	} else {
		fmt.Fprintf(&b, "  Max flowrate:      %s\n", unknownValue)
	}
	if exp, ok := p.FlowrateExponent(); ok {
		fmt.Fprintf(&b, "  Flowrate exponent: %d (%s)\n", exp, formatPrecision(exp))
	} else {
		fmt.Fprintf(&b, "  Flowrate exponent: %s\n", unknownValue)
	}

	unit, hasUnit := p.PressureUnit()
	if hasUnit {
		fmt.Fprintf(&b, "  Pressure unit:     %s\n", unit)
	} else {
		fmt.Fprintf(&b, "  Pressure unit:     %s\n", unknownValue)
	}
	if v, ok := p.MaxPressure(); ok {
		fmt.Fprintf(&b, "  Max pressure:      %s\n", FormatPressure(v, unit))
	} else {
		b.WriteString("  Max pressure:      no pressure sensor\n")
	}

	return b.String()
}

// FormatConditions formats a cc record
func FormatConditions(c CurrentConditions, unit PressureUnit) string {
	return fmt.Sprintf("Pressure: %s, Flowrate: %s mL/min\n",
		FormatPressure(c.Pressure, unit), formatFlowrate(c.Flowrate))
}

// FormatState formats a cs record
func FormatState(s CurrentState) string {
	return fmt.Sprintf("%s, Flowrate: %s mL/min, Limits: %g-%g %s\n",
		formatRunning(s.IsRunning), formatFlowrate(s.Flowrate), s.LowerLimit, s.UpperLimit, s.PressureUnit)
}

// FormatPumpInfo formats a pi record
func FormatPumpInfo(i PumpInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, Flowrate: %s mL/min, Head: %s\n", formatRunning(i.IsRunning), formatFlowrate(i.Flowrate), i.Head)
	fmt.Fprintf(&b, "  Pressure compensation: %g\n", i.PressureCompensation)
	fmt.Fprintf(&b, "  Keypad: %s, Prime: %s\n", formatEnabled(i.KeypadEnabled), formatOnOff(i.InPrime))
	fmt.Fprintf(&b, "  Faults: upper=%t lower=%t stall=%t\n", i.UpperFault, i.LowerFault, i.MotorStallFault)
	return b.String()
}

// FormatFaults formats an rf record
func FormatFaults(f Faults) string {
	if !f.Any() {
		return "Faults: none\n"
	}
	var active []string
	if f.MotorStallFault {
		active = append(active, "MOTOR_STALL")
	}
	if f.UpperFault {
		active = append(active, "UPPER_PRESSURE")
	}
	if f.LowerFault {
		active = append(active, "LOWER_PRESSURE")
	}
	return fmt.Sprintf("Faults: %s\n", strings.Join(active, ", "))
}

// FormatPressure formats a pressure with the precision its unit carries
func FormatPressure(v float64, unit PressureUnit) string {
	switch unit {
	case PSI:
		return fmt.Sprintf("%.0f psi", v)
	case Bar:
		return fmt.Sprintf("%.1f bar", v)
	case MPa:
		return fmt.Sprintf("%.2f MPa", v)
	}
	return fmt.Sprintf("%g", v)
}

func formatFlowrate(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatPrecision(exp int) string {
	switch exp {
	case FlowrateExponentTwoDecimals:
		return "2 decimals"
	case FlowrateExponentThreeDecimals:
		return "3 decimals"
	}
	return "unsupported"
}

func formatRunning(running bool) string {
	if running {
		return "RUNNING"
	}
	return "STOPPED"
}

func formatEnabled(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

func formatOnOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func optionalString(v string, ok bool) string {
	if !ok || v == "" {
		return unknownValue
	}
	return v
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"strings"
	"testing"
)

func TestFormatPressure(t *testing.T) {
	tests := []struct {
		value    float64
		unit     PressureUnit
		expected string
	}{
		{1500, PSI, "1500 psi"},
		{103.42, Bar, "103.4 bar"},
		{10.3, MPa, "10.30 MPa"},
		{12.5, "", "12.5"},
	}

	for _, tt := range tests {
		if got := FormatPressure(tt.value, tt.unit); got != tt.expected {
			t.Errorf("FormatPressure(%v, %q) = %q, want %q", tt.value, tt.unit, got, tt.expected)
		}
	}
}

func TestFormatProfile(t *testing.T) {
	p := NewProfile(
		WithHead("SS"),
		WithFirmwareVersion("NextGen Version 2.0.7"),
		WithFlowrateExponent(FlowrateExponentThreeDecimals),
		WithPressureUnit(Bar),
	)

	out := FormatProfile(p)
	for _, want := range []string{"NextGen Version 2.0.7", "Head:              SS", "-6 (3 decimals)", "bar", "no pressure sensor", "Max flowrate:      unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatProfile missing %q:\n%s", want, out)
		}
	}
}

func TestFormatFaults(t *testing.T) {
	if got := FormatFaults(Faults{}); got != "Faults: none\n" {
		t.Errorf("FormatFaults(none) = %q", got)
	}
	got := FormatFaults(Faults{MotorStallFault: true, LowerFault: true})
	if got != "Faults: MOTOR_STALL, LOWER_PRESSURE\n" {
		t.Errorf("FormatFaults = %q", got)
	}
}

func TestFormatState(t *testing.T) {
	got := FormatState(CurrentState{Flowrate: 5, UpperLimit: 6000, LowerLimit: 0, PressureUnit: PSI, IsRunning: true})
	if got != "RUNNING, Flowrate: 5.000 mL/min, Limits: 0-6000 psi\n" {
		t.Errorf("FormatState = %q", got)
	}
}

func TestFormatConditions(t *testing.T) {
	got := FormatConditions(CurrentConditions{Pressure: 1500, Flowrate: 1.25}, PSI)
	if got != "Pressure: 1500 psi, Flowrate: 1.250 mL/min\n" {
		t.Errorf("FormatConditions = %q", got)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"errors"
	"testing"
)

func TestParsePumpInfo(t *testing.T) {
	response := "OK,5.00,1,0.98,A,0,1,0,0,0,0,0,1,0,0,0,0,0/"

	got, err := ParsePumpInfo(response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := PumpInfo{
		Flowrate:             5.00,
		IsRunning:            true,
		PressureCompensation: 0.98,
		Head:                 "A",
		UpperFault:           false,
		LowerFault:           false,
		InPrime:              false,
		KeypadEnabled:        true,
		MotorStallFault:      false,
		Response:             response,
	}
	if got != expected {
		t.Errorf("ParsePumpInfo() = %+v, want %+v", got, expected)
	}
}

func TestParsePumpInfo_Flags(t *testing.T) {
	got, err := ParsePumpInfo("OK,1.500,0,1.00,SS,0,1,0,0,1,1,1,0,0,0,0,1/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.UpperFault || !got.LowerFault || !got.InPrime || got.KeypadEnabled || !got.MotorStallFault {
		t.Errorf("unexpected flags: %+v", got)
	}
}

func TestParseCurrentConditions(t *testing.T) {
	tests := []struct {
		name     string
		response string
		unit     PressureUnit
		pressure float64
		flowrate float64
		wantErr  bool
	}{
		{"psi integer", "OK,1500,5.00/", PSI, 1500, 5.00, false},
		{"bar decimal", "OK,103.4,5.000/", Bar, 103.4, 5.000, false},
		{"MPa decimal", "OK,10.34,1.25/", MPa, 10.34, 1.25, false},
		{"psi rejects decimal", "OK,1500.5,5.00/", PSI, 0, 0, true},
		{"no unit accepts decimal", "OK,12.5,5.00/", "", 12.5, 5.00, false},
		{"too few fields", "OK,1500/", PSI, 0, 0, true},
		{"too many fields", "OK,1500,5.00,1/", PSI, 0, 0, true},
		{"not a number", "OK,abc,5.00/", Bar, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrentConditions(tt.response, tt.unit)
			if tt.wantErr {
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("expected DecodeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Pressure != tt.pressure || got.Flowrate != tt.flowrate {
				t.Errorf("got pressure=%v flowrate=%v, want %v %v", got.Pressure, got.Flowrate, tt.pressure, tt.flowrate)
			}
			if got.Response != tt.response {
				t.Errorf("Response = %q, want %q", got.Response, tt.response)
			}
		})
	}
}

func TestParseCurrentState(t *testing.T) {
	got, err := ParseCurrentState("OK,5.00,6000,100,psi,0,1,0/", PSI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Flowrate != 5.00 || got.UpperLimit != 6000 || got.LowerLimit != 100 {
		t.Errorf("unexpected values: %+v", got)
	}
	if got.PressureUnit != PSI {
		t.Errorf("PressureUnit = %q, want psi", got.PressureUnit)
	}
	if !got.IsRunning {
		t.Error("expected IsRunning")
	}

	if _, err := ParseCurrentState("OK,5.00,6000,100,psi,0,1/", PSI); err == nil {
		t.Error("expected error for 7 fields")
	}
	if _, err := ParseCurrentState("OK,5.00,6000,100,psi,0,yes,0/", PSI); err == nil {
		t.Error("expected error for non 0/1 running flag")
	}
}

func TestParseCurrentState_LimitUnits(t *testing.T) {
	tests := []struct {
		name     string
		response string
		unit     PressureUnit
		upper    float64
		lower    float64
		wantErr  bool
	}{
		{"psi whole", "OK,5.00,6000,100,psi,0,0,0/", PSI, 6000, 100, false},
		{"psi rejects decimals", "OK,5.00,6000.5,100,psi,0,0,0/", PSI, 0, 0, true},
		{"bar decimals", "OK,5.00,413.7,10.5,bar,0,0,0/", Bar, 413.7, 10.5, false},
		{"MPa decimals", "OK,5.00,41.37,0.25,MPa,0,0,0/", MPa, 41.37, 0.25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrentState(tt.response, tt.unit)
			if tt.wantErr {
				var decodeErr *DecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("expected DecodeError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.UpperLimit != tt.upper || got.LowerLimit != tt.lower {
				t.Errorf("limits = %v/%v, want %v/%v", got.UpperLimit, got.LowerLimit, tt.upper, tt.lower)
			}
		})
	}
}

func TestParseFaults(t *testing.T) {
	tests := []struct {
		response string
		expected Faults
		wantErr  bool
	}{
		{"OK,0,0,0/", Faults{Response: "OK,0,0,0/"}, false},
		{"OK,1,0,1/", Faults{MotorStallFault: true, LowerFault: true, Response: "OK,1,0,1/"}, false},
		{"OK,0,1,0/", Faults{UpperFault: true, Response: "OK,0,1,0/"}, false},
		{"OK,2,0,0/", Faults{}, true},
		{"OK,0,0/", Faults{}, true},
	}

	for _, tt := range tests {
		got, err := ParseFaults(tt.response)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFaults(%q) error = %v, wantErr %v", tt.response, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseFaults(%q) = %+v, want %+v", tt.response, got, tt.expected)
		}
	}
}

func TestFaultsAny(t *testing.T) {
	if (Faults{}).Any() {
		t.Error("empty faults reported active")
	}
	if !(Faults{UpperFault: true}).Any() {
		t.Error("upper fault not reported")
	}
}

func TestDecodeErrorReportsFirstField(t *testing.T) {
	_, err := ParseFaults("OK,x,y,0/")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Message != `field 1: "x" is not 0 or 1` {
		t.Errorf("Message = %q", decodeErr.Message)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/pumpstat/pkg/simulator"
)

// newSimulatedPump identifies a simulated pump and returns its typed layer
func newSimulatedPump(t *testing.T, opts ...simulator.Option) (*Pump, *simulator.Pump) {
	t.Helper()
	sim := openSimulator(t, opts...)
	e := newTestEngine(sim)
	return NewPump(e, Identify(e)), sim
}

func TestPump_Operations(t *testing.T) {
	pump, sim := newSimulatedPump(t)
	before := len(sim.Commands())

	require.NoError(t, pump.Run())
	require.NoError(t, pump.Stop())
	require.NoError(t, pump.KeypadDisable())
	require.NoError(t, pump.KeypadEnable())
	require.NoError(t, pump.ClearFaults())
	require.NoError(t, pump.ZeroSeal())
	require.NoError(t, pump.Reset())
	require.NoError(t, pump.ClearBuffer())

	assert.Equal(t, []string{"ru", "st", "kd", "ke", "cf", "zs", "re", "#"}, sim.Commands()[before:])
}

func TestPump_RunState(t *testing.T) {
	pump, _ := newSimulatedPump(t)

	running, err := pump.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, pump.Run())
	info, err := pump.PumpInformation()
	require.NoError(t, err)
	assert.True(t, info.IsRunning)
	assert.True(t, info.KeypadEnabled)
	assert.Equal(t, "SS", info.Head)
}

func TestPump_FlowrateRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		opts     []simulator.Option
		flowrate float64
	}{
		{"two decimals", nil, 5.25},
		{"three decimals", []simulator.Option{simulator.WithDecimals(3)}, 1.234},
		{"zero", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pump, _ := newSimulatedPump(t, tt.opts...)

			require.NoError(t, pump.SetFlowrate(tt.flowrate))
			got, err := pump.Flowrate()
			require.NoError(t, err)
			assert.InDelta(t, tt.flowrate, got, 1e-9)
		})
	}
}

func TestPump_PressureLimitRoundTrip(t *testing.T) {
	tests := []struct {
		unit  string
		upper float64
		lower float64
	}{
		{"psi", 4500, 100},
		{"bar", 250.5, 10.2},
		{"MPa", 25.05, 1.02},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			pump, _ := newSimulatedPump(t, simulator.WithPressureUnit(tt.unit))

			require.NoError(t, pump.SetUpperPressureLimit(tt.upper))
			require.NoError(t, pump.SetLowerPressureLimit(tt.lower))

			upper, err := pump.UpperPressureLimit()
			require.NoError(t, err)
			assert.InDelta(t, tt.upper, upper, 1e-9)

			lower, err := pump.LowerPressureLimit()
			require.NoError(t, err)
			assert.InDelta(t, tt.lower, lower, 1e-9)

			state, err := pump.CurrentState()
			require.NoError(t, err)
			assert.InDelta(t, tt.upper, state.UpperLimit, 1e-9)
			assert.Equal(t, PressureUnit(tt.unit), state.PressureUnit)
		})
	}
}

func TestPump_CompensationRoundTrip(t *testing.T) {
	pump, _ := newSimulatedPump(t)

	for _, v := range []float64{0.85, 0.98, 1.0, 1.15} {
		require.NoError(t, pump.SetFlowrateCompensation(v))
		got, err := pump.FlowrateCompensation()
		require.NoError(t, err)
		assert.InDelta(t, v, got, 1e-9)
	}

	// clamped on the way out
	require.NoError(t, pump.SetFlowrateCompensation(0.5))
	got, err := pump.FlowrateCompensation()
	require.NoError(t, err)
	assert.InDelta(t, 0.85, got, 1e-9)
}

func TestPump_Pressure(t *testing.T) {
	pump, sim := newSimulatedPump(t)
	sim.SetPressure(1523)
	require.NoError(t, pump.Run())

	p, err := pump.Pressure()
	require.NoError(t, err)
	assert.Equal(t, 1523.0, p)

	c, err := pump.CurrentConditions()
	require.NoError(t, err)
	assert.Equal(t, 1523.0, c.Pressure)
}

func TestPump_PressureWithoutSensor(t *testing.T) {
	pump, _ := newSimulatedPump(t, simulator.WithoutPressureSensor())

	_, err := pump.Pressure()
	var fault *DeviceFaultError
	assert.ErrorAs(t, err, &fault)

	var validationErr *ValidationError
	assert.ErrorAs(t, pump.SetUpperPressureLimit(100), &validationErr)
}

func TestPump_StrokeCounter(t *testing.T) {
	pump, _ := newSimulatedPump(t)
	require.NoError(t, pump.Run())
	for i := 0; i < 3; i++ {
		_, err := pump.CurrentConditions()
		require.NoError(t, err)
	}

	strokes, err := pump.StrokeCounter()
	require.NoError(t, err)
	assert.Equal(t, 3, strokes)
}

func TestPump_Faults(t *testing.T) {
	pump, sim := newSimulatedPump(t)
	sim.SetFaults(false, true, false)

	faults, err := pump.ReadFaults()
	require.NoError(t, err)
	assert.True(t, faults.UpperFault)
	assert.True(t, faults.Any())

	// a faulted pump refuses to run
	var fault *DeviceFaultError
	require.ErrorAs(t, pump.Run(), &fault)
	assert.Equal(t, "ru", fault.Command)

	require.NoError(t, pump.ClearFaults())
	faults, err = pump.ReadFaults()
	require.NoError(t, err)
	assert.False(t, faults.Any())
}

func TestPump_LeakDetected(t *testing.T) {
	pump, sim := newSimulatedPump(t, simulator.WithLeakSensor())

	leak, err := pump.LeakDetected()
	require.NoError(t, err)
	assert.False(t, leak)

	sim.SetLeak(true)
	leak, err = pump.LeakDetected()
	require.NoError(t, err)
	assert.True(t, leak)
}

func TestPump_LeakMode(t *testing.T) {
	pump, sim := newSimulatedPump(t)
	before := len(sim.Commands())

	require.NoError(t, pump.SetLeakMode(LeakFault))

	var validationErr *ValidationError
	assert.ErrorAs(t, pump.SetLeakMode(3), &validationErr)
	assert.ErrorAs(t, pump.SetLeakMode(-1), &validationErr)

	// refused modes never reach the pump
	assert.Equal(t, []string{"lm2"}, sim.Commands()[before:])
}

func TestPump_Solvent(t *testing.T) {
	pump, _ := newSimulatedPump(t, simulator.WithSolventSelect())

	require.NoError(t, pump.SetSolvent("Methanol"))
	v, err := pump.Solvent()
	require.NoError(t, err)
	assert.Equal(t, 121, v)

	require.NoError(t, pump.SetSolventCompressibility(90))
	v, err = pump.Solvent()
	require.NoError(t, err)
	assert.Equal(t, 90, v)

	// unknown names are passed through and rejected by the pump
	var fault *DeviceFaultError
	assert.ErrorAs(t, pump.SetSolvent("glycerol"), &fault)
}

func TestPump_SetFlowrateWithoutExponent(t *testing.T) {
	sim := openSimulator(t)
	pump := NewPump(newTestEngine(sim), Profile{})

	var validationErr *ValidationError
	require.ErrorAs(t, pump.SetFlowrate(1), &validationErr)
	assert.Empty(t, sim.Commands())
}

func TestPump_UnexpectedResponse(t *testing.T) {
	tr := newScriptedTransport("??/", "??/", "??/")
	pump := NewPump(newTestEngine(tr), Profile{})

	var decodeErr *DecodeError
	assert.ErrorAs(t, pump.Run(), &decodeErr)
}

func TestPump_DroppedResponsesAreRetried(t *testing.T) {
	pump, sim := newSimulatedPump(t)
	sim.DropResponses(2)

	_, err := pump.CurrentState()
	require.NoError(t, err)

	sim.DropResponses(3)
	_, err = pump.CurrentState()
	var noResp *NoResponseError
	assert.ErrorAs(t, err, &noResp)
}

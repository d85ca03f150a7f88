// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
	"github.com/Thermoquad/pumpstat/pkg/simulator"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	sim := simulator.New()
	conn, err := nextgen.Open("sim", sim, nextgen.WithTiming(nextgen.Timing{}), nextgen.WithObserver(c))
	require.NoError(t, err)

	require.NoError(t, conn.SetFlowrate(1))
	require.NoError(t, conn.SetFlowrate(2))
	_, err = conn.Send("xy")
	require.Error(t, err)

	sim.DropResponses(1)
	require.NoError(t, conn.Run())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.commands.WithLabelValues("fi", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("xy", "fault")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("pi", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.attempts.WithLabelValues("ru")))
	// one histogram per mnemonic: six identification queries, fi, xy and ru
	assert.Equal(t, 9, testutil.CollectAndCount(c.duration))
}

func TestCollector_Profile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetProfile("/dev/ttyUSB0", nextgen.NewProfile(
		nextgen.WithHead("SS"),
		nextgen.WithPressureUnit(nextgen.PSI),
		nextgen.WithFlowrateExponent(nextgen.FlowrateExponentTwoDecimals),
	))

	expected := `
# HELP pumpstat_pump_info Identified pump profile, always 1
# TYPE pumpstat_pump_info gauge
pumpstat_pump_info{device="/dev/ttyUSB0",flowrate_exponent="-5",head="SS",pressure_unit="psi"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pumpstat_pump_info"))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/pumpstat/pkg/simulator"
)

func TestOpen(t *testing.T) {
	sim := simulator.New(simulator.WithPressureUnit("MPa"))
	conn, err := Open("sim://pump", sim, WithTiming(Timing{}))
	require.NoError(t, err)

	assert.Equal(t, StateReady, conn.State())
	assert.Equal(t, "sim://pump", conn.Device())
	assert.True(t, sim.IsOpen())

	unit, ok := conn.Profile().PressureUnit()
	assert.True(t, ok)
	assert.Equal(t, MPa, unit)

	// typed operations are available on the connection
	require.NoError(t, conn.SetUpperPressureLimit(20.5))
	assert.Contains(t, sim.Commands(), "up2050")
}

func TestOpen_TransportFailure(t *testing.T) {
	openErr := errors.New("permission denied")
	sim := simulator.New(simulator.WithOpenError(openErr))

	conn, err := Open("/dev/ttyUSB0", sim)
	assert.Nil(t, conn)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "/dev/ttyUSB0", connErr.Device)
	assert.ErrorIs(t, err, openErr)
	assert.Empty(t, sim.Commands())
}

func TestClose(t *testing.T) {
	sim := simulator.New()
	conn, err := Open("sim", sim, WithTiming(Timing{}))
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	assert.Equal(t, StateClosed, conn.State())
	assert.False(t, sim.IsOpen())

	assert.ErrorIs(t, conn.Close(), ErrClosed)
	assert.ErrorIs(t, conn.Run(), ErrNotOpen)
}

func TestOpen_Logging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	sim := simulator.New(simulator.WithoutPressureSensor())
	conn, err := Open("sim", sim, WithTiming(Timing{}), WithLogger(logger))
	require.NoError(t, err)
	defer conn.Close()

	var warnings, infos int
	for _, entry := range hook.AllEntries() {
		switch entry.Level {
		case log.WarnLevel:
			warnings++
		case log.InfoLevel:
			infos++
		}
	}
	// pu and mp are unanswered without a pressure sensor
	assert.Equal(t, 2, warnings)
	assert.Equal(t, 2, infos)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "identified", StateIdentified.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "closed", StateClosed.String())
}

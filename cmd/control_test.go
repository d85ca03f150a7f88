// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// runAction presses key and feeds the resulting action back into the model
func runAction(t *testing.T, m controlModel, key string) controlModel {
	t.Helper()

	next, cmd := m.Update(keyMsg(key))
	m = next.(controlModel)
	require.NotNil(t, cmd)
	require.NotEmpty(t, m.pending)

	next, _ = m.Update(cmd())
	return next.(controlModel)
}

func TestControlModel_Actions(t *testing.T) {
	s, _ := newTestSession(t, nil)
	m := initialControlModel(s, time.Second)

	m = runAction(t, m, "r")
	assert.Empty(t, m.pending)

	var running bool
	require.NoError(t, s.Do(func(c *nextgen.Connection) error {
		var err error
		running, err = c.IsRunning()
		return err
	}))
	assert.True(t, running)

	m = runAction(t, m, "s")
	last := m.eventLog[len(m.eventLog)-1]
	assert.Equal(t, "Stop OK", last.message)
	assert.False(t, last.isError)
}

func TestControlModel_FaultedRunIsLogged(t *testing.T) {
	s, sim := newTestSession(t, nil)
	sim.SetFaults(true, false, false)
	m := initialControlModel(s, time.Second)

	m = runAction(t, m, "r")
	last := m.eventLog[len(m.eventLog)-1]
	assert.True(t, last.isError)
	assert.Contains(t, last.message, "Run failed")
}

func TestControlModel_Poll(t *testing.T) {
	s, sim := newTestSession(t, nil)
	sim.SetFaults(false, false, true)
	m := initialControlModel(s, time.Second)

	next, _ := m.Update(pollCmd(s)())
	m = next.(controlModel)
	require.True(t, m.hasStatus)
	assert.True(t, m.status.Faults.LowerFault)
	assert.Contains(t, m.eventLog[len(m.eventLog)-1].message, "LOWER_PRESSURE")

	// A repeated error is logged once
	logged := len(m.eventLog)
	failure := pollResultMsg{err: &nextgen.NoResponseError{Command: "cc"}}
	next, _ = m.Update(failure)
	next, _ = next.(controlModel).Update(failure)
	m = next.(controlModel)
	assert.Len(t, m.eventLog, logged+1)

	next, _ = m.Update(pollCmd(s)())
	m = next.(controlModel)
	assert.Nil(t, m.pollErr)
	assert.Equal(t, "Communication restored", m.eventLog[len(m.eventLog)-1].message)
}

func TestControlModel_EditFlowrate(t *testing.T) {
	s, _ := newTestSession(t, nil)
	m := initialControlModel(s, time.Second)

	next, _ := m.Update(keyMsg("f"))
	m = next.(controlModel)
	require.True(t, m.editing)

	m.flowInput.SetValue("3.5")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(controlModel)
	require.NotNil(t, cmd)
	assert.False(t, m.editing)

	next, _ = m.Update(cmd())
	m = next.(controlModel)
	assert.Equal(t, "Set flowrate 3.5 OK", m.eventLog[len(m.eventLog)-1].message)

	var flowrate float64
	require.NoError(t, s.Do(func(c *nextgen.Connection) error {
		var err error
		flowrate, err = c.Flowrate()
		return err
	}))
	assert.InDelta(t, 3.5, flowrate, 1e-9)
}

func TestControlModel_BusyIgnoresSecondAction(t *testing.T) {
	s, _ := newTestSession(t, nil)
	m := initialControlModel(s, time.Second)
	m.pending = "Run"

	next, cmd := m.Update(keyMsg("s"))
	m = next.(controlModel)
	assert.Nil(t, cmd)
	assert.True(t, m.eventLog[len(m.eventLog)-1].isError)
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/pumpstat/pkg/metrics"
	"github.com/Thermoquad/pumpstat/pkg/nextgen"
	"github.com/Thermoquad/pumpstat/pkg/simulator"
)

func newTestAPI(t *testing.T, opts ...simulator.Option) (*httptest.Server, *simulator.Pump) {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	s, sim := newTestSession(t, []nextgen.Observer{collector}, opts...)
	collector.SetProfile(s.info, s.Profile())

	srv := httptest.NewServer(newAPIRouter(s, reg))
	t.Cleanup(srv.Close)
	return srv, sim
}

func doRequest(t *testing.T, method, url, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestAPI_Reads(t *testing.T) {
	srv, _ := newTestAPI(t)

	tests := []struct {
		path     string
		contains string
	}{
		{"/version", `"version"`},
		{"/health", `"ready"`},
		{"/profile", `"head": "SS"`},
		{"/conditions", `"pressure"`},
		{"/state", `"pressure_unit": "psi"`},
		{"/info", `"keypad_enabled"`},
		{"/faults", `"motor_stall_fault": false`},
		{"/statistics", `"commands"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := doRequest(t, "GET", srv.URL+tt.path, "")
			assert.Equal(t, http.StatusOK, status)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestAPI_RunStop(t *testing.T) {
	srv, _ := newTestAPI(t)

	status, _ := doRequest(t, "POST", srv.URL+"/run", "")
	require.Equal(t, http.StatusOK, status)

	_, body := doRequest(t, "GET", srv.URL+"/state", "")
	var state nextgen.CurrentState
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.True(t, state.IsRunning)

	status, _ = doRequest(t, "POST", srv.URL+"/stop", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, "GET", srv.URL+"/run", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestAPI_RunWithFaultLatched(t *testing.T) {
	srv, sim := newTestAPI(t)
	sim.SetFaults(true, false, false)

	status, body := doRequest(t, "POST", srv.URL+"/run", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, `"error"`)

	status, _ = doRequest(t, "POST", srv.URL+"/clear-faults", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, "POST", srv.URL+"/run", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_Settings(t *testing.T) {
	srv, _ := newTestAPI(t, simulator.WithSolventSelect())

	tests := []struct {
		path   string
		body   string
		status int
	}{
		{"/flowrate", `{"value": 1.5}`, http.StatusOK},
		{"/flowrate", `{"value": "2.25"}`, http.StatusOK},
		{"/flowrate", `{"value": "fast"}`, http.StatusBadRequest},
		{"/flowrate", `{"value": -1}`, http.StatusBadRequest},
		{"/flowrate", `{}`, http.StatusBadRequest},
		{"/flowrate", `not json`, http.StatusBadRequest},
		{"/compensation", `{"value": 1.1}`, http.StatusOK},
		{"/limits/upper", `{"value": 4000}`, http.StatusOK},
		{"/limits/lower", `{"value": 50}`, http.StatusOK},
		{"/leak-mode", `{"value": 2}`, http.StatusOK},
		{"/leak-mode", `{"value": 1.5}`, http.StatusBadRequest},
		{"/leak-mode", `{"value": 7}`, http.StatusBadRequest},
		{"/solvent", `{"value": "Acetonitrile"}`, http.StatusOK},
		{"/solvent", `{"value": 46}`, http.StatusOK},
		{"/solvent", `{"value": true}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			status, body := doRequest(t, "PUT", srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
		})
	}

	_, body := doRequest(t, "GET", srv.URL+"/state", "")
	var state nextgen.CurrentState
	require.NoError(t, json.Unmarshal([]byte(body), &state))
	assert.InDelta(t, 2.25, state.Flowrate, 1e-9)
	assert.InDelta(t, 4000, state.UpperLimit, 1e-9)
	assert.InDelta(t, 50, state.LowerLimit, 1e-9)
}

func TestAPI_Metrics(t *testing.T) {
	srv, _ := newTestAPI(t)

	status, _ := doRequest(t, "GET", srv.URL+"/conditions", "")
	require.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, "GET", srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `pumpstat_commands_total{command="cc",outcome="ok"} 1`)
	assert.Contains(t, body, `pumpstat_pump_info{`)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&nextgen.ValidationError{Field: "flowrate"}, http.StatusBadRequest},
		{&nextgen.DeviceFaultError{Command: "ru"}, http.StatusConflict},
		{&nextgen.NoResponseError{Command: "cc"}, http.StatusGatewayTimeout},
		{&nextgen.DecodeError{Command: "cc"}, http.StatusBadGateway},
		{nextgen.ErrNotOpen, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

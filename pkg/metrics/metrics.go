// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exports protocol engine activity as Prometheus metrics
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

// Collector is a nextgen.Observer that feeds Prometheus metrics
type Collector struct {
	commands *prometheus.CounterVec
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	profile  *prometheus.GaugeVec
}

// NewCollector creates the pump metrics and registers them with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpstat_commands_total",
				Help: "Commands sent to the pump by outcome",
			},
			[]string{"command", "outcome"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpstat_attempts_total",
				Help: "Write attempts including retries",
			},
			[]string{"command"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pumpstat_command_duration_seconds",
				Help:    "Time from first write to final response",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"command"},
		),
		profile: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pumpstat_pump_info",
				Help: "Identified pump profile, always 1",
			},
			[]string{"device", "head", "pressure_unit", "flowrate_exponent"},
		),
	}

	reg.MustRegister(c.commands, c.attempts, c.duration, c.profile)
	return c
}

// Attempt implements nextgen.Observer
func (c *Collector) Attempt(command string, attempt int) {
	c.attempts.WithLabelValues(label(command)).Inc()
}

// Result implements nextgen.Observer
func (c *Collector) Result(command string, outcome nextgen.Outcome, elapsed time.Duration) {
	command = label(command)
	c.commands.WithLabelValues(command, outcome.String()).Inc()
	c.duration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// SetProfile publishes the identified profile of a connection
func (c *Collector) SetProfile(device string, p nextgen.Profile) {
	head, _ := p.Head()
	unit, _ := p.PressureUnit()
	exponent := ""
	if exp, ok := p.FlowrateExponent(); ok {
		exponent = strconv.Itoa(exp)
	}
	c.profile.Reset()
	c.profile.WithLabelValues(device, head, string(unit), exponent).Set(1)
}

// label reduces a command to its mnemonic so setter arguments do not
// create a series per value
func label(command string) string {
	if len(command) > 2 {
		return command[:2]
	}
	return command
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/metrics"
	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the pump over an HTTP JSON API",
	Long: `Serve a JSON API for the connected pump, with Prometheus metrics.

Endpoints:
  GET  /version /health /profile /conditions /state /info /faults /statistics
  POST /run /stop /clear-faults
  PUT  /flowrate /compensation /limits/upper /limits/lower /leak-mode /solvent
  GET  /metrics

PUT bodies are JSON objects with a single "value" field, for example
{"value": 1.5}. Solvent accepts a name or a compressibility value.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// Add the default go metrics
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s, err := OpenSession(collector)
	if err != nil {
		return err
	}
	defer s.Close()
	collector.SetProfile(s.info, s.Profile())

	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           newAPIRouter(s, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Serving pump API")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// api holds the handlers for one pump session
type api struct {
	session *session
}

func newAPIRouter(s *session, reg *prometheus.Registry) *mux.Router {
	a := &api{session: s}
	router := mux.NewRouter()

	router.HandleFunc("/version", a.version).Methods("GET")
	router.HandleFunc("/health", a.health).Methods("GET")
	router.HandleFunc("/profile", a.profile).Methods("GET")
	router.HandleFunc("/statistics", a.statistics).Methods("GET")

	router.HandleFunc("/conditions", a.read(func(c *nextgen.Connection) (interface{}, error) {
		return c.CurrentConditions()
	})).Methods("GET")
	router.HandleFunc("/state", a.read(func(c *nextgen.Connection) (interface{}, error) {
		return c.CurrentState()
	})).Methods("GET")
	router.HandleFunc("/info", a.read(func(c *nextgen.Connection) (interface{}, error) {
		return c.PumpInformation()
	})).Methods("GET")
	router.HandleFunc("/faults", a.read(func(c *nextgen.Connection) (interface{}, error) {
		return c.ReadFaults()
	})).Methods("GET")

	router.HandleFunc("/run", a.action((*nextgen.Connection).Run)).Methods("POST")
	router.HandleFunc("/stop", a.action((*nextgen.Connection).Stop)).Methods("POST")
	router.HandleFunc("/clear-faults", a.action((*nextgen.Connection).ClearFaults)).Methods("POST")

	router.HandleFunc("/flowrate", a.setFloat("flowrate", (*nextgen.Connection).SetFlowrate)).Methods("PUT")
	router.HandleFunc("/compensation", a.setFloat("compensation", (*nextgen.Connection).SetFlowrateCompensation)).Methods("PUT")
	router.HandleFunc("/limits/upper", a.setFloat("upper pressure limit", (*nextgen.Connection).SetUpperPressureLimit)).Methods("PUT")
	router.HandleFunc("/limits/lower", a.setFloat("lower pressure limit", (*nextgen.Connection).SetLowerPressureLimit)).Methods("PUT")
	router.HandleFunc("/leak-mode", a.setFloat("leak mode", func(c *nextgen.Connection, v float64) error {
		if v != float64(int(v)) {
			return &nextgen.ValidationError{Field: "leak mode", Value: v, Message: "expected 0, 1 or 2"}
		}
		return c.SetLeakMode(nextgen.LeakMode(int(v)))
	})).Methods("PUT")
	router.HandleFunc("/solvent", a.setSolvent).Methods("PUT")

	router.Handle("/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          reg,
		},
	))

	return router
}

func (a *api) version(w http.ResponseWriter, r *http.Request) {
	v := struct {
		Version string `json:"version"`
	}{Version: rootCmd.Version}
	writeJSON(w, http.StatusOK, v)
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	var state nextgen.State
	a.session.Do(func(c *nextgen.Connection) error {
		state = c.State()
		return nil
	})
	status := http.StatusOK
	if state == nextgen.StateClosed {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"state": state.String()})
}

func (a *api) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileJSON(a.session.Profile()))
}

func (a *api) statistics(w http.ResponseWriter, r *http.Request) {
	a.session.stats.CalculateRates()
	snap := a.session.stats.Snapshot()
	v := struct {
		Commands     uint64  `json:"commands"`
		Successful   uint64  `json:"successful"`
		DeviceFaults uint64  `json:"device_faults"`
		NoResponses  uint64  `json:"no_responses"`
		Unexpected   uint64  `json:"unexpected"`
		Attempts     uint64  `json:"attempts"`
		Retries      uint64  `json:"retries"`
		CommandRate  float64 `json:"command_rate"`
		ErrorRate    float64 `json:"error_rate"`
		AvgLatencyMs float64 `json:"avg_latency_ms"`
		MaxLatencyMs float64 `json:"max_latency_ms"`
	}{
		Commands:     snap.TotalCommands,
		Successful:   snap.Successful,
		DeviceFaults: snap.DeviceFaults,
		NoResponses:  snap.NoResponses,
		Unexpected:   snap.Unexpected,
		Attempts:     snap.Attempts,
		Retries:      snap.Retries,
		CommandRate:  snap.CommandRate,
		ErrorRate:    snap.ErrorRate,
		AvgLatencyMs: float64(snap.AverageLatency()) / float64(time.Millisecond),
		MaxLatencyMs: float64(snap.MaxLatency) / float64(time.Millisecond),
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *api) read(fn func(c *nextgen.Connection) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v interface{}
		err := a.session.Do(func(c *nextgen.Connection) error {
			var err error
			v, err = fn(c)
			return err
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (a *api) action(fn func(c *nextgen.Connection) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.session.Do(fn); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"result": "OK"})
	}
}

// valueRequest is the body of every PUT endpoint
type valueRequest struct {
	Value interface{} `json:"value"`
}

func decodeValue(r *http.Request) (interface{}, error) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &nextgen.ValidationError{Field: "body", Value: "", Message: err.Error()}
	}
	if req.Value == nil {
		return nil, &nextgen.ValidationError{Field: "body", Value: "", Message: `missing "value"`}
	}
	return req.Value, nil
}

func (a *api) setFloat(field string, set func(c *nextgen.Connection, v float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := decodeValue(r)
		if err != nil {
			writeError(w, err)
			return
		}

		var v float64
		switch x := raw.(type) {
		case float64:
			v = x
		case string:
			if v, err = strconv.ParseFloat(x, 64); err != nil {
				writeError(w, &nextgen.ValidationError{Field: field, Value: x, Message: "not a number"})
				return
			}
		default:
			writeError(w, &nextgen.ValidationError{Field: field, Value: raw, Message: "not a number"})
			return
		}

		if err := a.session.Do(func(c *nextgen.Connection) error { return set(c, v) }); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"value": v})
	}
}

func (a *api) setSolvent(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeValue(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var value string
	switch x := raw.(type) {
	case string:
		value = x
	case float64:
		value = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		writeError(w, &nextgen.ValidationError{Field: "solvent", Value: raw, Message: "expected a name or a number"})
		return
	}

	if err := a.session.Do(func(c *nextgen.Connection) error { return c.SetSolvent(value) }); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": value})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	e := json.NewEncoder(w)
	e.SetIndent("", "    ")
	if err := e.Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}

// errorStatus maps the pump error taxonomy onto HTTP status codes
func errorStatus(err error) int {
	var (
		validationErr *nextgen.ValidationError
		faultErr      *nextgen.DeviceFaultError
		noRespErr     *nextgen.NoResponseError
		decodeErr     *nextgen.DecodeError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &faultErr):
		return http.StatusConflict
	case errors.As(err, &noRespErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &decodeErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	log.WithError(err).WithField("status", status).Debug("Request failed")
	writeJSON(w, status, map[string]string{"error": fmt.Sprint(err)})
}

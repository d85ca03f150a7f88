// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Transport is the byte stream the engine talks over.
//
// ReadUntil returns the bytes read up to and including delim. When the
// timeout expires first it returns whatever arrived, possibly nothing, with
// a nil error.
type Transport interface {
	Open() error
	Close() error
	ResetBuffers() error
	Write(p []byte) (int, error)
	Flush() error
	ReadUntil(delim byte, timeout time.Duration) ([]byte, error)
	IsOpen() bool
}

// Timing holds the delays the pump needs between protocol steps
type Timing struct {
	PreWrite    time.Duration // settle time before writing a command
	PostWrite   time.Duration // time the pump needs to start answering
	Retry       time.Duration // wait between attempts
	ReadTimeout time.Duration // per read attempt
}

// DefaultTiming returns the delays recommended by the pump documentation
func DefaultTiming() Timing {
	return Timing{
		PreWrite:    DefaultPreWriteDelay,
		PostWrite:   DefaultPostWriteDelay,
		Retry:       DefaultRetryDelay,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Outcome classifies the result of one Send call
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFault
	OutcomeNoResponse
	OutcomeUnexpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFault:
		return "fault"
	case OutcomeNoResponse:
		return "no_response"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Observer receives engine events. Observers never affect control flow.
type Observer interface {
	Attempt(command string, attempt int)
	Result(command string, outcome Outcome, elapsed time.Duration)
}

// Option configures an Engine
type Option func(*Engine)

// WithTiming overrides the protocol delays
func WithTiming(t Timing) Option {
	return func(e *Engine) {
		e.timing = t
	}
}

// WithLogger sets the diagnostic log sink
func WithLogger(l log.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithObserver adds an observer for attempts and results
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// Engine executes commands over a Transport with bounded retries.
// It is not safe for concurrent use.
type Engine struct {
	transport Transport
	timing    Timing
	log       log.FieldLogger
	observers []Observer
}

// NewEngine creates an engine that owns the given transport
func NewEngine(t Transport, opts ...Option) *Engine {
	e := &Engine{
		transport: t,
		timing:    DefaultTiming(),
		log:       discardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func discardLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// Transport returns the transport the engine writes to
func (e *Engine) Transport() Transport {
	return e.transport
}

// Timing returns the delays the engine was configured with
func (e *Engine) Timing() Timing {
	return e.timing
}

// Logger returns the diagnostic log sink
func (e *Engine) Logger() log.FieldLogger {
	return e.log
}

// Send writes a command and returns the pump's response.
//
// Each of up to MaxAttempts attempts clears the transport buffers, writes
// the framed command and reads one response. Retrying stops at the first
// response containing "OK" or the fault marker. A fault is returned as
// *DeviceFaultError and an exhausted retry loop as *NoResponseError.
// ClearBufferCommand returns immediately after the write.
func (e *Engine) Send(command string) (string, error) {
	start := time.Now()
	logger := e.log.WithField("command", command)

	if !e.transport.IsOpen() {
		return "", ErrNotOpen
	}

	var response string
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		e.notifyAttempt(command, attempt)

		if err := e.transport.ResetBuffers(); err != nil {
			logger.WithError(err).Debug("Could not reset buffers")
			lastErr = err
		}
		time.Sleep(e.timing.PreWrite)

		if err := e.write(command); err != nil {
			logger.WithError(err).WithField("attempt", attempt).Warn("Write failed")
			lastErr = err
			e.backoff(attempt)
			continue
		}
		logger.WithField("attempt", attempt).Debugf("Sent %s (attempt %d/%d)", command, attempt, MaxAttempts)

		if command == ClearBufferCommand {
			e.notifyResult(command, OutcomeOK, time.Since(start))
			return "", nil
		}

		time.Sleep(e.timing.PostWrite)

		var err error
		response, err = e.read(logger)
		if err != nil {
			lastErr = err
		}
		if strings.Contains(response, OKMarker) || IsFault(response) {
			break
		}
		e.backoff(attempt)
	}

	switch {
	case IsFault(response):
		logger.WithField("raw", response).Debug("Pump reported a fault")
		e.notifyResult(command, OutcomeFault, time.Since(start))
		return "", &DeviceFaultError{Command: command, Response: response}
	case response == "":
		logger.Warnf("No response after %d attempts", MaxAttempts)
		e.notifyResult(command, OutcomeNoResponse, time.Since(start))
		return "", &NoResponseError{Command: command, Err: lastErr}
	case !strings.Contains(response, OKMarker):
		e.notifyResult(command, OutcomeUnexpected, time.Since(start))
		return response, nil
	}

	e.notifyResult(command, OutcomeOK, time.Since(start))
	return response, nil
}

// write frames the command and waits until it is transmitted
func (e *Engine) write(command string) error {
	if _, err := e.transport.Write(EncodeFrame(command)); err != nil {
		return err
	}
	return e.transport.Flush()
}

// read performs the read sub-protocol: up to MaxReadAttempts reads, each
// bounded by the read timeout, until one ends with the '/' terminator.
func (e *Engine) read(logger log.FieldLogger) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxReadAttempts; attempt++ {
		buf, err := e.transport.ReadUntil(MessageEnd, e.timing.ReadTimeout)
		response := DecodeFrame(buf)
		logger.WithFields(log.Fields{
			"attempt": attempt,
			"raw":     response,
		}).Debugf("Got response: %q (attempt %d/%d)", response, attempt, MaxReadAttempts)
		if err != nil {
			lastErr = err
			continue
		}
		if strings.ContainsRune(response, MessageEnd) {
			return response, nil
		}
	}
	return "", lastErr
}

func (e *Engine) backoff(attempt int) {
	if attempt < MaxAttempts {
		time.Sleep(e.timing.Retry)
	}
}

func (e *Engine) notifyAttempt(command string, attempt int) {
	for _, o := range e.observers {
		o.Attempt(command, attempt)
	}
}

func (e *Engine) notifyResult(command string, outcome Outcome, elapsed time.Duration) {
	for _, o := range e.observers {
		o.Result(command, outcome, elapsed)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned when a command is sent over a closed transport
	ErrNotOpen = errors.New("transport is not open")
	// ErrClosed is returned when closing a connection twice
	ErrClosed = errors.New("connection already closed")
)

// ConnectionError reports that the transport could not be opened
type ConnectionError struct {
	Device string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not open %s: %v", e.Device, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DeviceFaultError reports an explicit error acknowledgement from the pump
type DeviceFaultError struct {
	Command  string
	Response string
}

func (e *DeviceFaultError) Error() string {
	return fmt.Sprintf("pump rejected command %q with %q", e.Command, e.Response)
}

// NoResponseError reports that every attempt to read a response came back
// empty. Err holds the last transport error, if there was one.
type NoResponseError struct {
	Command string
	Err     error
}

func (e *NoResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no response to command %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("no response to command %q", e.Command)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// ValidationError reports a setter argument that was refused before
// anything was sent to the pump
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
}

// DecodeError reports a response that does not match its expected layout
type DecodeError struct {
	Command  string
	Response string
	Message  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode response %q to %q: %s", e.Response, e.Command, e.Message)
}

func newDecodeError(command, response, format string, args ...interface{}) *DecodeError {
	return &DecodeError{
		Command:  command,
		Response: response,
		Message:  fmt.Sprintf(format, args...),
	}
}

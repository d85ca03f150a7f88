// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"strings"
	"unicode/utf8"
)

// EncodeFrame converts a command into wire format by appending a single
// carriage return. The command itself is not validated.
func EncodeFrame(command string) []byte {
	frame := make([]byte, 0, len(command)+1)
	frame = append(frame, command...)
	return append(frame, CommandEnd)
}

// DecodeFrame converts received bytes into a response string. The caller
// reads up to and including the '/' terminator. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func DecodeFrame(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	return strings.ToValidUTF8(string(buf), string(utf8.RuneError))
}

// IsFault reports whether a response carries the device fault marker
// without an OK acknowledgement.
func IsFault(response string) bool {
	return !strings.Contains(response, OKMarker) && strings.Contains(response, FaultMarker)
}

// trimFrame drops the '/' terminator and surrounding whitespace
func trimFrame(response string) string {
	s := strings.TrimSpace(response)
	s = strings.TrimSuffix(s, string(rune(MessageEnd)))
	return strings.TrimSpace(s)
}

// splitFields splits an OK response into its comma-delimited fields.
// Field 0 is always "OK".
func splitFields(command, response string, want int) ([]string, error) {
	fields := strings.Split(trimFrame(response), ",")
	if fields[0] != OKMarker {
		return nil, newDecodeError(command, response, "response does not start with OK")
	}
	if want > 0 && len(fields) != want {
		return nil, newDecodeError(command, response,
			"expected %d fields, got %d", want, len(fields))
	}
	return fields, nil
}

// suffixValue returns the text after the first ':' of a response such as
// "OK,MF:10.00/"
func suffixValue(command, response string) (string, error) {
	s := trimFrame(response)
	if !strings.HasPrefix(s, OKMarker) {
		return "", newDecodeError(command, response, "response does not start with OK")
	}
	_, value, found := strings.Cut(s, ":")
	if !found {
		return "", newDecodeError(command, response, "missing ':' separator")
	}
	return strings.TrimSpace(value), nil
}

// bodyValue returns the text after the first ',' of a response such as
// "OK,psi/"
func bodyValue(command, response string) (string, error) {
	s := trimFrame(response)
	head, value, found := strings.Cut(s, ",")
	if !found || head != OKMarker {
		return "", newDecodeError(command, response, "expected OK,<value>")
	}
	return strings.TrimSpace(value), nil
}

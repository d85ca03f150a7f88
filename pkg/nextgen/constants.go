// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package nextgen implements the ASCII command/response protocol spoken by
// Next Generation class HPLC pumps.
//
// Commands are short mnemonics terminated by a carriage return. The pump
// answers with a frame terminated by '/', beginning with "OK" on success or
// carrying "Er" when it rejects the command. This package provides the frame
// codec, a retrying protocol engine, the per-connection device profile and a
// typed command layer that applies the profile's pressure unit and flowrate
// precision on every encode and decode.
package nextgen

import "time"

// Protocol framing
const (
	CommandEnd = '\r' // terminates frames sent to the pump
	MessageEnd = '/'  // terminates frames received from the pump
)

// Response markers
const (
	OKMarker    = "OK"
	FaultMarker = "Er"
)

// ClearBufferCommand clears the pump's command buffer. The pump does not
// answer it.
const ClearBufferCommand = "#"

// Retry limits recommended by the pump documentation
const (
	MaxAttempts     = 3
	MaxReadAttempts = 3
)

// Default timing
const (
	DefaultPreWriteDelay  = 15 * time.Millisecond
	DefaultPostWriteDelay = 15 * time.Millisecond
	DefaultRetryDelay     = 100 * time.Millisecond
	DefaultReadTimeout    = 100 * time.Millisecond
)

// Serial line settings
const (
	BaudRate = 9600
	DataBits = 8
)

// Command mnemonics
const (
	CmdRun                = "ru"
	CmdStop               = "st"
	CmdKeypadEnable       = "ke"
	CmdKeypadDisable      = "kd"
	CmdClearFaults        = "cf"
	CmdReset              = "re"
	CmdZeroSeal           = "zs"
	CmdCurrentConditions  = "cc"
	CmdCurrentState       = "cs"
	CmdPumpInformation    = "pi"
	CmdReadFaults         = "rf"
	CmdIdentify           = "id"
	CmdStrokeCounter      = "gs"
	CmdFlowrate           = "fi"
	CmdCompensation       = "uc"
	CmdUpperPressureLimit = "up"
	CmdLowerPressureLimit = "lp"
	CmdPressure           = "pr"
	CmdPressureUnits      = "pu"
	CmdMaxFlowrate        = "mf"
	CmdMaxPressure        = "mp"
	CmdLeakSensor         = "ls"
	CmdLeakMode           = "lm"
	CmdReadSolvent        = "rs"
	CmdSetSolvent         = "ss"
)

// Field counts of the bundled status responses, "OK" included
const (
	currentConditionsFields = 3
	currentStateFields      = 8
	pumpInfoFields          = 18
	faultsFields            = 4
)

// Flowrate compensation bounds
const (
	MinCompensation = 0.85
	MaxCompensation = 1.15
)

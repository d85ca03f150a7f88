// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Pumpstat - Next Generation HPLC Pump Controller
//
// A CLI tool for controlling and monitoring HPLC pumps that speak the Next
// Generation ASCII serial protocol.

package main

import (
	"os"

	"github.com/Thermoquad/pumpstat/cmd"
)

func main() {
	err := cmd.Execute()
	os.Exit(cmd.ExitCode(err))
}

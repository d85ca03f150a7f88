// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

var identifyJSON bool

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify the pump and print its profile",
	Long: `Open the connection and query the pump for its firmware version, head type,
maximum flowrate, pressure unit, maximum pressure and flowrate precision.

Fields the pump does not answer are reported as unknown. A pump with no
pressure sensor reports no maximum pressure.

Examples:
  pumpstat identify --port /dev/ttyUSB0
  pumpstat identify --url ws://bridge.local/pump --json

Exit codes:
  0 - Identification completed
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
	identifyCmd.Flags().BoolVar(&identifyJSON, "json", false, "Print the profile as JSON")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if identifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profileJSON(s.Profile()))
	}

	fmt.Printf("Pumpstat - Pump Identification\n")
	fmt.Printf("Connection: %s\n\n", s.info)
	fmt.Print(nextgen.FormatProfile(s.Profile()))
	return nil
}

// profileView is the JSON form of a profile. Unknown fields are omitted.
type profileView struct {
	FirmwareVersion   *string  `json:"firmware_version,omitempty"`
	Head              *string  `json:"head,omitempty"`
	MaxFlowrate       *float64 `json:"max_flowrate,omitempty"`
	MaxPressure       *float64 `json:"max_pressure,omitempty"`
	PressureUnit      *string  `json:"pressure_unit,omitempty"`
	FlowrateExponent  *int     `json:"flowrate_exponent,omitempty"`
	HasPressureSensor bool     `json:"has_pressure_sensor"`
}

func profileJSON(p nextgen.Profile) profileView {
	v := profileView{HasPressureSensor: p.HasPressureSensor()}
	if s, ok := p.FirmwareVersion(); ok {
		v.FirmwareVersion = &s
	}
	if s, ok := p.Head(); ok {
		v.Head = &s
	}
	if f, ok := p.MaxFlowrate(); ok {
		v.MaxFlowrate = &f
	}
	if f, ok := p.MaxPressure(); ok {
		v.MaxPressure = &f
	}
	if u, ok := p.PressureUnit(); ok {
		s := string(u)
		v.PressureUnit = &s
	}
	if e, ok := p.FlowrateExponent(); ok {
		v.FlowrateExponent = &e
	}
	return v
}

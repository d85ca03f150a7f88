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

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print current conditions, state, pump information and faults",
	Long: `Query the pump with cc, cs, pi and rf and print the decoded records.

Examples:
  pumpstat status --port /dev/ttyUSB0
  pumpstat status --simulate --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the records as JSON")
}

// pumpStatus groups every record the status command reads
type pumpStatus struct {
	Conditions nextgen.CurrentConditions `json:"conditions"`
	State      nextgen.CurrentState      `json:"state"`
	Info       nextgen.PumpInfo          `json:"info"`
	Faults     nextgen.Faults            `json:"faults"`
}

func readStatus(c *nextgen.Connection) (pumpStatus, error) {
	var st pumpStatus
	var err error

	if st.Conditions, err = c.CurrentConditions(); err != nil {
		return st, err
	}
	if st.State, err = c.CurrentState(); err != nil {
		return st, err
	}
	if st.Info, err = c.PumpInformation(); err != nil {
		return st, err
	}
	if st.Faults, err = c.ReadFaults(); err != nil {
		return st, err
	}
	return st, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var st pumpStatus
	if err := s.Do(func(c *nextgen.Connection) error {
		st, err = readStatus(c)
		return err
	}); err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	unit, _ := s.Profile().PressureUnit()
	fmt.Printf("Connection: %s\n\n", s.info)
	fmt.Print(nextgen.FormatConditions(st.Conditions, unit))
	fmt.Print(nextgen.FormatState(st.State))
	fmt.Print(nextgen.FormatPumpInfo(st.Info))
	fmt.Print(nextgen.FormatFaults(st.Faults))
	return nil
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

// pumpOp is a command that takes no argument and expects a bare OK
type pumpOp struct {
	use   string
	short string
	done  string
	call  func(c *nextgen.Connection) error
}

var pumpOps = []pumpOp{
	{"run", "Start the pump", "Pump running", (*nextgen.Connection).Run},
	{"stop", "Stop the pump", "Pump stopped", (*nextgen.Connection).Stop},
	{"clear-faults", "Clear latched faults", "Faults cleared", (*nextgen.Connection).ClearFaults},
	{"reset", "Reset the pump to factory settings", "Pump reset", (*nextgen.Connection).Reset},
	{"zero-seal", "Zero the seal life counter", "Seal counter zeroed", (*nextgen.Connection).ZeroSeal},
}

var keypadCmd = &cobra.Command{
	Use:   "keypad",
	Short: "Enable or disable the front panel keypad",
}

func init() {
	for _, op := range pumpOps {
		rootCmd.AddCommand(newOpCommand(op))
	}

	keypadCmd.AddCommand(newOpCommand(pumpOp{"enable", "Enable the keypad", "Keypad enabled", (*nextgen.Connection).KeypadEnable}))
	keypadCmd.AddCommand(newOpCommand(pumpOp{"disable", "Disable the keypad", "Keypad disabled", (*nextgen.Connection).KeypadDisable}))
	rootCmd.AddCommand(keypadCmd)
}

func newOpCommand(op pumpOp) *cobra.Command {
	return &cobra.Command{
		Use:   op.use,
		Short: op.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := OpenSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Do(op.call); err != nil {
				return err
			}
			fmt.Println(op.done)
			return nil
		},
	}
}

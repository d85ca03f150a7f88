// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

type setter func(c *nextgen.Connection, value string) error

func floatSetter(field string, set func(c *nextgen.Connection, v float64) error) setter {
	return func(c *nextgen.Connection, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &nextgen.ValidationError{Field: field, Value: value, Message: "not a number"}
		}
		return set(c, v)
	}
}

var setters = map[string]setter{
	"flowrate":     floatSetter("flowrate", (*nextgen.Connection).SetFlowrate),
	"compensation": floatSetter("compensation", (*nextgen.Connection).SetFlowrateCompensation),
	"upper-limit":  floatSetter("upper pressure limit", (*nextgen.Connection).SetUpperPressureLimit),
	"lower-limit":  floatSetter("lower pressure limit", (*nextgen.Connection).SetLowerPressureLimit),
	"leak-mode": func(c *nextgen.Connection, value string) error {
		mode, err := parseLeakMode(value)
		if err != nil {
			return err
		}
		return c.SetLeakMode(mode)
	},
	"solvent": func(c *nextgen.Connection, value string) error {
		return c.SetSolvent(value)
	},
}

// parseLeakMode accepts the mode number. Range checks happen in SetLeakMode.
func parseLeakMode(value string) (nextgen.LeakMode, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &nextgen.ValidationError{Field: "leak mode", Value: value, Message: "expected 0, 1 or 2"}
	}
	return nextgen.LeakMode(n), nil
}

func setterNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var setCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Change a pump setting",
	Long: `Change a pump setting.

Settings: ` + strings.Join(setterNames(), ", ") + `

Flowrate is in mL/min. Compensation is a factor between 0.85 and 1.15.
Pressure limits are in the unit the pump is configured for. Leak mode is
0 (sensor disabled), 1 (detected leak is not a fault) or 2 (detected leak
is a fault). Solvent takes a solvent name or a compressibility value.

Examples:
  pumpstat set flowrate 1.5 --port /dev/ttyUSB0
  pumpstat set solvent methanol --simulate`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	set, ok := setters[args[0]]
	if !ok {
		return fmt.Errorf("unknown setting %q (expected one of %s)", args[0], strings.Join(setterNames(), ", "))
	}

	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Do(func(c *nextgen.Connection) error {
		return set(c, args[1])
	}); err != nil {
		return err
	}
	fmt.Printf("%s set to %s\n", args[0], args[1])
	return nil
}

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

type getter func(c *nextgen.Connection) (string, error)

func pressureGetter(read func(c *nextgen.Connection) (float64, error)) getter {
	return func(c *nextgen.Connection) (string, error) {
		v, err := read(c)
		if err != nil {
			return "", err
		}
		unit, _ := c.Profile().PressureUnit()
		return nextgen.FormatPressure(v, unit), nil
	}
}

var getters = map[string]getter{
	"flowrate": func(c *nextgen.Connection) (string, error) {
		v, err := c.Flowrate()
		return fmt.Sprintf("%g mL/min", v), err
	},
	"pressure":    pressureGetter((*nextgen.Connection).Pressure),
	"upper-limit": pressureGetter((*nextgen.Connection).UpperPressureLimit),
	"lower-limit": pressureGetter((*nextgen.Connection).LowerPressureLimit),
	"compensation": func(c *nextgen.Connection) (string, error) {
		v, err := c.FlowrateCompensation()
		return strconv.FormatFloat(v, 'f', 3, 64), err
	},
	"strokes": func(c *nextgen.Connection) (string, error) {
		v, err := c.StrokeCounter()
		return strconv.Itoa(v), err
	},
	"leak": func(c *nextgen.Connection) (string, error) {
		v, err := c.LeakDetected()
		return strconv.FormatBool(v), err
	},
	"solvent": func(c *nextgen.Connection) (string, error) {
		v, err := c.Solvent()
		return strconv.Itoa(v), err
	},
	"running": func(c *nextgen.Connection) (string, error) {
		v, err := c.IsRunning()
		return strconv.FormatBool(v), err
	},
}

func getterNames() []string {
	names := make([]string, 0, len(getters))
	for name := range getters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var getCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Read a single value from the pump",
	Long: `Read a single value from the pump.

Settings: ` + strings.Join(getterNames(), ", ") + `

Pressures are printed in the unit the pump is configured for.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: getterNames(),
	RunE:      runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	get, ok := getters[args[0]]
	if !ok {
		return fmt.Errorf("unknown setting %q (expected one of %s)", args[0], strings.Join(getterNames(), ", "))
	}

	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var out string
	if err := s.Do(func(c *nextgen.Connection) error {
		out, err = get(c)
		return err
	}); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

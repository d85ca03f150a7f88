// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LeakMode selects how the pump reacts to its leak sensor
type LeakMode int

const (
	LeakSensorDisabled LeakMode = 0 // sensor ignored
	LeakNoFault        LeakMode = 1 // leak reported but the pump keeps running
	LeakFault          LeakMode = 2 // leak faults the pump
)

func (m LeakMode) String() string {
	switch m {
	case LeakSensorDisabled:
		return "leak sensor disabled"
	case LeakNoFault:
		return "detected leak does not cause fault"
	case LeakFault:
		return "detected leak does cause fault"
	}
	return fmt.Sprintf("unknown leak mode %d", int(m))
}

// Valid reports whether the pump accepts the mode
func (m LeakMode) Valid() bool {
	return m >= LeakSensorDisabled && m <= LeakFault
}

// EncodeLeakMode builds the lm command. Modes outside 0..2 are refused.
func EncodeLeakMode(mode LeakMode) (string, error) {
	if !mode.Valid() {
		return "", &ValidationError{Field: "leak mode", Value: int(mode), Message: "must be 0, 1 or 2"}
	}
	return CmdLeakMode + strconv.Itoa(int(mode)), nil
}

// solventCompressibility maps solvent names to compressibility in 10^-6 per bar
var solventCompressibility = map[string]int{
	"acetonitrile":    115,
	"hexane":          167,
	"isopropanol":     84,
	"methanol":        121,
	"tetrahydrofuran": 54,
	"water":           46,
}

// SolventCompressibility looks up a known solvent by name, ignoring case
func SolventCompressibility(name string) (int, bool) {
	v, ok := solventCompressibility[strings.ToLower(strings.TrimSpace(name))]
	return v, ok
}

// SolventNames returns the known solvent names in sorted order
func SolventNames() []string {
	names := make([]string, 0, len(solventCompressibility))
	for name := range solventCompressibility {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeSolvent builds the ss command. Known solvent names are replaced by
// their compressibility; anything else is sent as given and left for the
// pump to reject.
func EncodeSolvent(nameOrValue string) string {
	if v, ok := SolventCompressibility(nameOrValue); ok {
		return CmdSetSolvent + strconv.Itoa(v)
	}
	return CmdSetSolvent + nameOrValue
}

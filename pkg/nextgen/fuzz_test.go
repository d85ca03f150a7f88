// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nextgen

import (
	"errors"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

const commandAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789#,./:"

// randomCommand builds a printable command without carriage returns
func randomCommand(rng *rand.Rand) string {
	n := rng.Intn(12)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(commandAlphabet[rng.Intn(len(commandAlphabet))])
	}
	return b.String()
}

// randomResponse builds a response-like frame from random fields
func randomResponse(rng *rand.Rand) string {
	fields := make([]string, rng.Intn(20))
	for i := range fields {
		switch rng.Intn(5) {
		case 0:
			fields[i] = OKMarker
		case 1:
			fields[i] = strconv.Itoa(rng.Intn(2))
		case 2:
			fields[i] = strconv.FormatFloat(rng.Float64()*100, 'f', rng.Intn(4), 64)
		case 3:
			fields[i] = randomCommand(rng)
		case 4:
			fields[i] = ""
		}
	}
	return strings.Join(fields, ",") + "/"
}

// Decoders must return a record or a DecodeError for any input, never panic
func TestFuzzDecoders(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	units := []PressureUnit{PSI, Bar, MPa, ""}

	for i := 0; i < rounds; i++ {
		response := randomResponse(rng)

		errs := []error{}
		_, err := ParseCurrentConditions(response, units[rng.Intn(len(units))])
		errs = append(errs, err)
		_, err = ParseCurrentState(response, units[rng.Intn(len(units))])
		errs = append(errs, err)
		_, err = ParsePumpInfo(response)
		errs = append(errs, err)
		_, err = ParseFaults(response)
		errs = append(errs, err)
		_, err = parseFlowrateExponent(response)
		errs = append(errs, err)
		_, err = parseHead(response)
		errs = append(errs, err)

		for _, err := range errs {
			var decodeErr *DecodeError
			if err != nil && !errors.As(err, &decodeErr) {
				t.Fatalf("round %d: response %q gave non-decode error %T: %v", i, response, err, err)
			}
		}
	}
}

// Flowrates accepted by the encoder always produce fi followed by digits
func TestFuzzEncodeFlowrate(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		v := rng.Float64() * 100
		exp := FlowrateExponentTwoDecimals
		if rng.Intn(2) == 1 {
			exp = FlowrateExponentThreeDecimals
		}
		command, err := EncodeFlowrate(v, exp)
		if err != nil {
			t.Fatalf("round %d: EncodeFlowrate(%v, %d) failed: %v", i, v, exp, err)
		}
		digits := strings.TrimPrefix(command, CmdFlowrate)
		if _, err := strconv.ParseUint(digits, 10, 64); err != nil {
			t.Fatalf("round %d: EncodeFlowrate(%v, %d) = %q", i, v, exp, command)
		}
	}
}

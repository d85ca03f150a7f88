// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

var (
	rawRepeat   int
	rawInterval time.Duration
)

var rawCmd = &cobra.Command{
	Use:   "raw <command>...",
	Short: "Send raw protocol commands and print the responses",
	Long: `Send each command verbatim through the retrying engine and print the
response frame. Statistics for the session are printed at the end.

Device faults are printed and do not stop the remaining commands.

Examples:
  pumpstat raw cs pi --port /dev/ttyUSB0
  pumpstat raw cc --repeat 100 --interval 200ms --simulate`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
	rawCmd.Flags().IntVar(&rawRepeat, "repeat", 1, "Number of times to send the command list")
	rawCmd.Flags().DurationVar(&rawInterval, "interval", 0, "Delay between repetitions")
}

func runRaw(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Pumpstat - Raw Commands\n")
	fmt.Printf("Connection: %s\n\n", s.info)

	var lastErr error
	for i := 0; i < rawRepeat; i++ {
		if i > 0 && rawInterval > 0 {
			time.Sleep(rawInterval)
		}
		for _, command := range args {
			lastErr = sendRaw(s, command)
			var fault *nextgen.DeviceFaultError
			if lastErr != nil && !errors.As(lastErr, &fault) {
				fmt.Print("\n" + s.stats.String())
				return lastErr
			}
		}
	}

	fmt.Print("\n" + s.stats.String())
	return lastErr
}

func sendRaw(s *session, command string) error {
	timestamp := time.Now().Format("15:04:05.000")

	var response string
	err := s.Do(func(c *nextgen.Connection) error {
		var err error
		response, err = c.Send(command)
		return err
	})

	var fault *nextgen.DeviceFaultError
	switch {
	case errors.As(err, &fault):
		fmt.Printf("[%s] %-6s \033[1;31m%s\033[0m\n", timestamp, command, fault.Response)
	case err != nil:
		fmt.Printf("[%s] %-6s \033[1;31mERROR:\033[0m %v\n", timestamp, command, err)
	case response == "":
		fmt.Printf("[%s] %-6s (no response expected)\n", timestamp, command)
	default:
		fmt.Printf("[%s] %-6s %s\n", timestamp, command, response)
	}
	return err
}

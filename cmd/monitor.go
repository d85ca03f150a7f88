// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

var (
	monitorShowAll       bool
	monitorPollInterval  time.Duration
	monitorStatsInterval time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll the pump and report faults and communication errors",
	Long: `Poll current conditions and faults at a fixed interval.

This command detects:
  - Latched pump faults (motor stall, upper and lower pressure limit)
  - Commands the pump rejects
  - Commands with no response after every retry
  - Malformed responses

By default, only problems are displayed. Use --show-all to display every
reading. Statistics summaries are printed periodically.

Press Ctrl+C to exit.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorShowAll, "show-all", false, "Show every reading (not just errors)")
	monitorCmd.Flags().DurationVar(&monitorPollInterval, "interval", time.Second, "Polling interval")
	monitorCmd.Flags().DurationVar(&monitorStatsInterval, "stats-interval", 10*time.Second, "Statistics update interval")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Pumpstat - Fault Monitor\n")
	fmt.Printf("Connection: %s\n", s.info)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	unit, _ := s.Profile().PressureUnit()
	poll := time.NewTicker(monitorPollInterval)
	defer poll.Stop()
	statsTicker := time.NewTicker(monitorStatsInterval)
	defer statsTicker.Stop()

	var lastFaults nextgen.Faults
	for {
		select {
		case <-ctx.Done():
			s.stats.CalculateRates()
			fmt.Print("\n" + s.stats.String())
			return nil

		case <-statsTicker.C:
			s.stats.CalculateRates()
			fmt.Print(s.stats.String() + "\n")

		case <-poll.C:
			var (
				cond   nextgen.CurrentConditions
				faults nextgen.Faults
			)
			err := s.Do(func(c *nextgen.Connection) error {
				var err error
				if cond, err = c.CurrentConditions(); err != nil {
					return err
				}
				faults, err = c.ReadFaults()
				return err
			})
			if err != nil {
				printCommError(err)
				continue
			}

			if faults.Any() && faults != lastFaults {
				printFaults(faults)
			} else if !faults.Any() && lastFaults.Any() {
				printTimestamped("\033[1;32mFAULTS CLEARED\033[0m\n")
			}
			lastFaults = faults

			if monitorShowAll {
				printTimestamped(nextgen.FormatConditions(cond, unit))
			}
		}
	}
}

func printTimestamped(text string) {
	fmt.Printf("[%s] %s", time.Now().Format("15:04:05.000"), text)
}

// printCommError prints a communication error in highlighted format
func printCommError(err error) {
	printTimestamped(fmt.Sprintf("\033[1;31mCOMMAND FAILED:\033[0m %v\n", err))
}

// printFaults prints newly latched faults
func printFaults(f nextgen.Faults) {
	printTimestamped("\033[1;33mPUMP FAULT:\033[0m " + nextgen.FormatFaults(f))
}

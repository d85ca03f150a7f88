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
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by repeatedly querying the pump identity",
	Long: `Send the id command repeatedly and report round trip times.

Each ping goes through the retrying engine, so a ping only fails after every
retry has come back empty. Retries are reported in the statistics summary.

Useful for testing serial adapters, serial servers and WebSocket bridges.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

// errPingLoss is returned when at least one ping failed
var errPingLoss = errors.New("ping loss")

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between pings")
}

func runPing(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Pumpstat - Ping Test\n")
	fmt.Printf("Connection: %s\n", s.info)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		start := time.Now()
		var response string
		err := s.Do(func(c *nextgen.Connection) error {
			var err error
			response, err = c.Send(nextgen.CmdIdentify)
			return err
		})
		rtt := time.Since(start)

		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			fmt.Printf("%s rtt=%v\n", response, rtt.Round(time.Millisecond))
			successCount++
		}

		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	failCount := pingCount - successCount
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)
	fmt.Print(s.stats.String())

	if failCount > 0 {
		return errPingLoss
	}
	return nil
}

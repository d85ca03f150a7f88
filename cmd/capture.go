// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/capture"
)

var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Print the frames stored in a capture file",
	Long: `Decode a CBOR capture file written with --capture and print every frame
with its timestamp and direction.

A capture can be replayed against the CLI with --replay <file>.`,
	Args: cobra.ExactArgs(1),
	// Reading a file needs no config or device
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := capture.ReadAll(f)
	if err != nil {
		return err
	}
	return printCapture(os.Stdout, records)
}

// printCapture writes one line per record, grouping by session
func printCapture(w io.Writer, records []capture.Record) error {
	session := ""
	for _, r := range records {
		if r.Session != session {
			session = r.Session
			if _, err := fmt.Fprintf(w, "--- session %s ---\n", session); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "[%s] %s %s\n",
			r.At().Format("15:04:05.000"), r.Direction, strconv.Quote(string(r.Data))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d records\n", len(records))
	return err
}

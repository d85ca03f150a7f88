// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

var controlPollInterval time.Duration

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling the pump",
	Long: `Control the pump via an interactive terminal UI.

The console polls current conditions, state, pump information and faults
and shows them alongside protocol statistics and an event log.

Keys:
  r - run             s - stop
  c - clear faults    k - toggle keypad
  f - edit flowrate   q - quit

While editing the flowrate, Enter sends the new value and Esc cancels.

Supports serial, socket, WebSocket and simulated connections.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().DurationVar(&controlPollInterval, "interval", time.Second, "Polling interval")
}

func runControl(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	p := tea.NewProgram(initialControlModel(s, controlPollInterval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Pump Commands
//////////////////////////////////////////////////////////////

// pollCmd reads every status record in one locked exchange
func pollCmd(s *session) tea.Cmd {
	return func() tea.Msg {
		var st pumpStatus
		err := s.Do(func(c *nextgen.Connection) error {
			var err error
			st, err = readStatus(c)
			return err
		})
		return pollResultMsg{status: st, err: err}
	}
}

// actionCmd runs a single pump command off the UI goroutine
func actionCmd(s *session, name string, fn func(c *nextgen.Connection) error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{name: name, err: s.Do(fn)}
	}
}

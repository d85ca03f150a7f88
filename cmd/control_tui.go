// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/pumpstat/pkg/nextgen"
)

//////////////////////////////////////////////////////////////
// Styles
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("12"))
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// logEntry is one line of the event log
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// controlModel is the Bubble Tea model for the control TUI
type controlModel struct {
	session  *session
	interval time.Duration
	unit     nextgen.PressureUnit

	// Latest poll
	status    pumpStatus
	hasStatus bool
	polling   bool
	pollErr   error

	// Pending action, shown with the spinner
	pending string
	spinner spinner.Model

	// Flowrate editor
	flowInput textinput.Model
	editing   bool

	eventLog      []logEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type controlTickMsg time.Time

type pollResultMsg struct {
	status pumpStatus
	err    error
}

type actionResultMsg struct {
	name string
	err  error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialControlModel(s *session, interval time.Duration) controlModel {
	ti := textinput.New()
	ti.Placeholder = "1.000"
	ti.CharLimit = 8
	ti.Width = 10

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = warningStyle

	unit, _ := s.Profile().PressureUnit()

	m := controlModel{
		session:       s,
		interval:      interval,
		unit:          unit,
		spinner:       sp,
		flowInput:     ti,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.addLogEntry("Connected to "+s.info, false)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m controlModel) Init() tea.Cmd {
	return tea.Batch(controlTickCmd(m.interval), m.spinner.Tick)
}

func controlTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return controlTickMsg(t)
	})
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case controlTickMsg:
		m.session.stats.CalculateRates()
		cmds := []tea.Cmd{controlTickCmd(m.interval)}
		if !m.polling {
			m.polling = true
			cmds = append(cmds, pollCmd(m.session))
		}
		return m, tea.Batch(cmds...)

	case pollResultMsg:
		m.handlePoll(msg)

	case actionResultMsg:
		m.pending = ""
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s failed: %v", msg.name, msg.err), true)
		} else {
			m.addLogEntry(msg.name+" OK", false)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *controlModel) handlePoll(msg pollResultMsg) {
	m.polling = false

	if msg.err != nil {
		// Only log transitions so a disconnected pump does not flood the log
		if m.pollErr == nil || m.pollErr.Error() != msg.err.Error() {
			m.addLogEntry(fmt.Sprintf("Poll failed: %v", msg.err), true)
		}
		m.pollErr = msg.err
		return
	}
	if m.pollErr != nil {
		m.addLogEntry("Communication restored", false)
		m.pollErr = nil
	}

	prev := m.status.Faults
	if msg.status.Faults.Any() && (!m.hasStatus || msg.status.Faults != prev) {
		m.addLogEntry(strings.TrimSpace(nextgen.FormatFaults(msg.status.Faults)), true)
	}
	m.status = msg.status
	m.hasStatus = true
}

func (m controlModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "r":
		return m.startAction("Run", (*nextgen.Connection).Run)

	case "s":
		return m.startAction("Stop", (*nextgen.Connection).Stop)

	case "c":
		return m.startAction("Clear faults", (*nextgen.Connection).ClearFaults)

	case "k":
		if m.hasStatus && m.status.Info.KeypadEnabled {
			return m.startAction("Keypad disable", (*nextgen.Connection).KeypadDisable)
		}
		return m.startAction("Keypad enable", (*nextgen.Connection).KeypadEnable)

	case "f":
		m.editing = true
		m.flowInput.SetValue("")
		if m.hasStatus {
			m.flowInput.SetValue(strconv.FormatFloat(m.status.State.Flowrate, 'f', -1, 64))
		}
		m.flowInput.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m controlModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.flowInput.Blur()
		return m, nil

	case "enter":
		m.editing = false
		m.flowInput.Blur()
		value, err := strconv.ParseFloat(strings.TrimSpace(m.flowInput.Value()), 64)
		if err != nil {
			m.addLogEntry(fmt.Sprintf("Invalid flowrate %q", m.flowInput.Value()), true)
			return m, nil
		}
		return m.startAction(fmt.Sprintf("Set flowrate %g", value), func(c *nextgen.Connection) error {
			return c.SetFlowrate(value)
		})

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.flowInput, cmd = m.flowInput.Update(msg)
	return m, cmd
}

func (m controlModel) startAction(name string, fn func(c *nextgen.Connection) error) (tea.Model, tea.Cmd) {
	if m.pending != "" {
		m.addLogEntry(fmt.Sprintf("Busy with %s, ignoring %s", m.pending, name), true)
		return m, nil
	}
	m.pending = name
	return m, actionCmd(m.session, name, fn)
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("PUMPSTAT CONTROL"))
	s.WriteString(" ")
	connStatus := m.session.info
	if m.pollErr != nil {
		connStatus = warningStyle.Render("NO RESPONSE")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | r=run s=stop c=clear k=keypad f=flowrate q=quit", connStatus)))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderProfilePanel(), " ", m.renderPumpPanel()))
	s.WriteString("\n")
	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())

	return s.String()
}

//////////////////////////////////////////////////////////////
// View Helpers
//////////////////////////////////////////////////////////////

func (m controlModel) renderProfilePanel() string {
	p := m.session.Profile()

	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("PUMP"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Head:     %s\n", optionalValue(p.Head())))
	if v, ok := p.MaxFlowrate(); ok {
		s.WriteString(fmt.Sprintf("Max flow: %g mL/min\n", v))
	}
	if v, ok := p.MaxPressure(); ok {
		s.WriteString(fmt.Sprintf("Max P:    %s\n", nextgen.FormatPressure(v, m.unit)))
	} else {
		s.WriteString("Max P:    no sensor\n")
	}
	fw, _ := p.FirmwareVersion()
	s.WriteString(headerStyle.Render(fw))

	return boxStyle.Width(30).Render(s.String())
}

func (m controlModel) renderPumpPanel() string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("STATUS"))
	if m.pending != "" {
		s.WriteString(fmt.Sprintf("  %s %s", m.spinner.View(), m.pending))
	}
	s.WriteString("\n")

	if !m.hasStatus {
		s.WriteString(headerStyle.Render("Waiting for first poll..."))
		return boxStyle.Width(m.rightWidth()).Render(s.String())
	}

	st := m.status
	running := statsValueStyle.Render("RUNNING")
	if !st.State.IsRunning {
		running = warningStyle.Render("STOPPED")
	}
	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("State:"), running))

	s.WriteString(statsLabelStyle.Render("Flowrate: "))
	if m.editing {
		s.WriteString(m.flowInput.View())
	} else {
		s.WriteString(statsValueStyle.Render(fmt.Sprintf("%.3f mL/min", st.State.Flowrate)))
	}
	s.WriteString("\n")

	s.WriteString(fmt.Sprintf("%s %s  %s %s - %s\n",
		statsLabelStyle.Render("Pressure:"),
		statsValueStyle.Render(nextgen.FormatPressure(st.Conditions.Pressure, m.unit)),
		statsLabelStyle.Render("Limits:"),
		nextgen.FormatPressure(st.State.LowerLimit, m.unit),
		nextgen.FormatPressure(st.State.UpperLimit, m.unit)))

	keypad := "disabled"
	if st.Info.KeypadEnabled {
		keypad = "enabled"
	}
	s.WriteString(fmt.Sprintf("%s %s  %s %g\n",
		statsLabelStyle.Render("Keypad:"), keypad,
		statsLabelStyle.Render("Compensation:"), st.Info.PressureCompensation))

	faults := strings.TrimSpace(nextgen.FormatFaults(st.Faults))
	if st.Faults.Any() {
		s.WriteString(errorStyle.Render(faults))
	} else {
		s.WriteString(statsValueStyle.Render(faults))
	}

	style := boxStyle
	if m.editing {
		style = focusedBoxStyle
	}
	return style.Width(m.rightWidth()).Render(s.String())
}

func (m controlModel) rightWidth() int {
	w := m.width - 30 - 6
	if w < 30 {
		w = 30
	}
	return w
}

func (m controlModel) renderStatisticsBar() string {
	snap := m.session.stats.Snapshot()

	var successPercent float64
	if snap.TotalCommands > 0 {
		successPercent = float64(snap.Successful) * 100.0 / float64(snap.TotalCommands)
	}
	failures := snap.DeviceFaults + snap.NoResponses

	failText := statsValueStyle.Render("0")
	if failures > 0 {
		failText = errorStyle.Render(strconv.FormatUint(failures, 10))
	}

	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Commands:"), statsValueStyle.Render(strconv.FormatUint(snap.TotalCommands, 10)),
		statsLabelStyle.Render("OK:"), statsValueStyle.Render(fmt.Sprintf("%.1f%%", successPercent)),
		statsLabelStyle.Render("Failed:"), failText,
		statsLabelStyle.Render("Retries:"), statsValueStyle.Render(strconv.FormatUint(snap.Retries, 10)),
		statsLabelStyle.Render("Latency:"), statsValueStyle.Render(snap.AverageLatency().Round(time.Millisecond).String()),
	)
	return boxStyle.Width(m.width - 4).Render(content)
}

func (m controlModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	for i := startIdx; i < len(m.eventLog); i++ {
		entry := m.eventLog[i]
		icon := "i"
		style := warningStyle
		if entry.isError {
			icon = "x"
			style = errorStyle
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message))
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *controlModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func optionalValue(v string, ok bool) string {
	if !ok {
		return "unknown"
	}
	return v
}

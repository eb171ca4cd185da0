// ABOUTME: Bubbletea model for the wallpaper audio status view
// ABOUTME: Shows output format, registered streams, levels and mix stats
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/livepaper/livepaper-go/internal/app"
)

// StatusMsg replaces the displayed runtime status
type StatusMsg app.Status

// Model represents the TUI state
type Model struct {
	status   app.Status
	received bool

	// local copies so key presses respond before the next status push
	volume int
	muted  bool

	showDebug bool
	quitting  bool

	volumeCtrl *VolumeControl

	width  int
	height int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	streamHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping audio...\n"
	}
	if m.width == 0 || !m.received {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderStreams())
	b.WriteString(m.renderStats())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(helpStyle.Render("↑/↓:Volume  m:Mute  d:Debug  q:Quit"))
	return b.String()
}

// renderHeader renders product, device and format
func (m Model) renderHeader() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", m.status.Product, m.status.Version)))
	b.WriteString("\n\n")

	device := m.status.Driver
	if m.status.Silent {
		device += warnStyle.Render(" (no audio device, running silent)")
	}
	b.WriteString(headerStyle.Render("Output: "))
	b.WriteString(valueStyle.Render(device))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Format: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%dHz %s (%s)",
		m.status.SampleRate, channelName(m.status.Channels), m.status.Format)))
	b.WriteString("\n")
	return b.String()
}

// renderControls renders master volume and mute
func (m Model) renderControls() string {
	muteText := ""
	if m.muted {
		muteText = warnStyle.Render(" muted")
	}

	return headerStyle.Render("Volume: ") +
		valueStyle.Render(fmt.Sprintf("[%s] %d%%", renderBar(m.volume, 100, 10), m.volume)) +
		muteText + "\n\n"
}

// renderStreams lists the registered streams
func (m Model) renderStreams() string {
	var b strings.Builder

	b.WriteString(streamHeaderStyle.Render(fmt.Sprintf("Streams (%d)", len(m.status.Streams))))
	b.WriteString("\n")

	if len(m.status.Streams) == 0 {
		b.WriteString(valueStyle.Render("  No wallpaper audio"))
		b.WriteString("\n")
	}
	for _, s := range m.status.Streams {
		b.WriteString(fmt.Sprintf("  • %s", truncate(s.Name, 32)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" (vol %d%%, underruns %d)", s.Volume, s.Underruns)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// renderStats renders mix statistics
func (m Model) renderStats() string {
	s := headerStyle.Render("Stats: ") +
		valueStyle.Render(fmt.Sprintf("passes %d  underruns %d  retired %d (%d ended)",
			m.status.Passes, m.status.Underruns, m.status.Retired, m.status.Exhausted)) + "\n"

	if m.status.LastError != "" {
		s += warnStyle.Render(fmt.Sprintf("Errors: %d (last: %s)", m.status.Errors, truncate(m.status.LastError, 60))) + "\n"
	}
	return s + "\n"
}

// renderDebug renders stream handles
func (m Model) renderDebug() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Debug:"))
	b.WriteString("\n")
	for _, s := range m.status.Streams {
		b.WriteString(valueStyle.Render(fmt.Sprintf("  %s  %s", s.Handle, s.Name)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.sendVolume()
	case "down":
		m.volume = max(m.volume-5, 0)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// sendVolume forwards the current levels without blocking the UI
func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.status = app.Status(msg)
	m.volume = msg.Volume
	m.muted = msg.Muted
	m.received = true
}

func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

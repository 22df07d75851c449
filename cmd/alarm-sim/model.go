package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/mqtt"
)

var (
	faceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF3B30")).
			Background(lipgloss.Color("#111111")).
			Padding(1, 3).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E5E5")).Bold(true)
	ringStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3B30")).Bold(true)
)

const eventLines = 6

type tickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// model is the Bubble Tea model of the simulator.
type model struct {
	sim  *sim
	keys keyMap
	help help.Model
	err  error
}

func newModel(ctx context.Context, o options, now time.Time) (model, error) {
	s, err := newSim(ctx, o, now)
	if err != nil {
		return model{}, err
	}
	return model{sim: s, keys: defaultKeyMap(), help: help.New()}, nil
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tickCmd(m.sim.tick)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if err := m.sim.step(); err != nil {
			m.err = err
			return m, tea.Quit
		}
		return m, tickCmd(m.sim.tick)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sim
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Mode):
		s.click(logic.ButtonMode)
	case key.Matches(msg, m.keys.Set):
		s.click(logic.ButtonSet)
	case key.Matches(msg, m.keys.Up):
		s.click(logic.ButtonUp)
	case key.Matches(msg, m.keys.Down):
		s.click(logic.ButtonDown)
	case key.Matches(msg, m.keys.Snooze):
		s.click(logic.ButtonSnooze)
	case key.Matches(msg, m.keys.Nap):
		s.longPress(logic.ButtonSnooze)
	case key.Matches(msg, m.keys.Finish):
		s.player.Finish()
	case key.Matches(msg, m.keys.Minute):
		s.clock.Advance(time.Minute)
	case key.Matches(msg, m.keys.Hour):
		s.clock.Advance(time.Hour)
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	s := m.sim
	f := s.rt.Last()
	v := f.View

	var b strings.Builder
	b.WriteString(faceStyle.Render(drawFace(f.Face.Visible(s.at))))
	b.WriteString("\n\n")

	state := valueStyle.Render(v.State.String())
	if v.State.IsRinging() {
		state = ringStyle.Render(v.State.String())
	}
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + value + "\n")
	}
	row("state", state)
	row("clock", valueStyle.Render(s.clock.Now().Format("Mon 2006-01-02 15:04:05")))
	row("volume", valueStyle.Render(fmt.Sprint(v.Settings.Volume)))
	for i, a := range v.Settings.Alarms {
		row("alarm "+logic.AlarmID(i).String(), valueStyle.Render(formatAlarm(a, v.Latches[i])))
	}
	row("playing", valueStyle.Render(formatTrack(s.player.Current())))
	if v.State == logic.StateNapCounting {
		row("nap", valueStyle.Render(v.Nap.Remaining(s.clock.Now()).Truncate(time.Second).String()))
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("events") + "\n")
	for _, line := range lastEvents(s.pub.Events, eventLines) {
		b.WriteString("  " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func formatAlarm(a logic.Alarm, latched bool) string {
	on := "off"
	if a.Enabled {
		on = "on"
	}
	out := fmt.Sprintf("%02d:%02d %s track %d", a.Hour, a.Minute, on, a.Track)
	if a.Weekend {
		out += " +weekend"
	}
	if latched {
		out += " (done)"
	}
	return out
}

func formatTrack(track int) string {
	if track < 0 {
		return "-"
	}
	return fmt.Sprintf("track %d", track)
}

func lastEvents(events []mqtt.Event, n int) []string {
	if len(events) > n {
		events = events[len(events)-n:]
	}
	out := make([]string, 0, len(events))
	for _, e := range events {
		line := e.Timestamp.Format("15:04:05") + " " + string(e.Type)
		if e.Source != "" {
			line += " " + e.Source
		}
		out = append(out, line)
	}
	return out
}

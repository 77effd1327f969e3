// Package display implements the terminal dashboard: one row per tuner,
// each with a signal-level bar and a signal-quality bar, repainted as
// RTCP telemetry arrives. Built on bubbletea/lipgloss in place of the
// original's rich-based Live/Progress dashboard.
package display

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var borderColors = []lipgloss.Color{
	lipgloss.Color("9"),  // bright red
	lipgloss.Color("12"), // bright blue
	lipgloss.Color("13"), // bright magenta
	lipgloss.Color("14"), // bright cyan
	lipgloss.Color("10"), // bright green
	lipgloss.Color("11"), // bright yellow
}

const barWidth = 30

// UpdateFunc is returned by Register; the RtpReceiver's RTCP sink calls
// it once per decoded telemetry report.
type UpdateFunc func(levelPct, qualityPct int)

type tunerRow struct {
	label      string
	levelPct   int
	qualityPct int
}

type updateMsg struct {
	index      int
	levelPct   int
	qualityPct int
}

type model struct {
	mu   *sync.Mutex
	rows []*tunerRow
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case updateMsg:
		m.mu.Lock()
		if msg.index >= 0 && msg.index < len(m.rows) {
			m.rows[msg.index].levelPct = msg.levelPct
			m.rows[msg.index].qualityPct = msg.qualityPct
		}
		m.mu.Unlock()
	}
	return m, nil
}

func (m model) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	for i, row := range m.rows {
		color := borderColors[i%len(borderColors)]
		border := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(color).Padding(0, 1)
		title := fmt.Sprintf("Tuner %d (%s)", i+1, row.label)
		body := fmt.Sprintf("Signal  %s %3d%%\nQuality %s %3d%%",
			bar(row.levelPct), row.levelPct, bar(row.qualityPct), row.qualityPct)
		b.WriteString(border.Render(title + "\n" + body))
		b.WriteString("\n")
	}
	b.WriteString("press q to quit\n")
	return b.String()
}

func bar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * barWidth / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}

// Display owns the bubbletea program and the per-tuner row state it
// repaints at bubbletea's default frame rate.
type Display struct {
	mu      sync.Mutex
	program *tea.Program
	model   model
	started bool
}

// New creates an empty Display. Register must be called once per tuner
// before Start.
func New() *Display {
	m := model{mu: &sync.Mutex{}}
	return &Display{model: m}
}

// Register adds one tuner row labeled per the ChannelSpec's Label() and
// returns the UpdateFunc its RTCP sink should call. Must not be called
// after Start.
func (d *Display) Register(label string) UpdateFunc {
	d.mu.Lock()
	defer d.mu.Unlock()

	index := len(d.model.rows)
	d.model.rows = append(d.model.rows, &tunerRow{label: label})

	return func(levelPct, qualityPct int) {
		d.mu.Lock()
		program := d.program
		d.mu.Unlock()
		if program == nil {
			return
		}
		program.Send(updateMsg{index: index, levelPct: levelPct, qualityPct: qualityPct})
	}
}

// Start launches the bubbletea program in a background goroutine.
func (d *Display) Start() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.program = tea.NewProgram(d.model)
	program := d.program
	d.mu.Unlock()

	go func() {
		_, _ = program.Run()
	}()
}

// Close quits the bubbletea program, restoring the terminal. Safe to
// call from a signal handler and safe to call more than once.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.program == nil {
		return
	}
	d.program.Quit()
	d.program = nil
}

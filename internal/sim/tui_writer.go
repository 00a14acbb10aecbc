package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"cloudsim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// batchMsg carries one tick's events into the TUI model.
type batchMsg struct{ events []telemetry.MetricEvent }

// TUIWriter renders the latest value of every metric in a terminal table.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. When the
// user quits the TUI, the process receives an interrupt so the scheduler
// shuts down cleanly.
func NewTUIWriter() *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements MetricWriter.
func (w *TUIWriter) Write(ev telemetry.MetricEvent) error {
	w.program.Send(batchMsg{events: []telemetry.MetricEvent{ev}})
	return nil
}

// WriteBatch implements batch mode so the table refreshes once per tick.
func (w *TUIWriter) WriteBatch(events []telemetry.MetricEvent) error {
	w.program.Send(batchMsg{events: events})
	return nil
}

// Close stops the TUI without signaling the process.
func (w *TUIWriter) Close() {
	w.sendSignal.Store(false)
	if p, ok := w.program.(*tea.Program); ok {
		p.Quit()
		<-w.done
	}
}

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tuiBorderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	tuiFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tuiRow struct {
	value float64
	unit  telemetry.Unit
	attrs string
	ts    time.Time
}

type tuiModel struct {
	table    table.Model
	latest   map[string]tuiRow
	events   int
	lastTick time.Time
	width    int
}

func newTUIModel() tuiModel {
	columns := []table.Column{
		{Title: "Metric", Width: 38},
		{Title: "Value", Width: 14},
		{Title: "Unit", Width: 8},
		{Title: "Attributes", Width: 32},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(24),
	)
	return tuiModel{table: t, latest: make(map[string]tuiRow)}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(msg.Height - 6)
	case batchMsg:
		for _, ev := range msg.events {
			key := ev.Name + "|" + attrSummary(ev.Attributes)
			m.latest[key] = tuiRow{value: ev.Value, unit: ev.Unit, attrs: attrSummary(ev.Attributes), ts: ev.Timestamp}
			m.events++
			if ev.Timestamp.After(m.lastTick) {
				m.lastTick = ev.Timestamp
			}
		}
		m.refreshRows()
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *tuiModel) refreshRows() {
	keys := make([]string, 0, len(m.latest))
	for k := range m.latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		r := m.latest[k]
		name, _, _ := strings.Cut(k, "|")
		rows = append(rows, table.Row{name, fmt.Sprintf("%.3f", r.value), string(r.unit), r.attrs})
	}
	m.table.SetRows(rows)
}

func (m tuiModel) View() string {
	title := tuiTitleStyle.Render("cloudsim telemetry")
	footer := fmt.Sprintf("events=%d last_tick=%s  press q to quit",
		m.events, m.lastTick.Format(time.RFC3339))
	if m.width > 0 {
		footer = wordwrap.String(footer, m.width)
	}
	return title + "\n" + tuiBorderStyle.Render(m.table.View()) + "\n" + tuiFooterStyle.Render(footer)
}

func attrSummary(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	return strings.Join(parts, ",")
}

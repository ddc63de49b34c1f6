// Package tui is the terminal front end: a preset menu and a live view that
// steps a circuit engine from bubbletea's update loop.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/thermal"
)

const (
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model shows one engine. The engine is only touched from Update, so it is
// never stepped concurrently.
type Model struct {
	engine   *sim.Engine
	dt       float64
	duration float64
	running  bool
	selected int
	temps    map[string][]float64
	theme    Theme
	styles   styles
	showHelp bool
	width    int
	message  string
}

// NewModel wraps e. A positive duration ends the run once elapsed time reaches it.
func NewModel(e *sim.Engine, dt, duration float64) Model {
	theme := ThemeCyberpunk
	return Model{
		engine:   e,
		dt:       dt,
		duration: duration,
		temps:    make(map[string][]float64),
		theme:    theme,
		styles:   newStyles(theme),
		width:    100,
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.engine.Stop()
			return m, tea.Quit
		case " ":
			m.toggle()
		case "r":
			m.engine.Reset()
			m.temps = make(map[string][]float64)
			m.running = false
			m.message = "reset"
		case "tab":
			m.cycle()
		case "up", "k":
			m.adjust(1.05)
		case "down", "j":
			m.adjust(0.95)
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) toggle() {
	if m.running {
		m.engine.Stop()
		m.running = false
		m.message = "paused"
		return
	}
	if !m.engine.Start() {
		m.message = "validation failed"
		return
	}
	m.running = true
	m.message = ""
}

func (m *Model) step() {
	m.engine.Step(m.dt)
	for _, c := range m.engine.Project().Components {
		h := append(m.temps[c.Label], c.Runtime.Temperature)
		if len(h) > historyCapacity {
			h = h[1:]
		}
		m.temps[c.Label] = h
	}
	st := m.engine.State()
	if m.duration > 0 && st.ElapsedTime >= m.duration-1e-9 {
		m.engine.Stop()
		m.running = false
		m.message = "complete"
	} else if !st.Running {
		m.running = false
	}
}

func (m *Model) cycle() {
	comps := m.engine.Project().Components
	if len(comps) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(comps)
	m.engine.SelectComponent(comps[m.selected].ID)
}

func (m Model) current() *circuit.Component {
	comps := m.engine.Project().Components
	if m.selected < 0 || m.selected >= len(comps) {
		return nil
	}
	return comps[m.selected]
}

// primaryParam is the first property name of c in sorted order.
func primaryParam(c *circuit.Component) (string, float64, bool) {
	params := c.Props.Params()
	if len(params) == 0 {
		return "", 0, false
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0], params[keys[0]], true
}

func (m *Model) adjust(factor float64) {
	c := m.current()
	if c == nil {
		return
	}
	name, v, ok := primaryParam(c)
	if !ok {
		return
	}
	if !m.engine.UpdateComponent(c.ID, map[string]any{name: v * factor}) {
		m.message = "rejected " + name
	}
}

func (m Model) status() string {
	st := m.engine.State()
	switch {
	case m.running:
		return "RUNNING"
	case st.Complete || m.message == "complete":
		return "COMPLETE"
	case st.StepCount > 0:
		return "PAUSED"
	default:
		return "READY"
	}
}

func (m Model) View() string {
	p := m.engine.Project()
	st := m.engine.State()
	s := m.styles

	var b strings.Builder
	b.WriteString(s.header.Render(strings.ToUpper(p.Name)) + "\n")
	b.WriteString(fmt.Sprintf("%s  t=%.2fs  steps=%d", m.status(), st.ElapsedTime, st.StepCount))
	if !st.LastSolve.Converged && st.StepCount > 0 {
		b.WriteString(s.muted.Render(fmt.Sprintf("  (solver capped at %d iterations)", st.LastSolve.Iterations)))
	}
	b.WriteString("\n")
	if m.duration > 0 {
		b.WriteString(ProgressBar(m.theme, st.ElapsedTime/m.duration, 40) + "\n")
	}
	if m.message != "" {
		b.WriteString(s.muted.Render(m.message) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(s.label.Render("component") + fmt.Sprintf("%10s %10s %10s %10s  %-8s %s\n", "T (°C)", "I (A)", "V (V)", "P (W)", "warning", "trend"))
	for i, c := range p.Components {
		rt := c.Runtime
		row := fmt.Sprintf("%10.2f %10.4g %10.4g %10.4g  %-8s %s",
			rt.Temperature, rt.Current, rt.VoltageDrop, rt.Power, rt.Warning, Sparkline(m.temps[c.Label], 16))
		if rt.Failed {
			row += " FAILED (" + string(rt.FailureKind) + ")"
		}
		label := c.Label
		if i == m.selected {
			label = s.selected.Render("> " + label)
		} else {
			label = s.label.Render("  " + label)
		}
		b.WriteString(lipgloss.NewStyle().Width(12).Render(label) + WarningStyle(m.theme, rt.Warning).Render(row) + "\n")
	}

	if c := m.current(); c != nil {
		if name, v, ok := primaryParam(c); ok {
			b.WriteString("\n" + s.label.Render(name) + s.value.Render(fmt.Sprintf("%.4g", v)) + "\n")
		}
		if h := m.temps[c.Label]; len(h) > 1 {
			chart := asciigraph.Plot(h, asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption(c.Label+" temperature"))
			b.WriteString(s.graph.Render(chart) + "\n")
		}
	}

	for _, e := range st.Errors {
		b.WriteString(WarningStyle(m.theme, thermal.WarningCritical).Render("error: "+e) + "\n")
	}
	if m.showHelp {
		b.WriteString(s.help.Render("space: run/pause  r: reset  tab: select  ↑↓: tune ±5%  t: theme  q: quit"))
	} else {
		b.WriteString(s.help.Render("?: help"))
	}
	return s.panel.Render(b.String())
}

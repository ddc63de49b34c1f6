package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/emsim/internal/automation"
	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/sim"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newLive(t *testing.T) Model {
	t.Helper()
	cfg, err := config.GetPreset("divider")
	if err != nil {
		t.Fatal(err)
	}
	e, err := automation.Build(cfg, catalog.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(e, 0.1, 0.5)
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestLiveRunsToCompletion(t *testing.T) {
	m := newLive(t)
	if m.status() != "READY" {
		t.Errorf("expected READY, got %s", m.status())
	}

	m = send(m, key(" "))
	if !m.running {
		t.Fatal("expected running after space")
	}
	for i := 0; i < 8; i++ {
		m = send(m, TickMsg{})
	}

	st := m.engine.State()
	if st.StepCount != 5 {
		t.Errorf("expected 5 steps, got %d", st.StepCount)
	}
	if m.running || m.status() != "COMPLETE" {
		t.Errorf("expected COMPLETE, got %s", m.status())
	}
	if len(m.temps["R1"]) != 5 {
		t.Errorf("expected 5 temperature readings, got %d", len(m.temps["R1"]))
	}
}

func TestLivePauseAndReset(t *testing.T) {
	m := newLive(t)
	m = send(m, key(" "), TickMsg{}, TickMsg{}, key(" "), TickMsg{})
	if m.running || m.engine.State().StepCount != 2 {
		t.Errorf("expected paused after 2 steps, got %d", m.engine.State().StepCount)
	}
	if m.status() != "PAUSED" {
		t.Errorf("expected PAUSED, got %s", m.status())
	}

	m = send(m, key("r"))
	if m.engine.State().StepCount != 0 || len(m.temps) != 0 {
		t.Error("expected reset to clear steps and history")
	}
}

func TestLiveAdjust(t *testing.T) {
	m := newLive(t)
	m = send(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyUp})

	r1 := m.engine.Project().ComponentByLabel("R1")
	if got := r1.Props.Params()["resistance"]; got != 1050 {
		t.Errorf("expected 1050 ohm, got %g", got)
	}
	if m.engine.Project().Selection.ComponentID != r1.ID {
		t.Error("expected R1 selected")
	}
}

func TestLiveInvalidCircuit(t *testing.T) {
	e := sim.New(catalog.Default(), "empty", circuit.DefaultSettings())
	m := send(NewModel(e, 0.1, 1), key(" "))
	if m.running || m.message != "validation failed" {
		t.Errorf("expected validation failure, got running=%v message=%q", m.running, m.message)
	}
	if !strings.Contains(m.View(), "error:") {
		t.Error("expected validation errors in the view")
	}
}

func TestLiveQuit(t *testing.T) {
	_, cmd := newLive(t).Update(key("q"))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLiveView(t *testing.T) {
	m := send(newLive(t), key(" "), TickMsg{}, TickMsg{})
	view := m.View()
	for _, want := range []string{"DIVIDER", "R1", "R2", "RUNNING"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp(t *testing.T) {
	a := NewApp(catalog.Default(), nil)
	if !strings.Contains(a.View(), "divider") {
		t.Error("menu should list presets")
	}

	next, _ := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = next.(App)
	if a.state != stateLive || a.err != nil {
		t.Fatalf("expected live view, got state %d err %v", a.state, a.err)
	}
	if !strings.Contains(a.View(), strings.ToUpper(a.presets[0])) {
		t.Error("live view should show the preset name")
	}

	next, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(App).state != stateMenu {
		t.Error("esc should return to the menu")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1}, 4); got != "▁█" {
		t.Errorf("expected ▁█, got %s", got)
	}
	if got := Sparkline([]float64{1, 2, 3, 4, 5}, 2); got != "▁█" {
		t.Errorf("expected last two values, got %s", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("expected flat line, got %s", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
	if nextTheme("minimal").Name != "cyberpunk" {
		t.Error("themes should wrap around")
	}
}

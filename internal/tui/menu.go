package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/san-kum/emsim/internal/automation"
	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/config"
)

const (
	stateMenu = iota
	stateLive
)

// App lists presets and opens the live view for the chosen one.
type App struct {
	state   int
	cursor  int
	presets []string
	catalog *catalog.Catalog
	logger  *log.Logger
	live    Model
	err     error
}

func NewApp(cat *catalog.Catalog, logger *log.Logger) App {
	return App{presets: config.ListPresets(), catalog: cat, logger: logger}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateLive {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.live.engine.Stop()
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		cfg, err := config.GetPreset(a.presets[a.cursor])
		if err != nil {
			a.err = err
			return a, nil
		}
		e, err := automation.Build(cfg, a.catalog, a.logger)
		if err != nil {
			a.err = err
			return a, nil
		}
		a.err = nil
		a.live = NewModel(e, cfg.Dt, cfg.Duration)
		a.state = stateLive
		return a, a.live.Init()
	}
	return a, nil
}

func (a App) View() string {
	if a.state == stateLive {
		return a.live.View()
	}
	s := newStyles(ThemeCyberpunk)
	var b strings.Builder
	b.WriteString(s.header.Render("EMSIM") + "\n")
	for i, name := range a.presets {
		cfg, _ := config.GetPreset(name)
		line := fmt.Sprintf("%-10s %s", name, s.muted.Render(cfg.Description))
		if i == a.cursor {
			b.WriteString(s.selected.Render("> ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if a.err != nil {
		b.WriteString("\n" + a.err.Error() + "\n")
	}
	b.WriteString(s.help.Render("↑↓: choose  enter: open  esc: back  q: quit"))
	return b.String()
}

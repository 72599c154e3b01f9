package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/scenario"
)

const (
	stateScenario = iota
	stateSolver
	stateSim
)

// Launcher builds an engine for the selection, starts its worker and returns
// the live view bound to it.
type Launcher func(name scenario.Name, v engine.Variant) (Model, error)

type menu struct {
	state     int
	cursor    int
	scenarios []scenario.Name
	solvers   []engine.Variant
	scenario  scenario.Name
	launch    Launcher
	live      Model
	err       error
}

func NewInteractiveApp(launch Launcher) tea.Model {
	return menu{
		state:     stateScenario,
		scenarios: scenario.Names(),
		solvers:   engine.Variants(),
		launch:    launch,
	}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	n := len(m.scenarios)
	if m.state == stateSolver {
		n = len(m.solvers)
	}

	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.state == stateSolver {
			m.state, m.cursor = stateScenario, int(m.scenario)
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.state == stateScenario {
			m.scenario = m.scenarios[m.cursor]
			m.state, m.cursor = stateSolver, int(engine.HybridV3)
			return m, nil
		}
		return m.start(m.solvers[m.cursor])
	}
	return m, nil
}

func (m menu) start(v engine.Variant) (tea.Model, tea.Cmd) {
	live, err := m.launch(m.scenario, v)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live, m.state = live, stateSim
	return m, m.live.Init()
}

func (m menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	var b strings.Builder
	title, sub := titleStyle(), mutedStyle()

	heading := "pick a scenario"
	if m.state == stateSolver {
		heading = "solver for " + m.scenario.String()
	}
	b.WriteString("\n\n    " + title.Render("LINKAGE") + "\n    " + sub.Render(heading) + "\n    " + sub.Render(strings.Repeat("─", 25)) + "\n\n")

	type entry struct{ name, desc string }
	var entries []entry
	if m.state == stateScenario {
		for _, s := range m.scenarios {
			entries = append(entries, entry{s.String(), s.Description()})
		}
	} else {
		for _, v := range m.solvers {
			entries = append(entries, entry{v.String(), v.Description()})
		}
	}

	pointer := accentStyle().Render("▸")
	selected := lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Value)
	for i, e := range entries {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pointer, selected.Render(fmt.Sprintf("%-20s", e.name)), labelStyle().UnsetWidth().Render(e.desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-20s", e.name)), sub.Render(e.desc)))
		}
	}

	if m.err != nil {
		b.WriteString("\n    " + statusStyle(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}

	keys := accentStyle()
	b.WriteString("\n    " + keys.Render("j/k") + sub.Render(" navigate  ") + keys.Render("enter") + sub.Render(" select  ") +
		keys.Render("esc") + sub.Render(" back  ") + keys.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

func RunInteractive(launch Launcher) error {
	_, err := tea.NewProgram(NewInteractiveApp(launch), tea.WithAltScreen()).Run()
	return err
}

// RunLive shows an already launched view until the user quits and returns
// the worker's terminal error, if any.
func RunLive(m Model) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}

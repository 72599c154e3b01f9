package viz

import (
	"fmt"
	"image"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linkage/internal/engine"
	"github.com/san-kum/linkage/internal/scenario"
	"github.com/san-kum/linkage/internal/worker"
)

const (
	canvasWidth     = 80
	canvasHeight    = 24
	frameRate       = 60
	gifStride       = 2 // record every other frame
	historyCapacity = 600
	gifPath         = "linkage.gif"
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live view. It never touches the engine: it reads snapshots
// from the worker and sends it commands.
type Model struct {
	worker   *worker.Worker
	commands chan<- worker.Command

	scenario scenario.Name
	variant  engine.Variant

	canvas *Canvas
	view   *Viewport

	snap      engine.Snapshot
	hasSnap   bool
	energy    []float64
	violation []float64
	frame     int

	frozen    bool
	showHelp  bool
	recording bool
	frames    []*image.Paletted
	status    string
	err       error
}

// NewModel wires a view to a running worker. commands should be buffered;
// a send that would block is skipped.
func NewModel(w *worker.Worker, commands chan<- worker.Command, name scenario.Name, v engine.Variant) Model {
	c := NewCanvas(canvasWidth, canvasHeight)
	return Model{
		worker:    w,
		commands:  commands,
		scenario:  name,
		variant:   v,
		canvas:    c,
		view:      NewViewport(c, frameRate),
		energy:    make([]float64, 0, historyCapacity),
		violation: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

// Err is the worker's terminal error, if it stopped on one.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.worker.Stop()
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "s":
			m.scenario = m.scenario.Next()
			m.send()
		case "v":
			m.variant = m.variant.Next()
			m.send()
		case "r":
			m.send()
		case "t":
			NextTheme()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.poll()
		m.draw()
		m.frame++
		return m, tick()
	}
	return m, nil
}

// send asks the worker to rebuild the current selection and resets the
// view's history.
func (m *Model) send() {
	cmd := worker.Command{Scenario: m.scenario, Variant: m.variant}
	select {
	case m.commands <- cmd:
		m.status = fmt.Sprintf("switching to %s / %s", m.scenario, m.variant)
	default:
		m.status = "command queue full"
	}
	m.energy = m.energy[:0]
	m.violation = m.violation[:0]
	m.view.Reset()
}

func (m *Model) poll() {
	if m.err == nil {
		select {
		case <-m.worker.Done():
			if err := m.worker.Err(); err != nil {
				m.err = err
			}
		default:
		}
	}
	if m.frozen {
		return
	}

	snap, ok := worker.LatestSnapshot(m.worker.Snapshots())
	if !ok {
		return
	}
	m.snap, m.hasSnap = snap, true
	m.energy = appendCapped(m.energy, snap.Total())
	m.violation = appendCapped(m.violation, snap.ViolationMean)
}

func appendCapped(xs []float64, v float64) []float64 {
	if len(xs) >= historyCapacity {
		xs = append(xs[:0], xs[1:]...)
	}
	return append(xs, v)
}

func (m *Model) draw() {
	m.canvas.Clear()
	if !m.hasSnap {
		return
	}
	m.view.Fit(framePoints(m.snap))
	DrawSnapshot(m.canvas, m.view, m.snap)
	if m.recording && m.frame%gifStride == 0 {
		m.frames = append(m.frames, m.canvas.Image(8, 16))
	}
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		m.status = "recording"
		return
	}
	m.recording = false
	if err := saveGIF(gifPath, m.frames); err != nil {
		m.status = "gif: " + err.Error()
	} else {
		m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), gifPath)
	}
	m.frames = nil
}

func saveGIF(path string, frames []*image.Paletted) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{
		Image:     frames,
		Delay:     gifDelays(len(frames)),
		LoopCount: 0,
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

// gifDelays spreads the recorded wall time over n frames in whole
// centiseconds, rounding cumulatively so the total stays exact.
func gifDelays(n int) []int {
	delays := make([]int, n)
	prev := 0
	for i := range delays {
		end := int(math.Round(float64((i+1)*gifStride*100) / frameRate))
		delays[i] = end - prev
		prev = end
	}
	return delays
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle().Render(strings.ToUpper(m.scenario.String())) + "  ")
	s.WriteString(accentStyle().Render(m.variant.String()) + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("total energy"))
		s.WriteString(chart + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	if m.hasSnap {
		row("Tick", fmt.Sprintf("%d", m.snap.Tick))
		row("Kinetic", fmt.Sprintf("%.4f", m.snap.Kinetic))
		row("Potential", fmt.Sprintf("%.4f", m.snap.Potential))
		if m.snap.Elastic != nil {
			row("Elastic", fmt.Sprintf("%.4f", *m.snap.Elastic))
		}
		row("Total", fmt.Sprintf("%.4f", m.snap.Total()))
		row("Violation", fmt.Sprintf("%.2e", m.snap.ViolationMean))
		row("", SparklineChart(m.violation, 30))
		row("Solve", m.snap.SolveDuration.String())
		row("Dropped", fmt.Sprintf("%d", m.worker.Dropped()))
	}

	s.WriteString("\n" + Separator(36) + "\n")
	s.WriteString(mutedStyle().Render("SP:Freeze S:Scene V:Solver R:Reset\nT:Theme G:Record ?:Help Q:Quit"))

	panel := panelStyle().Render(s.String())
	main := lipgloss.JoinHorizontal(lipgloss.Top, sceneStyle().Render(m.canvas.String()), panel)

	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return statusStyle(CurrentTheme.Error).Render("STOPPED: " + m.err.Error())
	case m.frozen:
		return statusStyle(CurrentTheme.Warning).Render("FROZEN")
	case m.recording:
		return statusStyle(CurrentTheme.Error).Render("● REC " + fmt.Sprintf("%d", len(m.frames)))
	case m.status != "":
		return statusStyle(CurrentTheme.Good).Render(AnimatedSpinner(m.frame) + " " + m.status)
	}
	return statusStyle(CurrentTheme.Good).Render(AnimatedSpinner(m.frame) + " RUNNING")
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space  - Freeze/unfreeze display    ║
║  S      - Next scenario              ║
║  V      - Next solver                ║
║  R      - Rebuild current scenario   ║
║  T      - Cycle themes               ║
║  G      - Toggle GIF recording       ║
║  ?      - Toggle this help           ║
║  Q      - Quit                       ║
╚══════════════════════════════════════╝`

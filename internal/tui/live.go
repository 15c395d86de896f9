package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/editor"
	"github.com/san-kum/gatesim/internal/sim"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const historyLen = 60

type tickMsg time.Time

// ReloadMsg replaces the circuit, as when its file changes on disk.
type ReloadMsg struct {
	Snapshot circuit.Snapshot
	Err      error
}

// Model is the live view: the circuit runs on every frame using the
// real time since the previous frame as its time step.
type Model struct {
	ed        *editor.Editor
	name      string
	fps       int
	maxPasses int

	paused    bool
	speed     float64
	lastFrame time.Time
	inputs    []string
	probes    []string
	history   [][]circuit.Level
	status    string

	width  int
	height int
}

func New(ed *editor.Editor, name string, fps, maxPasses int) *Model {
	if fps <= 0 {
		fps = 20
	}
	m := &Model{
		ed:        ed,
		name:      name,
		fps:       fps,
		maxPasses: maxPasses,
		speed:     1.0,
		width:     80,
		height:    24,
	}
	m.refresh()
	return m
}

// refresh re-reads inputs and probes; component pointers do not survive
// undo or reload.
func (m *Model) refresh() {
	c := m.ed.Circuit()
	m.inputs = m.inputs[:0]
	for _, comp := range c.Inputs() {
		m.inputs = append(m.inputs, comp.ID)
	}
	m.probes = sim.DefaultProbes(c)
	m.history = make([][]circuit.Level, len(m.probes))
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return m.tick() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case ReloadMsg:
		if msg.Err != nil {
			m.status = red.Render("reload failed: " + msg.Err.Error())
			return m, nil
		}
		if err := m.ed.Load(msg.Snapshot); err != nil {
			m.status = red.Render("reload failed: " + err.Error())
			return m, nil
		}
		m.refresh()
		m.status = green.Render("reloaded")
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		if !m.paused && !m.lastFrame.IsZero() {
			m.step(now.Sub(m.lastFrame).Seconds() * m.speed)
		}
		m.lastFrame = now
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case ".":
		m.step(1 / float64(m.fps))
	case "s":
		passes, err := m.ed.Circuit().Settle(m.maxPasses)
		if err != nil {
			m.status = yellow.Render(err.Error())
		} else {
			m.status = fmt.Sprintf("settled in %d passes", passes)
		}
		m.sample()
	case "u":
		m.apply("undo", m.ed.Undo)
	case "r":
		m.apply("redo", m.ed.Redo)
	case "+", "=":
		m.speed = min(m.speed*2, 16)
	case "-", "_":
		m.speed = max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			i := int(key[0] - '1')
			if i < len(m.inputs) {
				if err := m.ed.Toggle(m.inputs[i]); err != nil {
					m.status = red.Render(err.Error())
				}
			}
		}
	}
	return m, nil
}

func (m *Model) apply(what string, fn func() (bool, error)) {
	ok, err := fn()
	switch {
	case err != nil:
		m.status = red.Render(what + ": " + err.Error())
	case !ok:
		m.status = dim.Render("nothing to " + what)
	default:
		m.refresh()
		m.status = what
	}
}

func (m *Model) step(dt float64) {
	m.ed.Circuit().Step(dt)
	m.sample()
}

func (m *Model) sample() {
	c := m.ed.Circuit()
	for i, p := range m.probes {
		v, _ := c.Probe(p)
		m.history[i] = append(m.history[i], v)
		if len(m.history[i]) > historyLen {
			m.history[i] = m.history[i][1:]
		}
	}
}

func lamp(l circuit.Level) string {
	if l == circuit.High {
		return green.Render("●")
	}
	return dimmer.Render("○")
}

func wave(levels []circuit.Level) string {
	var b strings.Builder
	for _, l := range levels {
		if l == circuit.High {
			b.WriteString("▔")
		} else {
			b.WriteString("▁")
		}
	}
	return b.String()
}

func (m *Model) View() string {
	c := m.ed.Circuit()
	var b strings.Builder

	state := green.Render("running")
	if m.paused {
		state = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("  %s  %s  t=%.2fs  passes=%d  x%.2g\n\n",
		cyan.Render(m.name), state, c.Time(), c.Passes(), m.speed))

	b.WriteString(dim.Render("  inputs") + "\n")
	for i, id := range m.inputs {
		comp, ok := c.Component(id)
		if !ok {
			continue
		}
		v, _ := c.InputLevel(id)
		b.WriteString(fmt.Sprintf("  %s %s %s\n", dim.Render(fmt.Sprintf("[%d]", i+1)), lamp(v), white.Render(comp.Name())))
	}

	b.WriteString("\n" + dim.Render("  outputs") + "\n")
	for i, p := range m.probes {
		v, _ := c.Probe(p)
		b.WriteString(fmt.Sprintf("  %s %-8s %s\n", lamp(v), white.Render(p), cyan.Render(wave(m.history[i]))))
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString("  " + m.status + "\n")
	}
	b.WriteString(dim.Render("  1-9 toggle  space pause  . step  s settle  u/r undo/redo  +/- speed  q quit") + "\n")
	return b.String()
}

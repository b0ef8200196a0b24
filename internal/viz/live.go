package viz

import (
	"fmt"
	"image"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/terralab/landform/internal/grid"
	"github.com/terralab/landform/internal/model"
)

const historyCapacity = 600

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Live steps an erosion model in the terminal, drawing the surface as a
// shaded character map with a metrics panel alongside.
type Live struct {
	sim          model.Model
	stepsPerTick int
	running      bool
	done         bool
	err          error

	reliefHist []float64
	recording  bool
	frames     []*image.Paletted
	gifPath    string
	showHelp   bool
}

func NewLive(sim model.Model, gifPath string) Live {
	return Live{
		sim:          sim,
		stepsPerTick: 1,
		running:      true,
		reliefHist:   make([]float64, 0, historyCapacity),
		gifPath:      gifPath,
	}
}

func (m Live) Init() tea.Cmd {
	return tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recording && len(m.frames) > 0 {
				m.err = grid.WriteGIF(m.gifPath, m.frames, 10)
			}
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			if m.stepsPerTick < 64 {
				m.stepsPerTick *= 2
			}
		case "-", "_":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		case "g":
			if m.recording {
				m.err = grid.WriteGIF(m.gifPath, m.frames, 10)
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		return m, tea.Tick(time.Second/20, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Live) advance() {
	em := m.sim.Base()
	for i := 0; i < m.stepsPerTick; i++ {
		if em.Time() >= em.Clock.Stop {
			m.done = true
			break
		}
		dt := em.Clock.Step
		if em.Time()+dt > em.Clock.Stop {
			dt = em.Clock.Stop - em.Time()
		}
		if err := m.sim.RunOneStep(dt); err != nil {
			m.err = err
			return
		}
	}

	lo, hi, err := em.Grid.MinMax(grid.FieldElevation)
	if err == nil {
		m.reliefHist = append(m.reliefHist, hi-lo)
		if len(m.reliefHist) > historyCapacity {
			m.reliefHist = m.reliefHist[1:]
		}
	}
	if m.recording {
		frame, err := grid.RenderFrame(em.Grid, grid.FieldElevation, 4, 0, 0)
		if err == nil {
			m.frames = append(m.frames, frame)
		}
	}
}

func (m Live) View() string {
	em := m.sim.Base()

	surface, err := ElevationMap(em.Grid, grid.FieldElevation)
	if err != nil {
		surface = err.Error()
	}

	var stats strings.Builder
	stats.WriteString(headerStyle.Render(m.sim.Name()) + "\n")
	row := func(label, value string) {
		stats.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.0f / %.0f yr", em.Time(), em.Clock.Stop))
	row("step", fmt.Sprintf("%d", em.StepCount()))
	row("speed", fmt.Sprintf("%d step/tick", m.stepsPerTick))
	for name, v := range em.MetricValues() {
		row(name, fmt.Sprintf("%.4g", v))
	}
	if len(m.reliefHist) >= 2 {
		stats.WriteString("\n" + SeriesPlot("relief", m.reliefHist, 32, 6) + "\n")
	}
	if m.recording {
		stats.WriteString("\n" + recStyle.Render(fmt.Sprintf("REC %d frames", len(m.frames))) + "\n")
	}
	if m.err != nil {
		stats.WriteString("\n" + recStyle.Render("error: "+m.err.Error()) + "\n")
	} else if m.done {
		stats.WriteString("\n" + headerStyle.Render("run complete") + "\n")
	} else if !m.running {
		stats.WriteString("\npaused\n")
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(surface),
		statsStyle.Render(stats.String()),
	)

	help := "space pause · +/- speed · g record gif · q quit · ? help"
	if m.showHelp {
		help = strings.Join([]string{
			"space  pause / resume",
			"+ / -  double / halve steps per tick",
			"g      start recording, press again to write " + m.gifPath,
			"q      quit (writes pending recording)",
		}, "\n")
	}
	return view + "\n" + helpStyle.Render(help)
}

// RunLive blocks until the viewer exits.
func RunLive(sim model.Model, gifPath string) error {
	p := tea.NewProgram(NewLive(sim, gifPath))
	_, err := p.Run()
	return err
}

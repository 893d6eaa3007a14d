package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"covgram/internal/pipeline"
)

type progressModel struct {
	title      string
	events     <-chan pipeline.Event
	spinner    spinner.Model
	prog       progress.Model
	seeds      []seedItem
	stageLabel string
	width      int
	done       bool
}

type seedItem struct {
	label    string
	status   pipeline.Status
	stage    pipeline.Stage
	inputs   int
	fraction float64
	err      error
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel renders per-seed progress of a generation run.
func NewProgressModel(title string, seeds int, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]seedItem, seeds)
	for i := range items {
		items[i] = seedItem{label: fmt.Sprintf("seed %02d", i), status: pipeline.StatusQueued}
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		seeds:   items,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")

	detailWidth := max(m.width-12-len("seed 00")-6, 10)
	for _, s := range m.seeds {
		status := styleStatus(s.status).Render(fmt.Sprintf("%12s", statusLabel(s)))
		fmt.Fprintf(&b, "  %s %s  %s\n", status, s.label, truncate(detail(s), detailWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	if ev.Seed < 0 || ev.Seed >= len(m.seeds) {
		if ev.Status == pipeline.StatusWorking {
			m.stageLabel = string(ev.Stage)
		}
		return nil
	}
	s := &m.seeds[ev.Seed]
	s.status = ev.Status
	s.stage = ev.Stage
	s.err = ev.Err
	if ev.Status == pipeline.StatusDone || ev.Status == pipeline.StatusWarning {
		s.inputs = ev.Inputs
		s.fraction = ev.Fraction
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.seeds) == 0 {
		return 1
	}
	total := 0.0
	for _, s := range m.seeds {
		total += progressFromStage(s)
	}
	return total / float64(len(m.seeds))
}

func progressFromStage(s seedItem) float64 {
	switch s.status {
	case pipeline.StatusDone, pipeline.StatusWarning, pipeline.StatusError:
		return 1
	case pipeline.StatusWorking:
		if s.stage == pipeline.StageWrite {
			return 0.9
		}
		return 0.3
	default:
		return 0
	}
}

func statusLabel(s seedItem) string {
	if s.status == pipeline.StatusWorking {
		switch s.stage {
		case pipeline.StageWrite:
			return "writing"
		default:
			return "generating"
		}
	}
	return string(s.status)
}

func detail(s seedItem) string {
	switch {
	case s.err != nil:
		return s.err.Error()
	case s.status == pipeline.StatusDone || s.status == pipeline.StatusWarning:
		return fmt.Sprintf("%d inputs, %.0f%% covered", s.inputs, s.fraction*100)
	default:
		return ""
	}
}

func styleStatus(status pipeline.Status) lipgloss.Style {
	switch status {
	case pipeline.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case pipeline.StatusWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case pipeline.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case pipeline.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"simple-dl/internal/downloader"
)

// Controller is the set of control operations the UI drives.
type Controller interface {
	Pause()
	Resume()
	Cancel()
}

// ProgressMsg carries one engine notification into the bubbletea loop.
type ProgressMsg downloader.Progress

// PathMsg announces the resolved destination.
type PathMsg string

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	statusStyle = map[string]lipgloss.Style{
		"running":   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		"paused":    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"failed":    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		"cancelled": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

type Model struct {
	ctrl     Controller
	url      string
	path     string
	last     downloader.Progress
	paused   bool
	outcome  downloader.Outcome
	progress progress.Model
	quitting bool
}

func NewModel(ctrl Controller, url, path string) Model {
	return Model{
		ctrl:     ctrl,
		url:      url,
		path:     path,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Forward returns a sink that hands every notification to p.
func Forward(p *tea.Program) downloader.ProgressFunc {
	return func(pr downloader.Progress) {
		p.Send(ProgressMsg(pr))
	}
}

// Outcome is the terminal outcome seen so far, OutcomeProgress if none.
func (m Model) Outcome() downloader.Outcome {
	return m.outcome
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.outcome.Terminal() {
			return m, tea.Quit
		}
		switch msg.String() {
		case "p", " ":
			if m.paused {
				m.ctrl.Resume()
			} else {
				m.ctrl.Pause()
			}
			m.paused = !m.paused
		case "c":
			m.ctrl.Cancel()
		case "ctrl+c", "q":
			m.ctrl.Cancel()
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 4
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		return m, nil

	case PathMsg:
		m.path = string(msg)
		return m, nil

	case ProgressMsg:
		p := downloader.Progress(msg)
		if p.Outcome.Terminal() {
			m.outcome = p.Outcome
			m.last.Speed = 0
			if p.Downloaded > 0 {
				m.last.Downloaded = p.Downloaded
			}
			return m, tea.Quit
		}
		m.last = p
		return m, nil

	default:
		return m, nil
	}
}

func (m Model) status() string {
	switch {
	case m.outcome.Terminal():
		return m.outcome.String()
	case m.paused:
		return "paused"
	default:
		return "running"
	}
}

func (m Model) View() string {
	var b strings.Builder
	pad := lipgloss.NewStyle().Padding(1).Render

	status := m.status()
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("Downloading"), m.url)
	if m.path != "" {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render("-> "+m.path))
	}
	b.WriteString("\n")

	if m.last.Total > 0 {
		b.WriteString(m.progress.ViewAs(m.last.Fraction()))
		fmt.Fprintf(&b, "\n%s / %s", humanize.Bytes(uint64(m.last.Downloaded)), humanize.Bytes(uint64(m.last.Total)))
	} else {
		fmt.Fprintf(&b, "%s", humanize.Bytes(uint64(m.last.Downloaded)))
	}
	fmt.Fprintf(&b, " | %s/s | %s\n", humanize.Bytes(uint64(m.last.Speed)), statusStyle[status].Render(status))

	if !m.outcome.Terminal() && !m.quitting {
		b.WriteString(dimStyle.Render("\np pause/resume • c cancel • q quit"))
	}

	return pad(b.String())
}

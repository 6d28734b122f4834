package tui

import (
	"fmt"
	"strings"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ProgressState represents the current state of the progress TUI.
type ProgressState int

const (
	// ProgressStateRunning indicates items are still being processed.
	ProgressStateRunning ProgressState = iota
	// ProgressStateDone indicates the run finished and the view is final.
	ProgressStateDone
	// ProgressStateInterrupted indicates the user asked to stop the run.
	ProgressStateInterrupted
)

// Layout constants.
const (
	progressDefaultWidth = 40
	progressMaxWidth     = 100
	progressPadding      = 4
)

// progressMsg carries a render notification from the batch runner.
type progressMsg struct {
	completed int
	total     int
}

// finishMsg is sent when the progress handle is closed.
type finishMsg struct {
	completed int
	total     int
}

//nolint:gochecknoglobals // Shared read-only styles.
var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	countsStyle = lipgloss.NewStyle().Faint(true)
	hintStyle   = lipgloss.NewStyle().Faint(true).Italic(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// ProgressModel is the Bubble Tea model for a running batch.
type ProgressModel struct {
	title       string
	bar         bubblesprogress.Model
	printer     *message.Printer
	completed   int
	total       int
	state       ProgressState
	onInterrupt func()
}

// NewProgressModel creates a progress view. onInterrupt, if non-nil, is
// called once when the user presses ctrl+c or q; it should cancel the run.
func NewProgressModel(title string, width int, onInterrupt func()) ProgressModel {
	if width <= 0 {
		width = progressDefaultWidth
	}
	return ProgressModel{
		title:       title,
		bar:         bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(width)),
		printer:     message.NewPrinter(language.English),
		onInterrupt: onInterrupt,
	}
}

// Init initializes the model.
func (m ProgressModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.completed, m.total = msg.completed, msg.total
		return m, nil

	case finishMsg:
		m.completed, m.total = msg.completed, msg.total
		if m.state == ProgressStateRunning {
			m.state = ProgressStateDone
		}
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-progressPadding, 1), progressMaxWidth)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == ProgressStateRunning {
				m.state = ProgressStateInterrupted
				if m.onInterrupt != nil {
					m.onInterrupt()
				}
			}
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the title, bar and counts.
func (m ProgressModel) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n")
	}
	b.WriteString(m.bar.ViewAs(m.Fraction()))
	b.WriteString(" ")
	b.WriteString(countsStyle.Render(m.printer.Sprintf("%d/%d", m.completed, m.total)))
	b.WriteString("\n")

	switch m.state {
	case ProgressStateInterrupted:
		b.WriteString(warnStyle.Render(fmt.Sprintf("interrupted after %s items",
			m.printer.Sprintf("%d", m.completed))))
		b.WriteString("\n")
	case ProgressStateRunning:
		b.WriteString(hintStyle.Render("press q to stop"))
		b.WriteString("\n")
	}
	return b.String()
}

// Fraction returns completed/total, or 0 before the first update.
func (m ProgressModel) Fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

// State returns the current state.
func (m ProgressModel) State() ProgressState {
	return m.state
}

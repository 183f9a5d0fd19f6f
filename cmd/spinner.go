package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Loads faster than this finish without ever drawing the spinner.
const spinnerGrace = 150 * time.Millisecond

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	elapsedStyle = lipgloss.NewStyle().Faint(true)
)

type loadFinishedMsg struct{}

type showSpinnerMsg struct{}

type loadingModel struct {
	spinner spinner.Model
	label   string
	started time.Time
	visible bool
	done    bool
}

func (m loadingModel) Init() tea.Cmd {
	return tea.Tick(spinnerGrace, func(time.Time) tea.Msg { return showSpinnerMsg{} })
}

func (m loadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case loadFinishedMsg:
		m.done = true
		return m, tea.Quit
	case showSpinnerMsg:
		m.visible = true
		return m, m.spinner.Tick
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loadingModel) View() string {
	if m.done || !m.visible {
		return ""
	}
	elapsed := time.Since(m.started).Truncate(100 * time.Millisecond)
	if elapsed < time.Second {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, elapsedStyle.Render(elapsed.String()))
}

// loadWithSpinner runs load in the background and draws a spinner on output
// until it returns.
func loadWithSpinner[T any](ctx context.Context, output io.Writer, label string, load func(context.Context) (T, error)) (T, error) {
	p := tea.NewProgram(
		loadingModel{
			spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
			label:   label,
			started: time.Now(),
		},
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	var (
		value   T
		loadErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		value, loadErr = load(ctx)
		p.Send(loadFinishedMsg{})
	}()

	_, runErr := p.Run()
	<-finished
	if loadErr != nil {
		return value, loadErr
	}
	if runErr != nil {
		return value, fmt.Errorf("draw spinner: %w", runErr)
	}
	return value, nil
}

// Package console holds the interactive terminal views used by the CLI:
// a spinner while a fetch runs, a source picker and the classifier inspector.
package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user aborts a view with ctrl+c.
var ErrCancelled = errors.New("cancelled")

type loadDoneMsg[T any] struct {
	value T
	err   error
}

type loaderModel[T any] struct {
	label   string
	ctx     context.Context
	load    func(ctx context.Context) (T, error)
	spinner spinner.Model
	result  T
	err     error
	done    bool
}

func (m loaderModel[T]) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.spinner.Tick)
}

func (m loaderModel[T]) doLoad() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		v, err := load(ctx)
		return loadDoneMsg[T]{value: v, err: err}
	}
}

func (m loaderModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg[T]:
		m.result = msg.value
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel[T]) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s...\n", m.spinner.View(), m.label)
}

func newLoader[T any](ctx context.Context, label string, load func(ctx context.Context) (T, error)) loaderModel[T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel[T]{label: label, ctx: ctx, load: load, spinner: s}
}

// RunLoader shows a spinner labelled label while load runs. It renders inline (no alt screen).
func RunLoader[T any](ctx context.Context, label string, load func(ctx context.Context) (T, error)) (T, error) {
	p := tea.NewProgram(newLoader(ctx, label, load))
	result, err := p.Run()
	if err != nil {
		var zero T
		return zero, err
	}
	final := result.(loaderModel[T])
	return final.result, final.err
}

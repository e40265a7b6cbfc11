package console

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobradar/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// Picker results other than a valid index.
const (
	NoChoice = -1
	Quit     = -2
)

type pickerModel struct {
	sources []model.JobSource
	cursor  int
	chosen  int
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		m.chosen = Quit
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.sources)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.sources) > 0 {
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Inspect: select a source"))
	b.WriteByte('\n')

	for i, s := range m.sources {
		label := fmt.Sprintf("%s (%s, %s)", s.Name, s.Type, s.ID)
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> " + label))
		} else {
			b.WriteString(pickerItemStyle.Render(label))
		}
		b.WriteByte('\n')
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// RunSourcePicker shows an interactive source selector. It returns the chosen
// index, or Quit if the user left without choosing.
func RunSourcePicker(sources []model.JobSource) (int, error) {
	p := tea.NewProgram(pickerModel{sources: sources, chosen: NoChoice})
	result, err := p.Run()
	if err != nil {
		return Quit, err
	}
	final := result.(pickerModel)
	if final.chosen == NoChoice {
		return Quit, nil
	}
	return final.chosen, nil
}

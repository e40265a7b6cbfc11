package console

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const entryHeight = 3

const (
	paneAccepted = iota
	paneRejected
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle   = headerStyle.Foreground(lipgloss.Color("39"))
	inactiveHeaderStyle = headerStyle.Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	acceptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Entry is one fetched posting with the classifier's verdict.
type Entry struct {
	Job     model.Job
	Verdict classifier.Verdict
}

// Partition evaluates jobs and splits them into accepted and rejected entries,
// keeping the input order within each group.
func Partition(c *classifier.Classifier, jobs []model.Job) (accepted, rejected []Entry) {
	for _, j := range jobs {
		v := c.Evaluate(j)
		if v.Accepted() {
			j.Profession = v.Profession
			accepted = append(accepted, Entry{Job: j, Verdict: v})
		} else {
			rejected = append(rejected, Entry{Job: j, Verdict: v})
		}
	}
	return accepted, rejected
}

type inspectModel struct {
	title    string
	panes    [2][]Entry
	cursors  [2]int
	views    [2]viewport.Model
	active   int
	width    int
	height   int
	ready    bool
	detail   bool
	detailVP viewport.Model
	wantQuit bool
}

func newInspectModel(title string, accepted, rejected []Entry) inspectModel {
	return inspectModel{title: title, panes: [2][]Entry{accepted, rejected}}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if m.detail {
			m.detailVP.Width = m.width - 4
			m.detailVP.Height = m.height - 4
			m.detailVP.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m inspectModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		return m, tea.Quit
	case "tab", "left", "right":
		m.active = 1 - m.active
		m.refresh()
		return m, nil
	case "up", "k":
		m.move(-1)
		return m, nil
	case "down", "j":
		m.move(1)
		return m, nil
	case "enter":
		if len(m.panes[m.active]) == 0 {
			return m, nil
		}
		m.detail = true
		m.detailVP = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
		m.detailVP.SetContent(m.renderDetail())
		return m, nil
	}

	var cmd tea.Cmd
	m.views[m.active], cmd = m.views[m.active].Update(msg)
	return m, cmd
}

func (m inspectModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.detail = false
		return m, nil
	case "o":
		openURL(m.selected().Job.URL)
		return m, nil
	}

	var cmd tea.Cmd
	m.detailVP, cmd = m.detailVP.Update(msg)
	return m, cmd
}

func (m *inspectModel) move(delta int) {
	n := len(m.panes[m.active])
	m.cursors[m.active] = clamp(m.cursors[m.active]+delta, 0, max(n-1, 0))
	m.refresh()

	vp := &m.views[m.active]
	top := m.cursors[m.active] * entryHeight
	bottom := top + entryHeight - 1
	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m inspectModel) selected() Entry {
	return m.panes[m.active][m.cursors[m.active]]
}

func (m *inspectModel) layout() {
	w := max((m.width-5)/2, 20)
	h := max(m.height-4, 5)
	if !m.ready {
		m.views[paneAccepted] = viewport.New(w, h)
		m.views[paneRejected] = viewport.New(w, h)
		m.ready = true
	} else {
		for i := range m.views {
			m.views[i].Width = w
			m.views[i].Height = h
		}
	}
	m.refresh()
}

func (m *inspectModel) refresh() {
	for i := range m.views {
		m.views[i].SetContent(renderEntries(m.panes[i], m.cursors[i], m.active == i))
	}
}

func (m inspectModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.detail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m inspectModel) viewList() string {
	w := m.views[paneAccepted].Width
	headers := [2]string{
		fmt.Sprintf(" Accepted (%d)", len(m.panes[paneAccepted])),
		fmt.Sprintf(" Rejected (%d)", len(m.panes[paneRejected])),
	}

	var renderedHeaders, renderedPanes [2]string
	for i := range headers {
		hs, bs := inactiveHeaderStyle, inactiveBorderStyle
		if i == m.active {
			hs, bs = activeHeaderStyle, activeBorderStyle
		}
		renderedHeaders[i] = lipgloss.NewStyle().Width(w + 2).Render(hs.Render(headers[i]))
		renderedPanes[i] = bs.Width(w).Render(m.views[i].View())
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, renderedHeaders[0], " ", renderedHeaders[1])
	panes := lipgloss.JoinHorizontal(lipgloss.Top, renderedPanes[0], " ", renderedPanes[1])

	total := len(m.panes[0]) + len(m.panes[1])
	status := fmt.Sprintf(" %s | %d fetched    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit", m.title, total)
	return headerRow + "\n" + panes + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func (m inspectModel) viewDetail() string {
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailVP.View())
	status := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return detailTitleStyle.Render("Posting") + "\n" + content + "\n" + status
}

func (m inspectModel) renderDetail() string {
	e := m.selected()
	j := e.Job
	var b strings.Builder

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	field("Title", j.Title)
	field("Company", j.Company)
	field("Location", j.Location)
	field("Job ID", j.ID)
	field("Source", j.Source)
	if j.PostedAt != nil {
		field("Posted At", j.PostedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	field("URL", j.URL)

	b.WriteByte('\n')
	if e.Verdict.Accepted() {
		field("Verdict", acceptedStyle.Render("accepted"))
		field("Profession", e.Verdict.Profession)
	} else {
		field("Verdict", rejectedStyle.Render("rejected"))
		field("Reason", e.Verdict.Reason())
	}
	return b.String()
}

func renderEntries(entries []Entry, cursor int, active bool) string {
	if len(entries) == 0 {
		return "  (none)"
	}

	var b strings.Builder
	for i, e := range entries {
		ts, ss, prefix := titleStyle, subtitleStyle, "  "
		if active && i == cursor {
			ts, ss, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(ts.Render(e.Job.Title))
		b.WriteByte('\n')

		note := e.Verdict.Profession
		if !e.Verdict.Accepted() {
			note = e.Verdict.Reason()
		}
		b.WriteString(prefix)
		b.WriteString(ss.Render(fmt.Sprintf("%s · %s · %s", e.Job.Location, postedDay(e.Job.PostedAt), note)))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func postedDay(t *time.Time) string {
	if t == nil {
		return "n/a"
	}
	return t.UTC().Format("2006-01-02")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunInspector launches the split-pane view of accepted and rejected postings.
// It reports wantQuit=true if the user pressed q, false if they pressed esc to
// go back to the picker.
func RunInspector(title string, accepted, rejected []Entry) (bool, error) {
	p := tea.NewProgram(newInspectModel(title, accepted, rejected), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(inspectModel).wantQuit, nil
}

package console

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobradar/internal/classifier"
	"github.com/amishk599/jobradar/internal/model"
)

func testClassifier() *classifier.Classifier {
	m := classifier.NewKeywordMatcher([]model.Profession{
		{ID: "be", Name: "Backend", Keywords: []string{"backend"}},
	})
	return classifier.New(classifier.NewLocationGate(classifier.DefaultRegion, nil), m)
}

func testEntries() (accepted, rejected []Entry) {
	return Partition(testClassifier(), []model.Job{
		{ID: "a-1", Title: "Backend Engineer", Location: "Amsterdam"},
		{ID: "a-2", Title: "Backend Engineer", Location: "Berlin"},
		{ID: "a-3", Title: "Designer", Location: "Utrecht"},
		{ID: "a-4", Title: "Senior Backend Dev", Location: "Remote, Netherlands"},
	})
}

func TestPartition(t *testing.T) {
	accepted, rejected := testEntries()

	if len(accepted) != 2 || accepted[0].Job.ID != "a-1" || accepted[1].Job.ID != "a-4" {
		t.Fatalf("accepted = %+v", accepted)
	}
	if accepted[0].Job.Profession != "Backend" {
		t.Errorf("accepted profession = %q, want Backend", accepted[0].Job.Profession)
	}
	if len(rejected) != 2 {
		t.Fatalf("rejected = %+v", rejected)
	}
	if got := rejected[0].Verdict.Reason(); got != "out of region" {
		t.Errorf("rejected[0] reason = %q", got)
	}
	if got := rejected[1].Verdict.Reason(); got != "no profession" {
		t.Errorf("rejected[1] reason = %q", got)
	}
}

func send(m tea.Model, msg tea.Msg) tea.Model {
	next, _ := m.Update(msg)
	return next
}

func TestInspectModel_Navigation(t *testing.T) {
	accepted, rejected := testEntries()
	var m tea.Model = newInspectModel("acme", accepted, rejected)

	m = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(inspectModel).cursors[paneAccepted]; got != 1 {
		t.Errorf("cursor after down = %d, want 1", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(inspectModel).cursors[paneAccepted]; got != 1 {
		t.Errorf("cursor should clamp at last entry, got %d", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.(inspectModel).active; got != paneRejected {
		t.Errorf("active pane = %d, want rejected", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	im := m.(inspectModel)
	if !im.detail {
		t.Fatal("enter should open the detail view")
	}
	if !strings.Contains(im.renderDetail(), "out of region") {
		t.Errorf("detail should show rejection reason:\n%s", im.renderDetail())
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.(inspectModel).detail {
		t.Error("esc should close the detail view")
	}
}

func TestInspectModel_QuitVersusBack(t *testing.T) {
	accepted, rejected := testEntries()
	var m tea.Model = newInspectModel("acme", accepted, rejected)
	m = send(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	quit := send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !quit.(inspectModel).wantQuit {
		t.Error("q should set wantQuit")
	}
	back := send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if back.(inspectModel).wantQuit {
		t.Error("esc should return to the picker, not quit")
	}
}

func TestPickerModel(t *testing.T) {
	var m tea.Model = pickerModel{
		sources: []model.JobSource{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		chosen:  NoChoice,
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.(pickerModel).chosen; got != 1 {
		t.Errorf("chosen = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "B (") {
		t.Errorf("view missing source label:\n%s", m.View())
	}
}

package notifier

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// FormatAlert renders the chat message for one job. Messages are sent with
// parse_mode HTML, so every field is escaped.
func FormatAlert(j model.Job) string {
	var b strings.Builder
	b.WriteString("🆕 New Job Alert!\n\n")
	b.WriteString("🏢 " + html.EscapeString(j.Company) + "\n")
	b.WriteString("👨‍💻 " + html.EscapeString(j.Title) + "\n")
	b.WriteString("📍 " + html.EscapeString(j.Location) + "\n")
	b.WriteString("🔍 " + html.EscapeString(j.Profession) + "\n")
	b.WriteString("🔗 " + html.EscapeString(j.URL))
	return b.String()
}

// TestJob is the dummy posting used to verify a sender end to end.
func TestJob() model.Job {
	now := time.Now().UTC()
	return model.Job{
		ID:         "test-001",
		Title:      "Test Notification - Integration Verified",
		Company:    "JobRadar Test",
		Location:   "Amsterdam, Netherlands",
		URL:        "https://example.com/jobs/test-001",
		PostedAt:   &now,
		Source:     "test",
		Profession: "Test",
	}
}

// SendTestMessage sends a dummy alert to chatID to verify the integration works.
func SendTestMessage(ctx context.Context, s model.Sender, chatID int64) error {
	return s.Send(ctx, chatID, FormatAlert(TestJob()))
}

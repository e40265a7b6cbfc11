package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	FirstPublished string             `json:"first_published"`
	UpdatedAt      string             `json:"updated_at"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	source  model.JobSource
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(source model.JobSource, client *http.Client) *GreenhouseAdapter {
	base := strings.TrimRight(source.BaseURL, "/")
	if base == "" {
		base = greenhouseBaseURL
	}
	return &GreenhouseAdapter{source: source, baseURL: base, client: client, now: time.Now}
}

// Fetch retrieves the board, normalizes every posting and returns the ones
// newer than cursorHint.
func (a *GreenhouseAdapter) Fetch(ctx context.Context, cursorHint string) ([]model.Job, error) {
	url := fmt.Sprintf("%s/boards/%s/jobs", a.baseURL, a.source.CompanyID)
	label := "greenhouse fetch for " + a.source.ID

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, label, &ghResp); err != nil {
		return nil, err
	}

	postings := make([]posting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		if gj.ID == 0 {
			continue
		}
		native := strconv.FormatInt(gj.ID, 10)

		posted := parseTime(gj.FirstPublished)
		if posted == nil {
			posted = parseTime(gj.UpdatedAt)
		}

		postings = append(postings, posting{
			native: native,
			job: model.Job{
				ID:       model.JobID(a.source.ID, native),
				Title:    gj.Title,
				Company:  a.source.Name,
				Location: gj.Location.Name,
				URL:      gj.AbsoluteURL,
				PostedAt: posted,
				Source:   a.source.ID,
			},
		})
	}

	sortNewestFirst(postings)
	return applyCursor(postings, cursorHint, a.now()), nil
}

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	JobURL      string `json:"jobUrl"`
	PublishedAt string `json:"publishedAt"`
	IsListed    bool   `json:"isListed"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	source  model.JobSource
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewAshbyAdapter creates a new adapter for an Ashby job board.
func NewAshbyAdapter(source model.JobSource, client *http.Client) *AshbyAdapter {
	base := strings.TrimRight(source.BaseURL, "/")
	if base == "" {
		base = ashbyBaseURL
	}
	return &AshbyAdapter{source: source, baseURL: base, client: client, now: time.Now}
}

// Fetch retrieves the listed postings and returns the ones newer than cursorHint.
func (a *AshbyAdapter) Fetch(ctx context.Context, cursorHint string) ([]model.Job, error) {
	url := fmt.Sprintf("%s/posting-api/job-board/%s", a.baseURL, a.source.CompanyID)
	label := "ashby fetch for " + a.source.ID

	var ashbyResp ashbyResponse
	if err := getJSON(ctx, a.client, url, label, &ashbyResp); err != nil {
		return nil, err
	}

	postings := make([]posting, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}
		native := aj.ID
		if native == "" {
			native = aj.JobURL
		}
		if native == "" {
			continue
		}

		postings = append(postings, posting{
			native: native,
			job: model.Job{
				ID:       model.JobID(a.source.ID, native),
				Title:    aj.Title,
				Company:  a.source.Name,
				Location: aj.Location,
				URL:      aj.JobURL,
				PostedAt: parseTime(aj.PublishedAt),
				Source:   a.source.ID,
			},
		})
	}

	sortNewestFirst(postings)
	return applyCursor(postings, cursorHint, a.now()), nil
}

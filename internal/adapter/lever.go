package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

const leverBaseURL = "https://api.lever.co"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Categories leverCategories `json:"categories"`
	CreatedAt  int64           `json:"createdAt"`
	HostedURL  string          `json:"hostedUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	source  model.JobSource
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(source model.JobSource, client *http.Client) *LeverAdapter {
	base := strings.TrimRight(source.BaseURL, "/")
	if base == "" {
		base = leverBaseURL
	}
	return &LeverAdapter{source: source, baseURL: base, client: client, now: time.Now}
}

// Fetch retrieves the postings list and returns the ones newer than cursorHint.
func (a *LeverAdapter) Fetch(ctx context.Context, cursorHint string) ([]model.Job, error) {
	url := fmt.Sprintf("%s/v0/postings/%s?mode=json", a.baseURL, a.source.CompanyID)
	label := "lever fetch for " + a.source.ID

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, url, label, &leverJobs); err != nil {
		return nil, err
	}

	postings := make([]posting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		if lj.ID == "" {
			continue
		}

		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			postedAt = &t
		}

		postings = append(postings, posting{
			native: lj.ID,
			job: model.Job{
				ID:       model.JobID(a.source.ID, lj.ID),
				Title:    lj.Text,
				Company:  a.source.Name,
				Location: leverLocation(lj.Categories),
				URL:      lj.HostedURL,
				PostedAt: postedAt,
				Source:   a.source.ID,
			},
		})
	}

	sortNewestFirst(postings)
	return applyCursor(postings, cursorHint, a.now()), nil
}

func leverLocation(c leverCategories) string {
	if len(c.AllLocations) > 0 {
		return strings.Join(c.AllLocations, ", ")
	}
	if c.Location != "" {
		return c.Location
	}
	return "Unknown"
}

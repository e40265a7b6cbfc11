package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

var testNow = time.Date(2026, 2, 13, 15, 0, 0, 0, time.UTC)

const greenhousePayload = `{
	"jobs": [
		{
			"id": 12345,
			"title": "Software Engineer",
			"location": {"name": "Amsterdam, Netherlands"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
			"first_published": "2026-02-13T09:00:00Z",
			"updated_at": "2026-02-13T10:00:00Z"
		},
		{
			"id": 67890,
			"title": "Backend Engineer",
			"location": {"name": "Remote, US"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
			"first_published": "2026-02-13T14:00:00Z",
			"updated_at": "2026-02-13T14:30:00Z"
		},
		{
			"id": 5555,
			"title": "Data Analyst",
			"location": {"name": "Utrecht"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/5555",
			"updated_at": "2026-02-10T08:00:00Z"
		}
	]
}`

func TestGreenhouseFetch_FirstRunKeepsToday(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/boards/acme/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	a := newGreenhouseTestAdapter(srv)

	jobs, err := a.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs from today, got %d", len(jobs))
	}

	j := jobs[0]
	if j.ID != "acme-gh-67890" {
		t.Errorf("expected newest job acme-gh-67890 first, got %s", j.ID)
	}
	if j.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", j.Company)
	}
	if j.Source != "acme-gh" {
		t.Errorf("expected source acme-gh, got %s", j.Source)
	}
	if j.Profession != "" {
		t.Errorf("adapter must not classify, got profession %q", j.Profession)
	}
	if j.PostedAt == nil || !j.PostedAt.Equal(time.Date(2026, 2, 13, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("expected PostedAt from first_published, got %v", j.PostedAt)
	}
	if jobs[1].ID != "acme-gh-12345" {
		t.Errorf("expected acme-gh-12345 second, got %s", jobs[1].ID)
	}
}

func TestGreenhouseFetch_CursorWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		cursor string
		want   []string
	}{
		{"cursor in the middle", "12345", []string{"acme-gh-67890"}},
		{"cursor on oldest returns everything newer", "5555", []string{"acme-gh-67890", "acme-gh-12345"}},
		{"cursor is newest", "67890", nil},
		{"cursor vanished upstream", "424242", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newGreenhouseTestAdapter(srv)
			jobs, err := a.Fetch(context.Background(), tc.cursor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(jobs) != len(tc.want) {
				t.Fatalf("expected %d jobs, got %d", len(tc.want), len(jobs))
			}
			for i, id := range tc.want {
				if jobs[i].ID != id {
					t.Errorf("jobs[%d] = %s, want %s", i, jobs[i].ID, id)
				}
			}
		})
	}
}

func TestGreenhouseFetch_DefaultBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/boards/acme/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	a := NewGreenhouseAdapter(testSource(model.SourceGreenhouse, ""), nil)
	a.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}

	jobs, err := a.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestGreenhouseFetch_MalformedJSONIsSchemaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	_, err := newGreenhouseTestAdapter(srv).Fetch(context.Background(), "")
	if !errors.Is(err, model.ErrSourceSchema) {
		t.Fatalf("expected ErrSourceSchema, got %v", err)
	}
}

func TestGreenhouseFetch_HTTPErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newGreenhouseTestAdapter(srv).Fetch(context.Background(), "")
	if !errors.Is(err, model.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter != 30*time.Second {
		t.Errorf("unexpected HTTPError: %+v", httpErr)
	}
}

// --- helpers ---

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testSource(typ model.SourceType, baseURL string) model.JobSource {
	return model.JobSource{
		ID:        "acme-" + map[model.SourceType]string{model.SourceGreenhouse: "gh", model.SourceLever: "lv", model.SourceAshby: "ab"}[typ],
		Name:      "Acme Corp",
		Type:      typ,
		BaseURL:   baseURL,
		CompanyID: "acme",
	}
}

// newGreenhouseTestAdapter creates a GreenhouseAdapter pointed at a test server
// with the clock pinned to testNow.
func newGreenhouseTestAdapter(srv *httptest.Server) *GreenhouseAdapter {
	a := NewGreenhouseAdapter(testSource(model.SourceGreenhouse, srv.URL), srv.Client())
	a.now = func() time.Time { return testNow }
	return a
}

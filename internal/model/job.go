package model

import (
	"context"
	"strings"
	"time"
)

// Job is the normalized representation of a posting from any job board.
type Job struct {
	ID         string     `json:"id"`                   // sourceID + "-" + native posting id
	Title      string     `json:"title"`                // job title
	Company    string     `json:"company"`              // source display name
	Location   string     `json:"location"`             // free-form location string
	URL        string     `json:"url"`                  // direct posting link
	PostedAt   *time.Time `json:"posted_at,omitempty"`  // nullable (not all boards provide this)
	Source     string     `json:"source"`               // JobSource.ID
	Profession string     `json:"profession,omitempty"` // empty until classified
}

// JobID mints the composite id of a posting.
func JobID(sourceID, nativeID string) string {
	return sourceID + "-" + nativeID
}

// NativeID recovers the upstream posting id from a composite job id.
// Source ids may themselves contain dashes, so the known prefix is stripped
// rather than splitting on the first dash.
func NativeID(sourceID, jobID string) (string, bool) {
	prefix := sourceID + "-"
	if !strings.HasPrefix(jobID, prefix) || len(jobID) == len(prefix) {
		return "", false
	}
	return jobID[len(prefix):], true
}

// Cursor is the per-source bookmark of the newest ingested posting.
type Cursor struct {
	SourceID      string    `json:"sourceId"`
	LastJobID     string    `json:"lastJobId"` // native id, not the composite job id
	LastCheckTime time.Time `json:"lastCheckTime"`
}

// Subscriber is a chat that receives alerts for a set of professions.
type Subscriber struct {
	ChatID      int64    `json:"id"`
	Professions []string `json:"professions"`
}

// Wants reports whether the subscriber follows the given profession.
func (s Subscriber) Wants(profession string) bool {
	for _, p := range s.Professions {
		if p == profession {
			return true
		}
	}
	return false
}

// SourceAdapter fetches postings from one job board and normalizes them.
// Results are newest-first. cursorHint is the native id of the newest posting
// already ingested, or "" on a first run.
type SourceAdapter interface {
	Fetch(ctx context.Context, cursorHint string) ([]Job, error)
}

// CursorStore persists per-source cursors.
type CursorStore interface {
	Get(ctx context.Context, sourceID string) (*Cursor, error) // nil when absent
	Advance(ctx context.Context, sourceID, nativeID string) error
}

// JobStore is the dedup ledger plus the pending-notification set.
type JobStore interface {
	PublishIfNew(ctx context.Context, job Job) (bool, error)
}

// PendingLister enumerates postings that are still eligible for notification.
type PendingLister interface {
	Pending(ctx context.Context) ([]Job, error)
}

// SubscriberLister enumerates every known subscriber.
type SubscriberLister interface {
	Subscribers(ctx context.Context) ([]Subscriber, error)
}

// Sender delivers one text message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

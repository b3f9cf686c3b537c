package models

import "time"

// PostLogEntry is one immutable audit record for a post. Entries are only
// ever inserted, never updated or deleted.
type PostLogEntry struct {
	ID        int64          `db:"id" json:"id"`
	PostID    int64          `db:"post_id" json:"post_id"`
	Event     string         `db:"event" json:"event"`
	Detail    map[string]any `db:"detail" json:"detail"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

const (
	LogEventPublishingStarted = "publishing_started"
	LogEventPublished         = "published"
	LogEventFailed            = "failed"
)

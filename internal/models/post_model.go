package models

import (
	"strings"
	"time"
)

type Post struct {
	ID             int64      `db:"id" json:"id"`
	WorkspaceID    int64      `db:"workspace_id" json:"workspace_id"`
	AccountID      int64      `db:"account_id" json:"account_id"`
	AssetID        int64      `db:"asset_id" json:"asset_id"`
	Caption        string     `db:"caption" json:"caption"`
	ScheduledTime  time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Status         string     `db:"status" json:"status"` // scheduled, publishing, published, failed
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id"`
	ErrorMessage   string     `db:"error_message" json:"error_message"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID          int64     `db:"id"`
	WorkspaceID int64     `db:"workspace_id"`
	FileName    string    `db:"file_name"`
	FileType    string    `db:"file_type"`
	FileURL     string    `db:"file_url"`
	CreatedAt   time.Time `db:"created_at"`
}

// DuePost is the row shape the publishing engine works on: the post joined
// with its delivery account and media asset.
type DuePost struct {
	Post
	Platform          string `db:"platform"`
	PlatformAccountID string `db:"platform_account_id"`
	AccessToken       string `db:"access_token"`
	AccountActive     bool   `db:"is_active"`
	MediaURL          string `db:"media_url"`
	MediaKey          string `db:"media_key"`
	MediaType         string `db:"media_type"`
}

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// MediaKind collapses the stored MIME type to the image/video split the
// platform protocols care about.
func MediaKind(fileType string) string {
	if strings.HasPrefix(fileType, "video") {
		return "video"
	}
	return "image"
}

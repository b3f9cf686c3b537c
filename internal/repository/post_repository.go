package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/kavyarc11/postpilot/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.DuePost, error)
	GetDueByID(ctx context.Context, id int64) (*models.DuePost, error)
	ClaimPublishing(ctx context.Context, id int64) (bool, error)
	MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMessage string) error
	RescheduleNow(ctx context.Context, id, workspaceID int64, now time.Time) (bool, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const duePostColumns = `
	p.id, p.workspace_id, p.account_id, COALESCE(p.asset_id, 0), p.caption,
	p.scheduled_time, p.status, p.platform_post_id, p.error_message, p.published_at,
	a.platform, a.account_id, a.access_token, a.is_active,
	COALESCE(m.file_url, ''), COALESCE(m.file_name, ''), COALESCE(m.file_type, '')`

func scanDuePost(row interface{ Scan(dest ...any) error }) (*models.DuePost, error) {
	var dp models.DuePost
	err := row.Scan(
		&dp.ID, &dp.WorkspaceID, &dp.AccountID, &dp.AssetID, &dp.Caption,
		&dp.ScheduledTime, &dp.Status, &dp.PlatformPostID, &dp.ErrorMessage, &dp.PublishedAt,
		&dp.Platform, &dp.PlatformAccountID, &dp.AccessToken, &dp.AccountActive,
		&dp.MediaURL, &dp.MediaKey, &dp.MediaType,
	)
	if err != nil {
		return nil, err
	}
	return &dp, nil
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.DuePost, error) {
	query := `
		SELECT` + duePostColumns + `
		FROM posts p
		JOIN social_accounts a ON a.id = p.account_id
		LEFT JOIN media_assets m ON m.id = p.asset_id
		WHERE p.status = $1 AND p.scheduled_time <= $2
		ORDER BY p.scheduled_time ASC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.DuePost
	for rows.Next() {
		dp, err := scanDuePost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, dp)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) GetDueByID(ctx context.Context, id int64) (*models.DuePost, error) {
	query := `
		SELECT` + duePostColumns + `
		FROM posts p
		JOIN social_accounts a ON a.id = p.account_id
		LEFT JOIN media_assets m ON m.id = p.asset_id
		WHERE p.id = $1
	`
	dp, err := scanDuePost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return dp, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT id, workspace_id, account_id, COALESCE(asset_id, 0), caption, scheduled_time,
			status, platform_post_id, error_message, published_at, created_at, updated_at
		FROM posts WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	err := row.Scan(&post.ID, &post.WorkspaceID, &post.AccountID, &post.AssetID,
		&post.Caption, &post.ScheduledTime, &post.Status, &post.PlatformPostID,
		&post.ErrorMessage, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

// ClaimPublishing transitions a post from scheduled to publishing, but only
// if it is still scheduled. Returns false when another invocation claimed
// the row first.
func (r *postRepository) ClaimPublishing(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id int64, platformPostID string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			platform_post_id = $2,
			published_at = $3,
			error_message = '',
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, platformPostID, publishedAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	if len(errorMessage) > 1000 {
		errorMessage = errorMessage[:1000]
	}
	query := `
		UPDATE posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, errorMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// RescheduleNow makes a post immediately due. Only scheduled and failed
// posts can be retargeted; a post mid-publish is left alone.
func (r *postRepository) RescheduleNow(ctx context.Context, id, workspaceID int64, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET scheduled_time = $1, status = $2, updated_at = $3
		WHERE id = $4 AND workspace_id = $5 AND status IN ($6, $7)
	`
	result, err := r.db.ExecContext(ctx, query, now, models.PostStatusScheduled, time.Now(),
		id, workspaceID, models.PostStatusScheduled, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

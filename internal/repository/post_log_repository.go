package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/kavyarc11/postpilot/internal/models"
)

type PostLogRepository interface {
	Create(ctx context.Context, entry *models.PostLogEntry) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostLogEntry, error)
}

type postLogRepository struct {
	db *sql.DB
}

func NewPostLogRepository(db *sql.DB) PostLogRepository {
	return &postLogRepository{db: db}
}

func (r *postLogRepository) Create(ctx context.Context, entry *models.PostLogEntry) (int64, error) {
	detail := entry.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO post_logs (post_id, event, detail)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err = r.db.QueryRowContext(ctx, query, entry.PostID, entry.Event, detailJSON).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postLogRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostLogEntry, error) {
	query := `
		SELECT id, post_id, event, detail, created_at
		FROM post_logs
		WHERE post_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.PostLogEntry
	for rows.Next() {
		var entry models.PostLogEntry
		var detailJSON []byte
		err := rows.Scan(&entry.ID, &entry.PostID, &entry.Event, &detailJSON, &entry.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &entry.Detail); err != nil {
				slog.Info(err.Error())
				return nil, err
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return entries, nil
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/kavyarc11/postpilot/internal/models"
)

type SocialAccountRepository interface {
	ListInfoByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// ListInfoByWorkspaceID returns display fields only; tokens never leave the
// due-post query.
func (r *socialAccountRepository) ListInfoByWorkspaceID(ctx context.Context, workspaceID int64) ([]*models.SocialAccount, error) {
	query := `
		SELECT id, account_name, account_username, profile_picture_url, platform, is_active
		FROM social_accounts WHERE workspace_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.AccountName, &sa.AccountUsername, &sa.ProfilePicture, &sa.Platform, &sa.IsActive)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	return accounts, nil
}

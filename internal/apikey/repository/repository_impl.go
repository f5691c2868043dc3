package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() apikeydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO api_keys (id, user_id, name, description, permissions, status, key_type, usage_limit, usage_count, api_key, last_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.ID,
		key.UserID,
		key.Name,
		key.Description,
		key.Permissions,
		key.Status,
		key.KeyType,
		key.UsageLimit,
		key.UsageCount,
		key.Key,
		key.LastUsed,
		key.CreatedAt,
		key.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Exec(
		`UPDATE api_keys
		 SET name = ?, description = ?, permissions = ?, status = ?, key_type = ?, usage_limit = ?, usage_count = ?, api_key = ?, last_used = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		key.Name,
		key.Description,
		key.Permissions,
		key.Status,
		key.KeyType,
		key.UsageLimit,
		key.UsageCount,
		key.Key,
		key.LastUsed,
		key.UpdatedAt,
		key.UserID,
		key.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, name, description, permissions, status, key_type, usage_limit, usage_count, api_key, last_used, created_at, updated_at
		 FROM api_keys WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&key).Error
	if err != nil {
		return nil, err
	}
	if key.ID == 0 {
		return nil, nil
	}
	return &key, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM api_keys WHERE id = ?`, id).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindBySecret(ctx context.Context, db *gorm.DB, secret string) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, name, description, permissions, status, key_type, usage_limit, usage_count, api_key, last_used, created_at, updated_at
		 FROM api_keys WHERE api_key = ?`,
		secret,
	).Scan(&key).Error
	if err != nil {
		return nil, err
	}
	if key.ID == 0 {
		return nil, nil
	}
	return &key, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter apikeydomain.ListFilter, page pagination.Pagination) ([]*apikeydomain.APIKey, error) {
	query := `SELECT id, user_id, name, description, permissions, status, key_type, usage_limit, usage_count, api_key, last_used, created_at, updated_at
	 FROM api_keys WHERE user_id = ?`
	args := []any{userID}

	if filter.Search != "" {
		query += ` AND (name LIKE ? OR description LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Permission != "" {
		query += ` AND permissions = ?`
		args = append(args, filter.Permission)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, apikeydomain.ErrInvalidPageToken
		}
		cursorAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, apikeydomain.ErrInvalidPageToken
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, apikeydomain.ErrInvalidPageToken
		}
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, cursorAt, cursorAt, cursorID)
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if page.PageSize > 0 {
		query += ` LIMIT ?`
		args = append(args, page.PageSize+1)
	}

	var keys []*apikeydomain.APIKey
	err := db.WithContext(ctx).Raw(query, args...).Scan(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM api_keys WHERE user_id = ? AND id = ?`, userID, id)
	return tx.RowsAffected, tx.Error
}

func (r *repo) DeleteBulk(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := db.WithContext(ctx).Exec(`DELETE FROM api_keys WHERE user_id = ? AND id IN ?`, userID, ids)
	return tx.RowsAffected, tx.Error
}

func (r *repo) ConsumeUsage(ctx context.Context, db *gorm.DB, userID, id snowflake.ID, usedAt time.Time) (bool, error) {
	tx := db.WithContext(ctx).Exec(
		`UPDATE api_keys
		 SET usage_count = usage_count + 1, last_used = ?, updated_at = ?
		 WHERE user_id = ? AND id = ? AND usage_count < usage_limit`,
		usedAt,
		usedAt,
		userID,
		id,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

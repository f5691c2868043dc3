package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	Update(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*APIKey, error)
	Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindBySecret(ctx context.Context, db *gorm.DB, secret string) (*APIKey, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*APIKey, error)
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (int64, error)
	DeleteBulk(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids []snowflake.ID) (int64, error)

	// ConsumeUsage performs the conditional increment and reports whether a
	// row was updated. The admission decision and the side effect are a
	// single statement so concurrent requests cannot both pass at the limit.
	ConsumeUsage(ctx context.Context, db *gorm.DB, userID, id snowflake.ID, usedAt time.Time) (bool, error)
}

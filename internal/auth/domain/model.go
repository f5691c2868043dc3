// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User represents a dashboard account provisioned from an upstream
// identity provider callback.
type User struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	Email             string       `gorm:"type:text;not null;uniqueIndex"`
	Name              string       `gorm:"type:text;not null"`
	Image             string       `gorm:"type:text;not null"`
	EmailVerified     bool         `gorm:"column:email_verified;not null"`
	Provider          string       `gorm:"type:text;not null"`
	ProviderAccountID string       `gorm:"column:provider_account_id;type:text;not null"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session. Only the sha256 hash of
// the session token is stored.
type Session struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	UserID    snowflake.ID      `gorm:"column:user_id;not null;index"`
	TokenHash string            `gorm:"column:token_hash;type:text;not null;uniqueIndex"`
	ExpiresAt time.Time         `gorm:"column:expires_at;not null;index"`
	RevokedAt *time.Time        `gorm:"column:revoked_at"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

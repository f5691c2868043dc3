// Package domain contains core types for API key management.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Permission is the coarse access level attached to a key.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Status is the lifecycle state of a key.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// KeyType tags a key for display purposes only. It carries a suggested
// rate-limit hint in the dashboard but is not enforced differently.
type KeyType string

const (
	KeyTypeDevelopment KeyType = "development"
	KeyTypeProduction  KeyType = "production"
)

const (
	DefaultUsageLimit int64 = 1000
	DemoUsageLimit    int64 = 10
)

// DemoUserID is the reserved owner of anonymous demo keys. The row is
// seeded by the schema migration.
const DemoUserID snowflake.ID = 1

// APIKey is a stored key scoped to its owning user. The plaintext secret
// is kept so the dashboard can redisplay it.
type APIKey struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	UserID      snowflake.ID `gorm:"column:user_id;not null;index"`
	Name        string       `gorm:"type:text;not null"`
	Description string       `gorm:"type:text;not null"`
	Permissions Permission   `gorm:"type:text;not null;default:'read'"`
	Status      Status       `gorm:"type:text;not null;default:'active'"`
	KeyType     KeyType      `gorm:"column:key_type;type:text;not null;default:'development'"`
	UsageLimit  int64        `gorm:"column:usage_limit;not null;default:1000"`
	UsageCount  int64        `gorm:"column:usage_count;not null;default:0"`
	Key         string       `gorm:"column:api_key;type:text;not null;uniqueIndex"`
	LastUsed    *time.Time   `gorm:"column:last_used"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// Remaining reports how many admissions the key has left.
func (k *APIKey) Remaining() int64 {
	remaining := k.UsageLimit - k.UsageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

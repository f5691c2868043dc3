package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateRequest) (*APIKey, error)
	// CreateDemo issues an anonymous trial key owned by the reserved
	// demo user, with a reduced usage limit.
	CreateDemo(ctx context.Context) (*APIKey, error)
	List(ctx context.Context, userID snowflake.ID, req ListRequest) (*ListResult, error)
	Get(ctx context.Context, userID, id snowflake.ID) (*APIKey, error)
	Update(ctx context.Context, userID, id snowflake.ID, req UpdateRequest) (*APIKey, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error
	DeleteBulk(ctx context.Context, userID snowflake.ID, ids []snowflake.ID) (int64, error)
	Regenerate(ctx context.Context, userID, id snowflake.ID) (*APIKey, error)

	// Validate looks up an active key by its secret without side effects.
	Validate(ctx context.Context, secret string) (*APIKey, error)
	// Consume admits the request iff usage_count < usage_limit, atomically
	// incrementing the counter and stamping last_used on admission.
	Consume(ctx context.Context, key *APIKey) (*UsageDecision, error)
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	KeyType     KeyType `json:"keyType"`
	UsageLimit  *int64  `json:"usageLimit"`
}

type UpdateRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Permissions *Permission `json:"permissions"`
	Status      *Status     `json:"status"`
	KeyType     *KeyType    `json:"keyType"`
	UsageLimit  *int64      `json:"usageLimit"`
}

type ListFilter struct {
	Search     string
	Status     Status
	Permission Permission
}

type ListRequest struct {
	ListFilter
	PageToken string
	PageSize  int
}

type ListResult struct {
	pagination.PageInfo
	Keys []*APIKey
}

// UsageDecision is the outcome of a usage admission check.
type UsageDecision struct {
	Admitted  bool
	Limit     int64
	Used      int64
	Remaining int64
	LastUsed  *time.Time
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidKeyType    = errors.New("invalid_key_type")
	ErrInvalidPermission = errors.New("invalid_permission")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidUsageLimit = errors.New("invalid_usage_limit")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrNotFound          = errors.New("not_found")
	ErrNotOwner          = errors.New("access_denied")
	ErrInvalidKey        = errors.New("invalid_key")
)

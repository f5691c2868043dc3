package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const demoKeyName = "Demo Key"

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

// insert retries on secret collision; with 48 random characters a
// collision means a broken entropy source, not bad luck.
const maxKeyGenerationAttempts = 3

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  apikeydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  apikeydomain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) apikeydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, req apikeydomain.CreateRequest) (*apikeydomain.APIKey, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apikeydomain.ErrInvalidName
	}
	if req.KeyType != apikeydomain.KeyTypeDevelopment && req.KeyType != apikeydomain.KeyTypeProduction {
		return nil, apikeydomain.ErrInvalidKeyType
	}

	limit := apikeydomain.DefaultUsageLimit
	if req.UsageLimit != nil {
		if *req.UsageLimit <= 0 {
			return nil, apikeydomain.ErrInvalidUsageLimit
		}
		limit = *req.UsageLimit
	}

	permissions := apikeydomain.PermissionRead
	if req.KeyType == apikeydomain.KeyTypeProduction {
		permissions = apikeydomain.PermissionWrite
	}

	now := s.clock.Now()
	key := &apikeydomain.APIKey{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Permissions: permissions,
		Status:      apikeydomain.StatusActive,
		KeyType:     req.KeyType,
		UsageLimit:  limit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.insertWithFreshSecret(ctx, key); err != nil {
		return nil, err
	}

	s.log.Info("api key created",
		zap.String("key_id", key.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("key_type", string(key.KeyType)),
	)
	return key, nil
}

func (s *Service) CreateDemo(ctx context.Context) (*apikeydomain.APIKey, error) {
	now := s.clock.Now()
	key := &apikeydomain.APIKey{
		ID:          s.genID.Generate(),
		UserID:      apikeydomain.DemoUserID,
		Name:        demoKeyName,
		Permissions: apikeydomain.PermissionRead,
		Status:      apikeydomain.StatusActive,
		KeyType:     apikeydomain.KeyTypeDevelopment,
		UsageLimit:  apikeydomain.DemoUsageLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.insertWithFreshSecret(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID, req apikeydomain.ListRequest) (*apikeydomain.ListResult, error) {
	if req.Status != "" && req.Status != apikeydomain.StatusActive && req.Status != apikeydomain.StatusInactive {
		return nil, apikeydomain.ErrInvalidStatus
	}
	if req.Permission != "" && req.Permission != apikeydomain.PermissionRead && req.Permission != apikeydomain.PermissionWrite {
		return nil, apikeydomain.ErrInvalidPermission
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, err := s.repo.List(ctx, s.db, userID, req.ListFilter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(key *apikeydomain.APIKey) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        key.ID.String(),
			CreatedAt: key.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	return &apikeydomain.ListResult{PageInfo: *pageInfo, Keys: items}, nil
}

// Get distinguishes a key that does not exist from one owned by someone
// else, so the handler layer can answer 404 versus 403.
func (s *Service) Get(ctx context.Context, userID, id snowflake.ID) (*apikeydomain.APIKey, error) {
	key, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, s.missingKeyError(ctx, id)
	}
	return key, nil
}

func (s *Service) missingKeyError(ctx context.Context, id snowflake.ID) error {
	exists, err := s.repo.Exists(ctx, s.db, id)
	if err != nil {
		return err
	}
	if exists {
		return apikeydomain.ErrNotOwner
	}
	return apikeydomain.ErrNotFound
}

func (s *Service) Update(ctx context.Context, userID, id snowflake.ID, req apikeydomain.UpdateRequest) (*apikeydomain.APIKey, error) {
	key, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apikeydomain.ErrInvalidName
		}
		key.Name = name
	}
	if req.Description != nil {
		key.Description = strings.TrimSpace(*req.Description)
	}
	if req.Permissions != nil {
		if *req.Permissions != apikeydomain.PermissionRead && *req.Permissions != apikeydomain.PermissionWrite {
			return nil, apikeydomain.ErrInvalidPermission
		}
		key.Permissions = *req.Permissions
	}
	if req.Status != nil {
		if *req.Status != apikeydomain.StatusActive && *req.Status != apikeydomain.StatusInactive {
			return nil, apikeydomain.ErrInvalidStatus
		}
		key.Status = *req.Status
	}
	if req.KeyType != nil {
		if *req.KeyType != apikeydomain.KeyTypeDevelopment && *req.KeyType != apikeydomain.KeyTypeProduction {
			return nil, apikeydomain.ErrInvalidKeyType
		}
		key.KeyType = *req.KeyType
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit <= 0 {
			return nil, apikeydomain.ErrInvalidUsageLimit
		}
		key.UsageLimit = *req.UsageLimit
	}

	key.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	affected, err := s.repo.Delete(ctx, s.db, userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.missingKeyError(ctx, id)
	}
	return nil
}

func (s *Service) DeleteBulk(ctx context.Context, userID snowflake.ID, ids []snowflake.ID) (int64, error) {
	return s.repo.DeleteBulk(ctx, s.db, userID, ids)
}

// Regenerate replaces the secret and resets usage. Identity, ownership,
// limit and status never change here.
func (s *Service) Regenerate(ctx context.Context, userID, id snowflake.ID) (*apikeydomain.APIKey, error) {
	key, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	secret, err := apikeydomain.GenerateKey()
	if err != nil {
		return nil, err
	}

	key.Key = secret
	key.UsageCount = 0
	key.LastUsed = nil
	key.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		return nil, err
	}

	s.log.Info("api key regenerated", zap.String("key_id", key.ID.String()))
	return key, nil
}

func (s *Service) Validate(ctx context.Context, secret string) (*apikeydomain.APIKey, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" || !strings.HasPrefix(trimmed, apikeydomain.KeyPrefix) {
		return nil, apikeydomain.ErrInvalidKey
	}

	key, err := s.repo.FindBySecret(ctx, s.db, trimmed)
	if err != nil {
		return nil, err
	}
	if key == nil || key.Status != apikeydomain.StatusActive {
		return nil, apikeydomain.ErrInvalidKey
	}
	return key, nil
}

func (s *Service) Consume(ctx context.Context, key *apikeydomain.APIKey) (*apikeydomain.UsageDecision, error) {
	now := s.clock.Now()
	admitted, err := s.repo.ConsumeUsage(ctx, s.db, key.UserID, key.ID, now)
	if err != nil {
		return nil, err
	}

	if !admitted {
		return &apikeydomain.UsageDecision{
			Admitted:  false,
			Limit:     key.UsageLimit,
			Used:      key.UsageCount,
			Remaining: 0,
			LastUsed:  key.LastUsed,
		}, nil
	}

	used := key.UsageCount + 1
	if used > key.UsageLimit {
		used = key.UsageLimit
	}
	key.UsageCount = used
	key.LastUsed = &now

	return &apikeydomain.UsageDecision{
		Admitted:  true,
		Limit:     key.UsageLimit,
		Used:      used,
		Remaining: key.UsageLimit - used,
		LastUsed:  &now,
	}, nil
}

func (s *Service) insertWithFreshSecret(ctx context.Context, key *apikeydomain.APIKey) error {
	var err error
	for attempt := 0; attempt < maxKeyGenerationAttempts; attempt++ {
		key.Key, err = apikeydomain.GenerateKey()
		if err != nil {
			return err
		}
		err = s.repo.Insert(ctx, s.db, key)
		if err == nil || !db.IsDuplicateKeyErr(err) {
			return err
		}
	}
	return err
}

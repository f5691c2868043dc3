package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type apiKeyView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Permissions string     `json:"permissions"`
	Status      string     `json:"status"`
	KeyType     string     `json:"keyType"`
	UsageLimit  int64      `json:"usageLimit"`
	UsageCount  int64      `json:"usageCount"`
	Remaining   int64      `json:"remaining"`
	Key         string     `json:"apiKey"`
	LastUsed    *time.Time `json:"lastUsed"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toAPIKeyView(key *apikeydomain.APIKey) apiKeyView {
	return apiKeyView{
		ID:          key.ID.String(),
		Name:        key.Name,
		Description: key.Description,
		Permissions: string(key.Permissions),
		Status:      string(key.Status),
		KeyType:     string(key.KeyType),
		UsageLimit:  key.UsageLimit,
		UsageCount:  key.UsageCount,
		Remaining:   key.Remaining(),
		Key:         key.Key,
		LastUsed:    key.LastUsed,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
}

type listKeysResponse struct {
	pagination.PageInfo
	Keys []apiKeyView `json:"keys"`
}

func (s *Server) ListAPIKeys(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := apikeydomain.ListRequest{
		ListFilter: apikeydomain.ListFilter{
			Search:     strings.TrimSpace(c.Query("search")),
			Status:     apikeydomain.Status(strings.TrimSpace(c.Query("status"))),
			Permission: apikeydomain.Permission(strings.TrimSpace(c.Query("permission"))),
		},
		PageToken: page.PageToken,
		PageSize:  page.PageSize,
	}

	result, err := s.apiKeySvc.List(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]apiKeyView, 0, len(result.Keys))
	for _, key := range result.Keys {
		if key == nil {
			continue
		}
		views = append(views, toAPIKeyView(key))
	}

	c.JSON(http.StatusOK, listKeysResponse{PageInfo: result.PageInfo, Keys: views})
}

func (s *Server) CreateAPIKey(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req apikeydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	key, err := s.apiKeySvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": toAPIKeyView(key)})
}

func (s *Server) GetAPIKey(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := keyIDFromPath(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	key, err := s.apiKeySvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": toAPIKeyView(key)})
}

func (s *Server) UpdateAPIKey(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := keyIDFromPath(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req apikeydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	key, err := s.apiKeySvc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": toAPIKeyView(key)})
}

func (s *Server) DeleteAPIKey(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := keyIDFromPath(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.apiKeySvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) BulkDeleteAPIKeys(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.IDs) == 0 {
		AbortWithError(c, newValidationError("ids", "at least one id is required"))
		return
	}

	ids := make([]snowflake.ID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, newValidationError("ids", "invalid id: "+raw))
			return
		}
		ids = append(ids, id)
	}

	deleted, err := s.apiKeySvc.DeleteBulk(c.Request.Context(), userID, ids)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) RegenerateAPIKey(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := keyIDFromPath(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	key, err := s.apiKeySvc.Regenerate(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": toAPIKeyView(key)})
}

// CreateDemoKey issues an anonymous trial key. It needs no session, so
// a per-IP window keeps it from being farmed.
func (s *Server) CreateDemoKey(c *gin.Context) {
	if !s.demoLimiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	key, err := s.apiKeySvc.CreateDemo(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": toAPIKeyView(key)})
}

type validateKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// ValidateKey checks a key without consuming usage. It is deliberately
// public so the playground can probe keys before calling the summarizer.
func (s *Server) ValidateKey(c *gin.Context) {
	var req validateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	key, err := s.apiKeySvc.Validate(c.Request.Context(), strings.TrimSpace(req.APIKey))
	if errors.Is(err, apikeydomain.ErrInvalidKey) {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "invalid_api_key"})
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	keyInfo := gin.H{
		"name":        key.Name,
		"keyType":     string(key.KeyType),
		"permissions": string(key.Permissions),
		"usageLimit":  key.UsageLimit,
		"usageCount":  key.UsageCount,
		"remaining":   key.Remaining(),
	}
	if owner, err := s.authsvc.UserByID(c.Request.Context(), key.UserID); err == nil {
		keyInfo["user"] = gin.H{
			"id":    owner.ID.String(),
			"name":  owner.Name,
			"email": owner.Email,
		}
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "keyInfo": keyInfo})
}

func keyIDFromPath(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, apikeydomain.ErrNotFound
	}
	return id, nil
}

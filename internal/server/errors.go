package server

import (
	"errors"
	"net/http"
	"strings"

	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	authdomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/domain"
	githubprovider "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/github"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates request validation failures into one error.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: message})
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func invalidRequestError() error {
	return newValidationError("body", "invalid json payload")
}

func newValidationError(field, message string) error {
	v := &ValidationErrors{}
	v.Add(field, message)
	return v
}

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []ValidationError `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware converts errors attached to the gin context into
// a consistent JSON error envelope.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}
		if c.Writer.Written() {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.JSON(status, errorResponse{Error: payload})
	}
}

// AbortWithError records err on the context and stops handler processing.
// The response body is rendered later by ErrorHandlingMiddleware.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var validationErrs *ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, errorPayload{
			Code:    "validation_error",
			Message: "request validation failed",
			Details: validationErrs.Errors,
		}
	}

	switch {
	case errors.Is(err, authdomain.ErrInvalidSignIn):
		return http.StatusBadRequest, errorPayload{Code: "invalid_sign_in", Message: "email is required and must be valid"}
	case errors.Is(err, apikeydomain.ErrInvalidName):
		return http.StatusBadRequest, errorPayload{Code: "invalid_name", Message: "name is required"}
	case errors.Is(err, apikeydomain.ErrInvalidKeyType):
		return http.StatusBadRequest, errorPayload{Code: "invalid_key_type", Message: "key type must be development or production"}
	case errors.Is(err, apikeydomain.ErrInvalidPermission):
		return http.StatusBadRequest, errorPayload{Code: "invalid_permission", Message: "permission must be read or write"}
	case errors.Is(err, apikeydomain.ErrInvalidStatus):
		return http.StatusBadRequest, errorPayload{Code: "invalid_status", Message: "status must be active or inactive"}
	case errors.Is(err, apikeydomain.ErrInvalidPageToken):
		return http.StatusBadRequest, errorPayload{Code: "invalid_page_token", Message: "page token is malformed"}
	case errors.Is(err, apikeydomain.ErrInvalidUsageLimit):
		return http.StatusBadRequest, errorPayload{Code: "invalid_usage_limit", Message: "usage limit must be greater than zero"}
	case errors.Is(err, githubprovider.ErrInvalidRepoURL):
		return http.StatusBadRequest, errorPayload{Code: "invalid_github_url", Message: "a valid https github.com repository URL is required"}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, authdomain.ErrInvalidSession):
		return http.StatusUnauthorized, errorPayload{Code: "unauthorized", Message: "authentication required"}
	case errors.Is(err, apikeydomain.ErrInvalidKey):
		return http.StatusUnauthorized, errorPayload{Code: "invalid_api_key", Message: "invalid api key"}
	case errors.Is(err, apikeydomain.ErrNotOwner):
		return http.StatusForbidden, errorPayload{Code: "access_denied", Message: "you do not have access to this api key"}
	case errors.Is(err, apikeydomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{Code: "not_found", Message: "api key not found"}
	case errors.Is(err, authdomain.ErrUserNotFound):
		return http.StatusNotFound, errorPayload{Code: "not_found", Message: "user not found"}
	case errors.Is(err, githubprovider.ErrRepositoryNotFound):
		return http.StatusNotFound, errorPayload{Code: "repository_not_found", Message: "github repository not found"}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{Code: "rate_limited", Message: "rate limit exceeded"}
	case errors.Is(err, githubprovider.ErrUpstream):
		return http.StatusInternalServerError, errorPayload{Code: "upstream_unavailable", Message: "github is unavailable, try again later"}
	default:
		return http.StatusInternalServerError, errorPayload{Code: "internal_error", Message: "internal server error"}
	}
}

// classifyErrorForLog tags request log lines with a coarse error family.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limited", payload.Code
	case status >= http.StatusInternalServerError:
		return "internal", payload.Code
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth", payload.Code
	default:
		return "client", payload.Code
	}
}

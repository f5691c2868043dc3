package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	obscontext "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/observability/context"
	githubprovider "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/providers/github"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiKeyHeader = "x-api-key"

type summarizeRequest struct {
	GitHubURL string `json:"githubUrl"`
}

// GitHubSummarizer is the metered endpoint: the key in the x-api-key
// header is validated, charged one unit of usage, and the repository
// is fetched and summarized. Usage headers are written on both admitted
// and rejected requests so clients can see where they stand.
func (s *Server) GitHubSummarizer(c *gin.Context) {
	started := s.clock.Now()

	secret := strings.TrimSpace(c.GetHeader(apiKeyHeader))
	if secret == "" {
		AbortWithError(c, apikeydomain.ErrInvalidKey)
		return
	}

	key, err := s.apiKeySvc.Validate(c.Request.Context(), secret)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Request = c.Request.WithContext(
		obscontext.WithActor(c.Request.Context(), "api_key", key.ID.String()))

	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.GitHubURL) == "" {
		AbortWithError(c, newValidationError("githubUrl", "githubUrl is required"))
		return
	}
	// Reject malformed URLs before the key is charged.
	if _, _, err := githubprovider.ParseRepoURL(req.GitHubURL); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.limiter.Enabled() {
		burst, err := s.limiter.Allow(c.Request.Context(), key.ID.String())
		if err != nil {
			// Redis being down must not take the endpoint with it.
			s.log.Warn("rate limiter unavailable", zap.Error(err))
		} else if !burst.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(burst.RetryAfter.Seconds())+1))
			AbortWithError(c, ErrRateLimited)
			return
		}
	}

	decision, err := s.apiKeySvc.Consume(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.writeUsageHeaders(c, decision.Limit, decision.Used, decision.Remaining)

	if !decision.Admitted {
		s.writeTimingHeader(c, started)
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":    "usage_limit_exceeded",
				"message": "api key usage limit exceeded",
			},
			"usage": gin.H{
				"limit":     decision.Limit,
				"used":      decision.Used,
				"remaining": decision.Remaining,
			},
		})
		return
	}

	result, err := s.summarySvc.Summarize(c.Request.Context(), req.GitHubURL)
	if err != nil {
		s.writeTimingHeader(c, started)
		AbortWithError(c, err)
		return
	}

	apiKeyInfo := gin.H{
		"name":        key.Name,
		"permissions": string(key.Permissions),
		"usage": gin.H{
			"limit":     decision.Limit,
			"used":      decision.Used,
			"remaining": decision.Remaining,
		},
	}
	if owner, err := s.authsvc.UserByID(c.Request.Context(), key.UserID); err == nil {
		apiKeyInfo["user"] = gin.H{
			"id":    owner.ID.String(),
			"name":  owner.Name,
			"email": owner.Email,
		}
	}

	s.writeTimingHeader(c, started)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"summary":       result.Summary,
		"repository":    result.Snapshot.Repository,
		"latestRelease": result.Snapshot.Release,
		"recentCommits": result.Snapshot.Commits,
		"apiKeyInfo":    apiKeyInfo,
	})
}

func (s *Server) writeUsageHeaders(c *gin.Context, limit, used, remaining int64) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
	c.Header("X-RateLimit-Used", strconv.FormatInt(used, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
}

func (s *Server) writeTimingHeader(c *gin.Context, started time.Time) {
	elapsed := s.clock.Now().Sub(started)
	c.Header("X-Response-Time-Ms", strconv.FormatInt(elapsed.Milliseconds(), 10))
}

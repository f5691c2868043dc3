package server

import (
	"net/http"
	"strings"

	authdomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Provider string `json:"provider,omitempty"`
}

func toUserView(u *authdomain.User) userView {
	return userView{
		ID:       u.ID.String(),
		Email:    u.Email,
		Name:     u.Name,
		Image:    u.Image,
		Provider: u.Provider,
	}
}

func (s *Server) SignIn(c *gin.Context) {
	var req authdomain.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		AbortWithError(c, newValidationError("email", "email is required"))
		return
	}

	result, err := s.authsvc.SignIn(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusOK, gin.H{
		"user":      toUserView(result.User),
		"expiresAt": result.ExpiresAt,
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Debug("logout with stale session token", zap.Error(err))
		}
	}

	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.UserByID(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserView(user)})
}

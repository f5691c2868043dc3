package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
)

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock
}

func New(log *zap.Logger, repo domain.Repository, sessionRepo domain.SessionRepository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &Service{
		log:         log.Named("auth.service"),
		repo:        repo,
		sessionRepo: sessionRepo,
		genID:       genID,
		clock:       clk,
	}
}

// SignIn upserts the user record from a verified provider callback and
// issues a fresh session.
func (s *Service) SignIn(ctx context.Context, req domain.SignInRequest) (*domain.SignInResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidSignIn
	}

	now := s.clock.Now()
	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user = &domain.User{
			ID:                s.genID.Generate(),
			Email:             email,
			Name:              strings.TrimSpace(req.Name),
			Image:             strings.TrimSpace(req.Image),
			EmailVerified:     true,
			Provider:          strings.TrimSpace(req.Provider),
			ProviderAccountID: strings.TrimSpace(req.ProviderAccountID),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.Info("user created", zap.String("user_id", user.ID.String()))
	case err != nil:
		return nil, err
	default:
		fields := map[string]any{
			"updated_at": now,
		}
		if name := strings.TrimSpace(req.Name); name != "" && name != user.Name {
			fields["name"] = name
			user.Name = name
		}
		if image := strings.TrimSpace(req.Image); image != "" && image != user.Image {
			fields["image"] = image
			user.Image = image
		}
		if provider := strings.TrimSpace(req.Provider); provider != "" {
			fields["provider"] = provider
			fields["provider_account_id"] = strings.TrimSpace(req.ProviderAccountID)
			user.Provider = provider
			user.ProviderAccountID = strings.TrimSpace(req.ProviderAccountID)
		}
		if err := s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
			return nil, err
		}
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(sessionTTL),
		Metadata: datatypes.JSONMap{
			"provider": user.Provider,
			"email":    user.Email,
		},
		CreatedAt: now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.SignInResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	return session, nil
}

func (s *Service) UserByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.ErrInvalidSignIn
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

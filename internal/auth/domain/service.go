package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service handles the post-callback boundary of the identity flow: the
// upstream provider has already verified the user, we persist the
// account and issue our own session.
type Service interface {
	SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	UserByID(ctx context.Context, id snowflake.ID) (*User, error)
}

type SignInRequest struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Image             string `json:"image"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
}

type SignInResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

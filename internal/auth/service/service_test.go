package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/auth/repository"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, clk clock.Clock) authdomain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(zap.NewNop(), repo, sessionRepo, node, clk)
}

func TestSignInCreatesUserAndSession(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})

	result, err := svc.SignIn(context.Background(), authdomain.SignInRequest{
		Email:             "Alice@Example.com",
		Name:              "Alice",
		Provider:          "google",
		ProviderAccountID: "google-123",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.User.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", result.User.Email)
	}
	if result.RawToken == "" {
		t.Fatal("expected session token")
	}

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.UserID != result.User.ID {
		t.Fatalf("session user mismatch: %v != %v", session.UserID, result.User.ID)
	}
}

func TestSignInUpsertsExistingUser(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})

	first, err := svc.SignIn(context.Background(), authdomain.SignInRequest{
		Email:    "bob@example.com",
		Name:     "Bob",
		Provider: "google",
	})
	if err != nil {
		t.Fatalf("first sign in: %v", err)
	}

	second, err := svc.SignIn(context.Background(), authdomain.SignInRequest{
		Email:    "bob@example.com",
		Name:     "Robert",
		Provider: "github",
	})
	if err != nil {
		t.Fatalf("second sign in: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Fatalf("expected same user id, got %v and %v", first.User.ID, second.User.ID)
	}
	if second.User.Name != "Robert" {
		t.Fatalf("expected updated name, got %s", second.User.Name)
	}
	if second.User.Provider != "github" {
		t.Fatalf("expected updated provider, got %s", second.User.Provider)
	}
}

func TestSignInRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})

	_, err := svc.SignIn(context.Background(), authdomain.SignInRequest{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected error for invalid email")
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestService(t, clk)

	result, err := svc.SignIn(context.Background(), authdomain.SignInRequest{
		Email: "carol@example.com",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	clk.Advance(8 * 24 * time.Hour)

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	if err != authdomain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService(t, clock.SystemClock{})

	result, err := svc.SignIn(context.Background(), authdomain.SignInRequest{
		Email: "dave@example.com",
	})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	if err != authdomain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

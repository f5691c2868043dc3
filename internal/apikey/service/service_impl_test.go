package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/domain"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/apikey/repository"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, clk clock.Clock) (apikeydomain.Service, *gorm.DB) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&apikeydomain.APIKey{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, dbConn
}

func intPtr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func statusPtr(v apikeydomain.Status) *apikeydomain.Status { return &v }

func TestCreateDerivesPermissionsFromKeyType(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	dev, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "dev key",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create dev: %v", err)
	}
	if dev.Permissions != apikeydomain.PermissionRead {
		t.Fatalf("expected read permission, got %s", dev.Permissions)
	}
	if dev.UsageLimit != apikeydomain.DefaultUsageLimit {
		t.Fatalf("expected default limit, got %d", dev.UsageLimit)
	}
	if !strings.HasPrefix(dev.Key, apikeydomain.KeyPrefix) {
		t.Fatalf("expected key prefix, got %q", dev.Key)
	}

	prod, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "prod key",
		KeyType: apikeydomain.KeyTypeProduction,
	})
	if err != nil {
		t.Fatalf("create prod: %v", err)
	}
	if prod.Permissions != apikeydomain.PermissionWrite {
		t.Fatalf("expected write permission, got %s", prod.Permissions)
	}
}

func TestCreateRequiresNameAndKeyType(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	_, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != apikeydomain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	_, err = svc.Create(context.Background(), owner, apikeydomain.CreateRequest{Name: "x"})
	if err != apikeydomain.ErrInvalidKeyType {
		t.Fatalf("expected ErrInvalidKeyType, got %v", err)
	}
}

func TestCreateDemoUsesReducedLimit(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})

	key, err := svc.CreateDemo(context.Background())
	if err != nil {
		t.Fatalf("create demo: %v", err)
	}
	if key.UsageLimit != apikeydomain.DemoUsageLimit {
		t.Fatalf("expected demo limit %d, got %d", apikeydomain.DemoUsageLimit, key.UsageLimit)
	}
	if key.UserID != apikeydomain.DemoUserID {
		t.Fatalf("expected demo owner, got %s", key.UserID)
	}
}

func TestConsumeBoundary(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:       "limited",
		KeyType:    apikeydomain.KeyTypeDevelopment,
		UsageLimit: intPtr(10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Drain to the second-to-last admission.
	for i := 0; i < 9; i++ {
		decision, err := svc.Consume(context.Background(), key)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !decision.Admitted {
			t.Fatalf("expected admission at count %d", i)
		}
	}

	decision, err := svc.Consume(context.Background(), key)
	if err != nil {
		t.Fatalf("consume at 9: %v", err)
	}
	if !decision.Admitted {
		t.Fatal("expected admission with count 9 of limit 10")
	}
	if decision.Used != 10 || decision.Remaining != 0 {
		t.Fatalf("expected used=10 remaining=0, got used=%d remaining=%d", decision.Used, decision.Remaining)
	}

	decision, err = svc.Consume(context.Background(), key)
	if err != nil {
		t.Fatalf("consume at 10: %v", err)
	}
	if decision.Admitted {
		t.Fatal("expected rejection at limit")
	}
	if decision.Remaining != 0 {
		t.Fatalf("expected remaining=0 on rejection, got %d", decision.Remaining)
	}

	got, err := svc.Get(context.Background(), owner, key.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UsageCount != 10 {
		t.Fatalf("rejection must not increment the counter, got %d", got.UsageCount)
	}
}

func TestConsumeIsOwnerScoped(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "scoped",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tampered := *key
	tampered.UserID = snowflake.ID(200)
	decision, err := svc.Consume(context.Background(), &tampered)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if decision.Admitted {
		t.Fatal("expected rejection for a mismatched owner")
	}

	got, err := svc.Get(context.Background(), owner, key.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UsageCount != 0 {
		t.Fatalf("mismatched owner must not touch the counter, got %d", got.UsageCount)
	}
}

func TestConsumeRejectionReportsActualCount(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:       "shrunk",
		KeyType:    apikeydomain.KeyTypeDevelopment,
		UsageLimit: intPtr(3),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Consume(context.Background(), key); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	// Shrinking the limit below the spent count must not hide the real count.
	if _, err := svc.Update(context.Background(), owner, key.ID, apikeydomain.UpdateRequest{
		UsageLimit: intPtr(2),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(context.Background(), owner, key.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	decision, err := svc.Consume(context.Background(), got)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if decision.Admitted {
		t.Fatal("expected rejection with count above the limit")
	}
	if decision.Limit != 2 || decision.Used != 3 || decision.Remaining != 0 {
		t.Fatalf("expected limit=2 used=3 remaining=0, got limit=%d used=%d remaining=%d",
			decision.Limit, decision.Used, decision.Remaining)
	}
}

func TestConsumeStampsLastUsed(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "stamped",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if key.LastUsed != nil {
		t.Fatal("expected nil last_used on fresh key")
	}

	decision, err := svc.Consume(context.Background(), key)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if decision.LastUsed == nil || !decision.LastUsed.Equal(clk.Now()) {
		t.Fatalf("expected last_used %v, got %v", clk.Now(), decision.LastUsed)
	}
}

func TestRegenerateResetsUsage(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:       "rotate me",
		KeyType:    apikeydomain.KeyTypeProduction,
		UsageLimit: intPtr(5),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldSecret := key.Key

	for i := 0; i < 3; i++ {
		if _, err := svc.Consume(context.Background(), key); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}

	regenerated, err := svc.Regenerate(context.Background(), owner, key.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if regenerated.Key == oldSecret {
		t.Fatal("expected a new secret")
	}
	if regenerated.UsageCount != 0 {
		t.Fatalf("expected usage reset, got %d", regenerated.UsageCount)
	}
	if regenerated.LastUsed != nil {
		t.Fatal("expected last_used cleared")
	}
	if regenerated.ID != key.ID || regenerated.UserID != owner {
		t.Fatal("identity must not change on regenerate")
	}
	if regenerated.UsageLimit != 5 || regenerated.Status != apikeydomain.StatusActive {
		t.Fatal("limit and status must not change on regenerate")
	}

	// The old secret stops working immediately.
	if _, err := svc.Validate(context.Background(), oldSecret); err != apikeydomain.ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey for old secret, got %v", err)
	}
	if _, err := svc.Validate(context.Background(), regenerated.Key); err != nil {
		t.Fatalf("expected new secret valid, got %v", err)
	}

	again, err := svc.Regenerate(context.Background(), owner, key.ID)
	if err != nil {
		t.Fatalf("second regenerate: %v", err)
	}
	if again.Key == regenerated.Key {
		t.Fatal("expected a distinct secret on every rotation")
	}
	if _, err := svc.Validate(context.Background(), regenerated.Key); err != apikeydomain.ErrInvalidKey {
		t.Fatalf("expected previous secret invalid after second rotation, got %v", err)
	}
	if _, err := svc.Validate(context.Background(), again.Key); err != nil {
		t.Fatalf("expected latest secret valid, got %v", err)
	}
}

func TestValidateRejectsInactiveKey(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "soon inactive",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Validate(context.Background(), key.Key); err != nil {
		t.Fatalf("expected active key valid, got %v", err)
	}

	if _, err := svc.Update(context.Background(), owner, key.ID, apikeydomain.UpdateRequest{
		Status: statusPtr(apikeydomain.StatusInactive),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := svc.Validate(context.Background(), key.Key); err != apikeydomain.ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey for inactive key, got %v", err)
	}
}

func TestValidateRejectsMalformedSecret(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})

	for _, secret := range []string{"", "   ", "sk-whatever", "smo"} {
		if _, err := svc.Validate(context.Background(), secret); err != apikeydomain.ErrInvalidKey {
			t.Fatalf("secret %q: expected ErrInvalidKey, got %v", secret, err)
		}
	}
}

func TestOperationsAreOwnerScoped(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)
	stranger := snowflake.ID(200)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "private",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), stranger, key.ID); err != apikeydomain.ErrNotOwner {
		t.Fatalf("expected ErrNotOwner for foreign get, got %v", err)
	}
	if _, err := svc.Update(context.Background(), stranger, key.ID, apikeydomain.UpdateRequest{
		Name: strPtr("stolen"),
	}); err != apikeydomain.ErrNotOwner {
		t.Fatalf("expected ErrNotOwner for foreign update, got %v", err)
	}
	if err := svc.Delete(context.Background(), stranger, key.ID); err != apikeydomain.ErrNotOwner {
		t.Fatalf("expected ErrNotOwner for foreign delete, got %v", err)
	}
	if _, err := svc.Regenerate(context.Background(), stranger, key.ID); err != apikeydomain.ErrNotOwner {
		t.Fatalf("expected ErrNotOwner for foreign regenerate, got %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, snowflake.ID(999)); err != apikeydomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	result, err := svc.List(context.Background(), stranger, apikeydomain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Keys) != 0 {
		t.Fatalf("expected empty list for stranger, got %d", len(result.Keys))
	}
}

func TestDeleteMissingKeyIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "to delete",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), owner, key.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), owner, key.ID); err != apikeydomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteBulkCountsOnlyOwnedRows(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)
	stranger := snowflake.ID(200)

	mine, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "mine",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create mine: %v", err)
	}
	theirs, err := svc.Create(context.Background(), stranger, apikeydomain.CreateRequest{
		Name:    "theirs",
		KeyType: apikeydomain.KeyTypeDevelopment,
	})
	if err != nil {
		t.Fatalf("create theirs: %v", err)
	}

	deleted, err := svc.DeleteBulk(context.Background(), owner, []snowflake.ID{mine.ID, theirs.ID})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	if _, err := svc.Get(context.Background(), stranger, theirs.ID); err != nil {
		t.Fatalf("stranger's key must survive, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	alpha, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "alpha service",
		KeyType: apikeydomain.KeyTypeProduction,
	})
	if err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	if _, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
		Name:    "beta service",
		KeyType: apikeydomain.KeyTypeDevelopment,
	}); err != nil {
		t.Fatalf("create beta: %v", err)
	}

	result, err := svc.List(context.Background(), owner, apikeydomain.ListRequest{
		ListFilter: apikeydomain.ListFilter{Search: "alpha"},
	})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if len(result.Keys) != 1 || result.Keys[0].ID != alpha.ID {
		t.Fatalf("expected only alpha, got %d keys", len(result.Keys))
	}

	result, err = svc.List(context.Background(), owner, apikeydomain.ListRequest{
		ListFilter: apikeydomain.ListFilter{Permission: apikeydomain.PermissionWrite},
	})
	if err != nil {
		t.Fatalf("list permission: %v", err)
	}
	if len(result.Keys) != 1 || result.Keys[0].ID != alpha.ID {
		t.Fatalf("expected only the production key, got %d keys", len(result.Keys))
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	created := make(map[snowflake.ID]bool)
	for i := 0; i < 5; i++ {
		key, err := svc.Create(context.Background(), owner, apikeydomain.CreateRequest{
			Name:    "paged",
			KeyType: apikeydomain.KeyTypeDevelopment,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		created[key.ID] = true
	}

	first, err := svc.List(context.Background(), owner, apikeydomain.ListRequest{PageSize: 3})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Keys) != 3 {
		t.Fatalf("expected 3 keys on first page, got %d", len(first.Keys))
	}
	if !first.HasMore {
		t.Fatal("expected more pages")
	}
	if first.NextPageToken == "" {
		t.Fatal("expected a next page token")
	}

	second, err := svc.List(context.Background(), owner, apikeydomain.ListRequest{
		PageSize:  3,
		PageToken: first.NextPageToken,
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Keys) != 2 {
		t.Fatalf("expected 2 keys on second page, got %d", len(second.Keys))
	}
	if second.HasMore {
		t.Fatal("expected no further pages")
	}

	seen := make(map[snowflake.ID]bool)
	for _, key := range append(first.Keys, second.Keys...) {
		if seen[key.ID] {
			t.Fatalf("key %s returned twice", key.ID)
		}
		seen[key.ID] = true
		if !created[key.ID] {
			t.Fatalf("unexpected key %s", key.ID)
		}
	}
}

func TestListRejectsMalformedPageToken(t *testing.T) {
	svc, _ := newTestService(t, clock.SystemClock{})
	owner := snowflake.ID(100)

	if _, err := svc.List(context.Background(), owner, apikeydomain.ListRequest{PageToken: "not-base64!"}); err != apikeydomain.ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

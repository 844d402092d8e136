package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vietlong-68/auth-service/internal/models"
)

func newCleanupForTest(deepCleanupDays int) (TokenCleanupService, *memoryStore) {
	store := newMemoryStore()
	cleanup := NewTokenCleanupService(
		&memActiveRepo{s: store},
		&memBlacklistRepo{s: store},
		deepCleanupDays,
	)
	return cleanup, store
}

func seedActive(store *memoryStore, tokenID string, userID uuid.UUID, expiresAt time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.active[tokenID] = &models.ActiveToken{
		ID:        uuid.New(),
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

func seedBlacklisted(store *memoryStore, tokenID string, userID uuid.UUID, expiresAt time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.blacklisted[tokenID] = &models.BlacklistedToken{
		ID:            uuid.New(),
		TokenID:       tokenID,
		UserID:        userID,
		ExpiresAt:     expiresAt,
		BlacklistedAt: time.Now(),
		Reason:        models.ReasonLogout,
	}
}

func TestCleanupExpiredActiveTokens(t *testing.T) {
	ctx := context.Background()
	cleanup, store := newCleanupForTest(7)
	userID := uuid.New()

	seedActive(store, "jti-expired", userID, time.Now().Add(-time.Minute))
	seedActive(store, "jti-live", userID, time.Now().Add(time.Hour))

	deleted, err := cleanup.CleanupExpiredActiveTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	require.NotContains(t, store.active, "jti-expired")
	require.Contains(t, store.active, "jti-live")
}

func TestCleanupExpiredBlacklistedTokens(t *testing.T) {
	ctx := context.Background()
	cleanup, store := newCleanupForTest(7)
	userID := uuid.New()

	seedBlacklisted(store, "jti-expired", userID, time.Now().Add(-time.Minute))
	seedBlacklisted(store, "jti-live", userID, time.Now().Add(time.Hour))

	deleted, err := cleanup.CleanupExpiredBlacklistedTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	require.NotContains(t, store.blacklisted, "jti-expired")
	require.Contains(t, store.blacklisted, "jti-live")
}

func TestDeepCleanupOldTokens(t *testing.T) {
	ctx := context.Background()
	cleanup, store := newCleanupForTest(7)
	userID := uuid.New()

	// expired ten days ago: past the retention window
	seedBlacklisted(store, "jti-ancient", userID, time.Now().AddDate(0, 0, -10))
	// expired two days ago: still inside the window, kept for audit queries
	seedBlacklisted(store, "jti-recent", userID, time.Now().AddDate(0, 0, -2))
	seedBlacklisted(store, "jti-live", userID, time.Now().Add(time.Hour))

	deleted, err := cleanup.DeepCleanupOldTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	require.NotContains(t, store.blacklisted, "jti-ancient")
	require.Contains(t, store.blacklisted, "jti-recent")
	require.Contains(t, store.blacklisted, "jti-live")
}

func TestCleanupOrphanedTokens(t *testing.T) {
	ctx := context.Background()
	cleanup, store := newCleanupForTest(7)
	owner := &models.User{ID: uuid.New(), Email: "owner@example.com"}
	store.addUser(owner)
	ghostID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	seedActive(store, "jti-owned", owner.ID, expiresAt)
	seedActive(store, "jti-ghost-active", ghostID, expiresAt)
	seedBlacklisted(store, "jti-owned-black", owner.ID, expiresAt)
	seedBlacklisted(store, "jti-ghost-black", ghostID, expiresAt)

	deleted, err := cleanup.CleanupOrphanedTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	require.Contains(t, store.active, "jti-owned")
	require.Contains(t, store.blacklisted, "jti-owned-black")
	require.NotContains(t, store.active, "jti-ghost-active")
	require.NotContains(t, store.blacklisted, "jti-ghost-black")
}

// flakyActiveRepo fails the first DeleteExpiredBefore with a transient
// network error, then delegates.
type flakyActiveRepo struct {
	memActiveRepo
	failed bool
}

func (r *flakyActiveRepo) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	if !r.failed {
		r.failed = true
		return 0, io.EOF
	}
	return r.memActiveRepo.DeleteExpiredBefore(ctx, t)
}

func TestCleanupRetriesTransientErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("retry back-off sleeps")
	}

	ctx := context.Background()
	store := newMemoryStore()
	repo := &flakyActiveRepo{memActiveRepo: memActiveRepo{s: store}}
	cleanup := NewTokenCleanupService(repo, &memBlacklistRepo{s: store}, 7)

	seedActive(store, "jti-expired", uuid.New(), time.Now().Add(-time.Minute))

	deleted, err := cleanup.CleanupExpiredActiveTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
	require.True(t, repo.failed)
}

func TestCleanupDoesNotRetryPermanentErrors(t *testing.T) {
	ctx := context.Background()
	cleanup, store := newCleanupForTest(7)
	store.activeErr = errors.New("relation does not exist")

	_, err := cleanup.CleanupExpiredActiveTokens(ctx)
	require.Error(t, err)
}

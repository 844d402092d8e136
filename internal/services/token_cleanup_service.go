package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/vietlong-68/auth-service/internal/repositories"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// One retry on transient network errors (EOF, closed connection) with a
// small back-off.
const cleanupRetryDelay = 3 * time.Second

// TokenCleanupService runs the reconciliation sweeps over both ledgers.
// Each sweep is independent: a fault is logged and swallowed by the
// scheduled wrappers so one failing sweep never aborts the process or
// blocks the next firing.
type TokenCleanupService interface {
	// CleanupExpiredActiveTokens deletes active rows whose expiry has passed.
	CleanupExpiredActiveTokens(ctx context.Context) (int64, error)

	// CleanupExpiredBlacklistedTokens deletes blacklisted rows whose expiry
	// has passed; once the token itself is expired the row is bookkeeping
	// weight only.
	CleanupExpiredBlacklistedTokens(ctx context.Context) (int64, error)

	// DeepCleanupOldTokens deletes blacklisted rows whose expiry passed more
	// than the configured number of days ago. Safety net for a delayed or
	// disabled expired-blacklist sweep, with a grace window for audit queries.
	DeepCleanupOldTokens(ctx context.Context) (int64, error)

	// CleanupOrphanedTokens deletes rows in either ledger whose owner no
	// longer exists in the account store.
	CleanupOrphanedTokens(ctx context.Context) (int64, error)
}

type tokenCleanupService struct {
	activeRepo      repositories.ActiveTokenRepository
	blacklistRepo   repositories.BlacklistedTokenRepository
	deepCleanupDays int
}

func NewTokenCleanupService(
	activeRepo repositories.ActiveTokenRepository,
	blacklistRepo repositories.BlacklistedTokenRepository,
	deepCleanupDays int,
) TokenCleanupService {
	return &tokenCleanupService{
		activeRepo:      activeRepo,
		blacklistRepo:   blacklistRepo,
		deepCleanupDays: deepCleanupDays,
	}
}

// runWithRetry executes op(ctx) and, if it returns a transient network
// error (EOF, pgconn safe-to-retry, or the common closed-connection
// message), waits a moment then retries once.
func (s *tokenCleanupService) runWithRetry(
	ctx context.Context,
	op func(context.Context) (int64, error),
) (int64, error) {
	n, err := op(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
			strings.Contains(err.Error(), "connection was closed") {
			utils.Logger.WithError(err).Warn("token cleanup hit transient DB error; retrying once")
			time.Sleep(cleanupRetryDelay)
			return op(ctx)
		}
		return 0, err
	}
	return n, nil
}

func (s *tokenCleanupService) CleanupExpiredActiveTokens(ctx context.Context) (int64, error) {
	deleted, err := s.runWithRetry(ctx, func(ctx context.Context) (int64, error) {
		return s.activeRepo.DeleteExpiredBefore(ctx, time.Now())
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		utils.Logger.Infof("Deleted %d expired active tokens", deleted)
	}
	return deleted, nil
}

func (s *tokenCleanupService) CleanupExpiredBlacklistedTokens(ctx context.Context) (int64, error) {
	deleted, err := s.runWithRetry(ctx, func(ctx context.Context) (int64, error) {
		return s.blacklistRepo.DeleteExpiredBefore(ctx, time.Now())
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		utils.Logger.Infof("Deleted %d expired blacklisted tokens", deleted)
	}
	return deleted, nil
}

func (s *tokenCleanupService) DeepCleanupOldTokens(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.deepCleanupDays)
	deleted, err := s.runWithRetry(ctx, func(ctx context.Context) (int64, error) {
		return s.blacklistRepo.DeleteExpiredBefore(ctx, cutoff)
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		utils.Logger.Infof("Deep cleanup: deleted %d old blacklisted tokens", deleted)
	}
	return deleted, nil
}

func (s *tokenCleanupService) CleanupOrphanedTokens(ctx context.Context) (int64, error) {
	deletedBlacklisted, err := s.runWithRetry(ctx, func(ctx context.Context) (int64, error) {
		return s.blacklistRepo.DeleteOrphaned(ctx)
	})
	if err != nil {
		return 0, err
	}

	deletedActive, err := s.runWithRetry(ctx, func(ctx context.Context) (int64, error) {
		return s.activeRepo.DeleteOrphaned(ctx)
	})
	if err != nil {
		return 0, err
	}

	if deletedBlacklisted > 0 || deletedActive > 0 {
		utils.Logger.Infof("Orphaned cleanup: deleted %d blacklisted and %d active tokens",
			deletedBlacklisted, deletedActive)
	}
	return deletedBlacklisted + deletedActive, nil
}

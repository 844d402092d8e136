package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietlong-68/auth-service/internal/models"
	"github.com/vietlong-68/auth-service/internal/repositories"
	"github.com/vietlong-68/auth-service/internal/utils"
)

// BlacklistStats is a point-in-time snapshot of the blacklist ledger.
// ActiveTokens counts blacklisted rows whose own expiry has not yet passed.
type BlacklistStats struct {
	TotalTokens   int64 `json:"total_tokens"`
	ExpiredTokens int64 `json:"expired_tokens"`
	ActiveTokens  int64 `json:"active_tokens"`
}

// TokenLedgerService owns the write path of both token ledgers. It enforces
// at-most-once insertion per token ID, the active→blacklisted promotion, and
// the idempotency contract: re-recording an already-active token or
// re-revoking an already-blacklisted one is success, not an error.
type TokenLedgerService interface {
	SaveActiveToken(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time, deviceInfo string) error
	BlacklistToken(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time, reason string) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
	BlacklistAllUserTokens(ctx context.Context, userID uuid.UUID, reason string) error
	GetBlacklistStats(ctx context.Context) (*BlacklistStats, error)
	GetActiveTokensByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ActiveToken, error)
	GetBlacklistedTokenCount(ctx context.Context, userID uuid.UUID) (int64, error)
	ManualCleanup(ctx context.Context) (int64, error)
	ManualCleanupOrphaned(ctx context.Context) (int64, error)
}

type tokenLedgerService struct {
	activeRepo    repositories.ActiveTokenRepository
	blacklistRepo repositories.BlacklistedTokenRepository
	userRepo      repositories.UserRepository
	txRunner      repositories.LedgerTxRunner
	locks         tokenLocks
}

func NewTokenLedgerService(
	activeRepo repositories.ActiveTokenRepository,
	blacklistRepo repositories.BlacklistedTokenRepository,
	userRepo repositories.UserRepository,
	txRunner repositories.LedgerTxRunner,
) TokenLedgerService {
	return &tokenLedgerService{
		activeRepo:    activeRepo,
		blacklistRepo: blacklistRepo,
		userRepo:      userRepo,
		txRunner:      txRunner,
	}
}

// tokenLocks serializes the check-then-insert sequence for a given token ID
// within this process. Across replicas the unique constraint on token_id plus
// the ON CONFLICT DO NOTHING insert carries the same guarantee; the in-process
// lock alone is not enough there (see DESIGN.md, scaling boundary).
type tokenLocks struct {
	stripes [64]sync.Mutex
}

func (l *tokenLocks) forToken(tokenID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tokenID))
	return &l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

func validateTokenInput(tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	if strings.TrimSpace(tokenID) == "" {
		return utils.ErrInvalidInput
	}
	if userID == uuid.Nil {
		return utils.ErrInvalidInput
	}
	if expiresAt.IsZero() {
		return utils.ErrInvalidInput
	}
	return nil
}

func (s *tokenLedgerService) SaveActiveToken(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time, deviceInfo string) error {
	if err := validateTokenInput(tokenID, userID, expiresAt); err != nil {
		return err
	}

	mu := s.locks.forToken(tokenID)
	mu.Lock()
	defer mu.Unlock()

	exists, err := s.activeRepo.ExistsByTokenID(ctx, tokenID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to check active token existence")
		return utils.ErrInternal
	}
	if exists {
		// Re-recording the same token ID is a no-op, not an error.
		return nil
	}

	token := &models.ActiveToken{
		ID:         uuid.New(),
		TokenID:    tokenID,
		UserID:     userID,
		ExpiresAt:  expiresAt,
		DeviceInfo: deviceInfo,
	}
	if _, err := s.activeRepo.InsertIfAbsent(ctx, token); err != nil {
		utils.Logger.WithError(err).Error("Failed to insert active token")
		return utils.ErrInternal
	}
	return nil
}

// BlacklistToken is the only path by which a record moves from active to
// blacklisted. The delete and the insert run in one serializable transaction.
func (s *tokenLedgerService) BlacklistToken(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time, reason string) error {
	if err := validateTokenInput(tokenID, userID, expiresAt); err != nil {
		return err
	}

	mu := s.locks.forToken(tokenID)
	mu.Lock()
	defer mu.Unlock()

	err := s.txRunner.InSerializableTx(ctx, func(active repositories.ActiveTokenRepository, blacklist repositories.BlacklistedTokenRepository) error {
		exists, err := blacklist.ExistsByTokenID(ctx, tokenID)
		if err != nil {
			return err
		}
		if exists {
			// Already revoked; revoking again is a no-op.
			return nil
		}

		if err := active.DeleteByTokenID(ctx, tokenID); err != nil {
			return err
		}

		_, err = blacklist.InsertIfAbsent(ctx, &models.BlacklistedToken{
			ID:        uuid.New(),
			TokenID:   tokenID,
			UserID:    userID,
			ExpiresAt: expiresAt,
			Reason:    reason,
		})
		return err
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to blacklist token")
		return utils.ErrBlacklistFailed
	}
	return nil
}

func (s *tokenLedgerService) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	// Callers hand this an already-parsed JTI; an empty one means there is
	// nothing to be revoked.
	if strings.TrimSpace(tokenID) == "" {
		return false, nil
	}

	blacklisted, err := s.blacklistRepo.ExistsByTokenID(ctx, tokenID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to check token blacklist")
		return false, utils.ErrInternal
	}
	return blacklisted, nil
}

func (s *tokenLedgerService) BlacklistAllUserTokens(ctx context.Context, userID uuid.UUID, reason string) error {
	if userID == uuid.Nil {
		return utils.ErrInvalidInput
	}

	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to look up user for force logout")
		return utils.ErrForceLogoutFailed
	}
	if !exists {
		return utils.ErrUserNotFound
	}

	err = s.txRunner.InSerializableTx(ctx, func(active repositories.ActiveTokenRepository, blacklist repositories.BlacklistedTokenRepository) error {
		tokens, err := active.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}

		for _, token := range tokens {
			_, err := blacklist.InsertIfAbsent(ctx, &models.BlacklistedToken{
				ID:        uuid.New(),
				TokenID:   token.TokenID,
				UserID:    token.UserID,
				ExpiresAt: token.ExpiresAt,
				Reason:    reason,
			})
			if err != nil {
				return err
			}
		}

		return active.DeleteAllByUserID(ctx, userID)
	})
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to force logout user %s", userID)
		return utils.ErrForceLogoutFailed
	}
	return nil
}

func (s *tokenLedgerService) GetBlacklistStats(ctx context.Context) (*BlacklistStats, error) {
	total, err := s.blacklistRepo.Count(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to count blacklisted tokens")
		return nil, utils.ErrStatsFailed
	}

	expired, err := s.blacklistRepo.CountExpiredBefore(ctx, time.Now())
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to count expired blacklisted tokens")
		return nil, utils.ErrStatsFailed
	}

	return &BlacklistStats{
		TotalTokens:   total,
		ExpiredTokens: expired,
		ActiveTokens:  total - expired,
	}, nil
}

func (s *tokenLedgerService) GetActiveTokensByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ActiveToken, error) {
	if userID == uuid.Nil {
		return nil, utils.ErrInvalidInput
	}

	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to look up user for active token listing")
		return nil, utils.ErrInternal
	}
	if !exists {
		return nil, utils.ErrUserNotFound
	}

	tokens, err := s.activeRepo.FindByUserID(ctx, userID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list active tokens")
		return nil, utils.ErrInternal
	}
	return tokens, nil
}

func (s *tokenLedgerService) GetBlacklistedTokenCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, utils.ErrInvalidInput
	}

	exists, err := s.userRepo.ExistsByID(ctx, userID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to look up user for blacklist count")
		return 0, utils.ErrInternal
	}
	if !exists {
		return 0, utils.ErrUserNotFound
	}

	count, err := s.blacklistRepo.CountByUserID(ctx, userID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to count blacklisted tokens for user")
		return 0, utils.ErrInternal
	}
	return count, nil
}

func (s *tokenLedgerService) ManualCleanup(ctx context.Context) (int64, error) {
	deleted, err := s.blacklistRepo.DeleteExpiredBefore(ctx, time.Now())
	if err != nil {
		utils.Logger.WithError(err).Error("Manual expired cleanup failed")
		return 0, utils.ErrCleanupFailed
	}
	return deleted, nil
}

func (s *tokenLedgerService) ManualCleanupOrphaned(ctx context.Context) (int64, error) {
	deletedBlacklisted, err := s.blacklistRepo.DeleteOrphaned(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Manual orphaned cleanup failed on blacklist ledger")
		return 0, utils.ErrCleanupFailed
	}

	deletedActive, err := s.activeRepo.DeleteOrphaned(ctx)
	if err != nil {
		utils.Logger.WithError(err).Error("Manual orphaned cleanup failed on active ledger")
		return 0, utils.ErrCleanupFailed
	}

	return deletedBlacklisted + deletedActive, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/vietlong-68/auth-service/internal/models"
)

// BlacklistedTokenRepository manages the ledger of revoked tokens.
// Rows are inserted by the TokenLedgerService promotion path only,
// and deleted by cleanup sweeps only.
type BlacklistedTokenRepository interface {
	// InsertIfAbsent stores the record unless a row with the same token ID
	// already exists. Reports whether a row was actually inserted.
	InsertIfAbsent(ctx context.Context, token *models.BlacklistedToken) (bool, error)
	ExistsByTokenID(ctx context.Context, tokenID string) (bool, error)
	FindByTokenID(ctx context.Context, tokenID string) (*models.BlacklistedToken, error)
	Count(ctx context.Context) (int64, error)
	CountExpiredBefore(ctx context.Context, t time.Time) (int64, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
}

type blacklistedTokenRepository struct {
	db DB
}

func NewBlacklistedTokenRepository(db DB) BlacklistedTokenRepository {
	return &blacklistedTokenRepository{db: db}
}

func (r *blacklistedTokenRepository) InsertIfAbsent(ctx context.Context, token *models.BlacklistedToken) (bool, error) {
	query := `
        INSERT INTO blacklisted_tokens (id, token_id, user_id, expires_at, blacklisted_at, reason)
        VALUES ($1, $2, $3, $4, NOW(), $5)
        ON CONFLICT (token_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query,
		token.ID,
		token.TokenID,
		token.UserID,
		token.ExpiresAt,
		token.Reason,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *blacklistedTokenRepository) ExistsByTokenID(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, tokenID).Scan(&exists)
	return exists, err
}

func (r *blacklistedTokenRepository) FindByTokenID(ctx context.Context, tokenID string) (*models.BlacklistedToken, error) {
	query := `
        SELECT id, token_id, user_id, expires_at, blacklisted_at, reason
        FROM blacklisted_tokens
        WHERE token_id = $1
    `
	row := r.db.QueryRow(ctx, query, tokenID)

	var bt models.BlacklistedToken
	err := row.Scan(&bt.ID, &bt.TokenID, &bt.UserID, &bt.ExpiresAt, &bt.BlacklistedAt, &bt.Reason)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &bt, nil
}

func (r *blacklistedTokenRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blacklisted_tokens`).Scan(&count)
	return count, err
}

func (r *blacklistedTokenRepository) CountExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blacklisted_tokens WHERE expires_at < $1`, t).Scan(&count)
	return count, err
}

func (r *blacklistedTokenRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blacklisted_tokens WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *blacklistedTokenRepository) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	query := `DELETE FROM blacklisted_tokens WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, t)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *blacklistedTokenRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	query := `DELETE FROM blacklisted_tokens WHERE user_id NOT IN (SELECT id FROM users)`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/vietlong-68/auth-service/internal/models"
)

// ActiveTokenRepository manages the ledger of currently-valid tokens.
// All writes go through the TokenLedgerService; nothing else touches
// the table.
type ActiveTokenRepository interface {
	// InsertIfAbsent stores the record unless a row with the same token ID
	// already exists. Reports whether a row was actually inserted.
	InsertIfAbsent(ctx context.Context, token *models.ActiveToken) (bool, error)
	ExistsByTokenID(ctx context.Context, tokenID string) (bool, error)
	FindByTokenID(ctx context.Context, tokenID string) (*models.ActiveToken, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ActiveToken, error)
	DeleteByTokenID(ctx context.Context, tokenID string) error
	DeleteAllByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpiredBefore removes every row whose expiry is strictly before t
	// and returns the number of rows removed.
	DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error)

	// DeleteOrphaned removes rows whose owner no longer exists in the
	// users table and returns the number of rows removed.
	DeleteOrphaned(ctx context.Context) (int64, error)
}

type activeTokenRepository struct {
	db DB
}

func NewActiveTokenRepository(db DB) ActiveTokenRepository {
	return &activeTokenRepository{db: db}
}

func (r *activeTokenRepository) InsertIfAbsent(ctx context.Context, token *models.ActiveToken) (bool, error) {
	query := `
        INSERT INTO active_tokens (id, token_id, user_id, expires_at, created_at, device_info)
        VALUES ($1, $2, $3, $4, NOW(), $5)
        ON CONFLICT (token_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query,
		token.ID,
		token.TokenID,
		token.UserID,
		token.ExpiresAt,
		token.DeviceInfo,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *activeTokenRepository) ExistsByTokenID(ctx context.Context, tokenID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM active_tokens WHERE token_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, tokenID).Scan(&exists)
	return exists, err
}

func (r *activeTokenRepository) FindByTokenID(ctx context.Context, tokenID string) (*models.ActiveToken, error) {
	query := `
        SELECT id, token_id, user_id, expires_at, created_at, device_info
        FROM active_tokens
        WHERE token_id = $1
    `
	row := r.db.QueryRow(ctx, query, tokenID)

	var at models.ActiveToken
	err := row.Scan(&at.ID, &at.TokenID, &at.UserID, &at.ExpiresAt, &at.CreatedAt, &at.DeviceInfo)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}

func (r *activeTokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*models.ActiveToken, error) {
	query := `
        SELECT id, token_id, user_id, expires_at, created_at, device_info
        FROM active_tokens
        WHERE user_id = $1
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.ActiveToken
	for rows.Next() {
		var at models.ActiveToken
		if err := rows.Scan(&at.ID, &at.TokenID, &at.UserID, &at.ExpiresAt, &at.CreatedAt, &at.DeviceInfo); err != nil {
			return nil, err
		}
		tokens = append(tokens, &at)
	}
	return tokens, rows.Err()
}

func (r *activeTokenRepository) DeleteByTokenID(ctx context.Context, tokenID string) error {
	query := `DELETE FROM active_tokens WHERE token_id = $1`
	_, err := r.db.Exec(ctx, query, tokenID)
	return err
}

func (r *activeTokenRepository) DeleteAllByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM active_tokens WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *activeTokenRepository) DeleteExpiredBefore(ctx context.Context, t time.Time) (int64, error) {
	query := `DELETE FROM active_tokens WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, t)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *activeTokenRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	query := `DELETE FROM active_tokens WHERE user_id NOT IN (SELECT id FROM users)`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"twin-dashboard/internal/model"
)

// ResetRepository stores pending password-reset requests. Only token hashes
// are persisted; the plaintext reset token exists solely in the out-of-band
// delivery path.
type ResetRepository struct {
	pool *pgxpool.Pool
}

func NewResetRepository(pool *pgxpool.Pool) *ResetRepository {
	return &ResetRepository{pool: pool}
}

func (r *ResetRepository) Create(ctx context.Context, reset model.PasswordReset) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		reset.ID, reset.UserID, reset.TokenHash, reset.ExpiresAt, reset.CreatedAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the reset matching the token hash,
// enforcing single use. An unknown hash yields ErrResetTokenInvalid; expiry
// is the caller's check, since the record is gone either way.
func (r *ResetRepository) Consume(ctx context.Context, tokenHash string) (model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.pool.QueryRow(ctx,
		`DELETE FROM password_resets WHERE token_hash = $1
		 RETURNING id, user_id, token_hash, expires_at, created_at`, tokenHash).
		Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &reset.ExpiresAt, &reset.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.PasswordReset{}, model.ErrResetTokenInvalid
	}
	if err != nil {
		return model.PasswordReset{}, fmt.Errorf("consume password reset: %w", err)
	}
	return reset, nil
}

// DeleteExpired removes stale reset requests and returns the count removed.
func (r *ResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	return tag.RowsAffected(), nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sweetyp18/meetpass-webapp/internal/persistence"
)

// PasswordResetTokenRepository implements persistence.PasswordResetTokenRepository
// using SQLite.
type PasswordResetTokenRepository struct {
	pool *ConnectionPool
}

// NewPasswordResetTokenRepository creates a new SQLite reset token repository.
func NewPasswordResetTokenRepository(pool *ConnectionPool) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{pool: pool}
}

// CreateResetToken inserts a new password reset token.
func (r *PasswordResetTokenRepository) CreateResetToken(ctx context.Context, token persistence.PasswordResetToken) error {
	if token.Token == "" || token.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, created_at, used_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt.UTC().Format(time.RFC3339Nano),
		token.CreatedAt.UTC().Format(time.RFC3339Nano),
		formatNullableTime(token.UsedAt),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// GetResetToken retrieves a reset token by its value.
func (r *PasswordResetTokenRepository) GetResetToken(ctx context.Context, token string) (persistence.PasswordResetToken, error) {
	if token == "" {
		return persistence.PasswordResetToken{}, persistence.ErrNotFound
	}

	query := "SELECT token, user_id, expires_at, created_at, used_at FROM password_reset_tokens WHERE token = ?"

	var reset persistence.PasswordResetToken
	var expiresAt, createdAt string
	var usedAt sql.NullString

	err := r.pool.db.QueryRowContext(ctx, query, token).Scan(
		&reset.Token,
		&reset.UserID,
		&expiresAt,
		&createdAt,
		&usedAt,
	)
	if err != nil {
		return persistence.PasswordResetToken{}, mapError(err)
	}

	if reset.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return persistence.PasswordResetToken{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if reset.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return persistence.PasswordResetToken{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reset.UsedAt, err = parseNullableTime(usedAt); err != nil {
		return persistence.PasswordResetToken{}, fmt.Errorf("failed to parse used_at: %w", err)
	}

	return reset, nil
}

// MarkResetTokenUsed stamps a reset token as consumed. The condition on
// used_at keeps the token single-use even under concurrent resets.
func (r *PasswordResetTokenRepository) MarkResetTokenUsed(ctx context.Context, token string, usedAt time.Time) error {
	if token == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used_at = ? WHERE token = ? AND used_at IS NULL",
		usedAt.UTC().Format(time.RFC3339Nano),
		token,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

var _ persistence.PasswordResetTokenRepository = (*PasswordResetTokenRepository)(nil)

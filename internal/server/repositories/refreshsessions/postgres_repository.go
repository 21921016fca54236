// Package refreshsessions provides a PostgreSQL-backed repository for the
// refresh-token sessions used in the authentication flow. Only token
// fingerprints are stored; rows are never deleted, preserving the rotation
// audit trail.
package refreshsessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new session row. A fingerprint collision surfaces as
// common.ErrConflict via the unique index.
func (r *PostgresRepository) Create(ctx context.Context, session *models.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, session.UserID, session.TokenHash, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate token fingerprint", common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, token_hash, expires_at, revoked_at,
	replaced_by_hash, created_at, last_used_at`

func (r *PostgresRepository) findByFingerprint(ctx context.Context, hash string, forUpdate bool) (*models.RefreshSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE token_hash = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	s := &models.RefreshSession{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.RevokedAt,
		&s.ReplacedByHash, &s.CreatedAt, &s.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// FindByFingerprint returns the session with the given fingerprint or
// common.ErrNotFound.
func (r *PostgresRepository) FindByFingerprint(ctx context.Context, hash string) (*models.RefreshSession, error) {
	return r.findByFingerprint(ctx, hash, false)
}

// FindByFingerprintForUpdate is FindByFingerprint with a row lock; it must
// run inside a transaction.
func (r *PostgresRepository) FindByFingerprintForUpdate(ctx context.Context, hash string) (*models.RefreshSession, error) {
	return r.findByFingerprint(ctx, hash, true)
}

// MarkRotated revokes a session and links its successor fingerprint. The
// revoked_at guard means a session can be rotated out at most once.
func (r *PostgresRepository) MarkRotated(ctx context.Context, id int64, replacedByHash string, now time.Time) error {
	query := `
		UPDATE refresh_sessions
		SET revoked_at = $2, replaced_by_hash = $3, last_used_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, now, replacedByHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Revoke marks the session with the given fingerprint revoked if it is still
// active. Unknown or already-revoked fingerprints affect zero rows and
// return no error.
func (r *PostgresRepository) Revoke(ctx context.Context, hash string, now time.Time) (int64, error) {
	query := `
		UPDATE refresh_sessions
		SET revoked_at = $2
		WHERE token_hash = $1 AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, hash, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}

// RevokeAllForUser revokes every active session owned by userID in one bulk
// update and returns the number affected.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	query := `
		UPDATE refresh_sessions
		SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, userID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}

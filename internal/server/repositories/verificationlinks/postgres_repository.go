// Package verificationlinks provides a PostgreSQL-backed repository for
// single-use email-verification tokens, stored by fingerprint only.
package verificationlinks

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

// Create inserts a new verification link row.
func (r *PostgresRepository) Create(ctx context.Context, link *models.VerificationLink) error {
	query := `
		INSERT INTO verification_links (user_id, purpose, token_hash, expires_at, redirect_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		link.UserID, link.Purpose, link.TokenHash, link.ExpiresAt, link.RedirectURL,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate token fingerprint", common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByFingerprint returns the link with the given fingerprint or
// common.ErrNotFound.
func (r *PostgresRepository) FindByFingerprint(ctx context.Context, hash string) (*models.VerificationLink, error) {
	query := `
		SELECT id, user_id, purpose, token_hash, expires_at, used_at, redirect_url, created_at
		FROM verification_links
		WHERE token_hash = $1
	`
	l := &models.VerificationLink{}
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&l.ID, &l.UserID, &l.Purpose, &l.TokenHash, &l.ExpiresAt,
		&l.UsedAt, &l.RedirectURL, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

// MarkUsed consumes the link. The used_at guard keeps a link single-use
// even when two confirmations race.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id int64, now time.Time) error {
	query := `
		UPDATE verification_links
		SET used_at = $2
		WHERE id = $1 AND used_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, now)
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

// Package services contains server-side business logic for the identity
// platform: refresh-session lifecycle, email verification, the
// authentication facade, and administrative user operations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amaravathi/tradeidentity/internal/common"
	"github.com/amaravathi/tradeidentity/internal/dbx"
	"github.com/amaravathi/tradeidentity/internal/server/config"
	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/amaravathi/tradeidentity/internal/server/repositories/repomanager"
	"github.com/amaravathi/tradeidentity/internal/token"
)

// RefreshSessionService manages the lifecycle of refresh tokens: issue,
// validate, rotate, revoke-one and revoke-all. It holds no state beyond
// configuration; every session lives in the store.
type RefreshSessionService struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	ttl time.Duration
	now func() time.Time
}

// NewRefreshSessionService constructs a RefreshSessionService using
// repositories and server config.
func NewRefreshSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *RefreshSessionService {
	return &RefreshSessionService{
		db:  db,
		rm:  m,
		ttl: cfg.RefreshTokenTTL,
		now: time.Now,
	}
}

// Issue creates a new active session for userID and returns the raw token.
// This is the only moment the raw token ever exists outside the client.
func (s *RefreshSessionService) Issue(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: invalid userId", common.ErrInvalidArgument)
	}

	raw, err := token.Opaque()
	if err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}

	session := &models.RefreshSession{
		UserID:    userID,
		TokenHash: token.Fingerprint(raw),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.rm.RefreshSessions(s.db).Create(ctx, session); err != nil {
		return "", fmt.Errorf("creating refresh session: %w", err)
	}
	return raw, nil
}

// ValidateAndGetUserID resolves a raw refresh token to its owning user.
// Unknown, revoked and expired tokens all fail with the same invalid-token
// error.
func (s *RefreshSessionService) ValidateAndGetUserID(ctx context.Context, rawToken string) (int64, error) {
	if rawToken == "" {
		return 0, fmt.Errorf("%w: refresh token is required", common.ErrInvalidArgument)
	}

	session, err := s.rm.RefreshSessions(s.db).FindByFingerprint(ctx, token.Fingerprint(rawToken))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, common.ErrInvalidToken
		}
		return 0, fmt.Errorf("searching refresh session: %w", err)
	}
	if !session.Valid(s.now()) {
		return 0, common.ErrInvalidToken
	}
	return session.UserID, nil
}

// Rotate exchanges a still-valid refresh token for a fresh one. In a single
// transaction the old session is revoked and linked to its successor, and
// the successor is created, so each refresh token mints exactly one
// replacement. A replayed, already-rotated token fails closed with the
// undifferentiated invalid-token error, as does a token owned by a
// different user.
func (s *RefreshSessionService) Rotate(ctx context.Context, oldRawToken string, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("%w: invalid userId", common.ErrInvalidArgument)
	}
	if oldRawToken == "" {
		return "", fmt.Errorf("%w: refresh token is required", common.ErrInvalidArgument)
	}

	newRaw, err := token.Opaque()
	if err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	newHash := token.Fingerprint(newRaw)
	oldHash := token.Fingerprint(oldRawToken)

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.RefreshSessions(tx)
		now := s.now()

		old, err := repo.FindByFingerprintForUpdate(ctx, oldHash)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("searching refresh session: %w", err)
		}
		if !old.Valid(now) || old.UserID != userID {
			return common.ErrInvalidToken
		}

		if err := repo.MarkRotated(ctx, old.ID, newHash, now); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// a concurrent rotation won the race
				return common.ErrInvalidToken
			}
			return fmt.Errorf("revoking rotated session: %w", err)
		}

		fresh := &models.RefreshSession{
			UserID:    userID,
			TokenHash: newHash,
			ExpiresAt: now.Add(s.ttl),
		}
		if err := repo.Create(ctx, fresh); err != nil {
			return fmt.Errorf("creating rotated session: %w", err)
		}
		return nil
	}); err != nil {
		return "", err
	}

	return newRaw, nil
}

// RevokeOne marks the session for rawToken revoked. It is idempotent and
// deliberately silent about unknown or already-revoked tokens: logout must
// not leak whether a token existed.
func (s *RefreshSessionService) RevokeOne(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return fmt.Errorf("%w: refresh token is required", common.ErrInvalidArgument)
	}

	if _, err := s.rm.RefreshSessions(s.db).Revoke(ctx, token.Fingerprint(rawToken), s.now()); err != nil {
		return fmt.Errorf("revoking refresh session: %w", err)
	}
	return nil
}

// RevokeAll revokes every active session owned by userID in one bulk
// operation and returns the number affected ("log out everywhere").
func (s *RefreshSessionService) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: invalid userId", common.ErrInvalidArgument)
	}

	count, err := s.rm.RefreshSessions(s.db).RevokeAllForUser(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("revoking refresh sessions: %w", err)
	}
	return count, nil
}

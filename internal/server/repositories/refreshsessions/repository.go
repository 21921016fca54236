package refreshsessions

import (
	"context"
	"time"

	"github.com/amaravathi/tradeidentity/internal/server/models"
)

// Repository persists refresh sessions keyed by token fingerprint.
type Repository interface {
	Create(ctx context.Context, session *models.RefreshSession) error
	FindByFingerprint(ctx context.Context, hash string) (*models.RefreshSession, error)
	// FindByFingerprintForUpdate locks the row for the duration of the
	// surrounding transaction so concurrent rotations serialize.
	FindByFingerprintForUpdate(ctx context.Context, hash string) (*models.RefreshSession, error)
	// MarkRotated revokes the session and records the fingerprint of its
	// successor. It fails with common.ErrNotFound if the session was already
	// revoked, which makes a lost rotation race observable.
	MarkRotated(ctx context.Context, id int64, replacedByHash string, now time.Time) error
	// Revoke marks the session with the given fingerprint revoked if it is
	// still active, returning the number of rows affected (0 or 1).
	Revoke(ctx context.Context, hash string, now time.Time) (int64, error)
	// RevokeAllForUser revokes every active session of a user and returns
	// the number affected.
	RevokeAllForUser(ctx context.Context, userID int64, now time.Time) (int64, error)
}

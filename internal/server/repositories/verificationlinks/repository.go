package verificationlinks

import (
	"context"
	"time"

	"github.com/amaravathi/tradeidentity/internal/server/models"
)

// Repository persists magic-link tokens keyed by fingerprint.
type Repository interface {
	Create(ctx context.Context, link *models.VerificationLink) error
	FindByFingerprint(ctx context.Context, hash string) (*models.VerificationLink, error)
	// MarkUsed consumes the link. It fails with common.ErrNotFound if the
	// link was already used, so double confirmation is detectable even under
	// concurrency.
	MarkUsed(ctx context.Context, id int64, now time.Time) error
}

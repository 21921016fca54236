package models

import "time"

// VerificationPurpose is what a magic link proves when confirmed.
type VerificationPurpose string

// PurposeEmailVerify is currently the only purpose in use.
const PurposeEmailVerify VerificationPurpose = "EMAIL_VERIFY"

// VerificationLink is one pending or consumed magic-link token.
type VerificationLink struct {
	ID          int64
	UserID      int64
	Purpose     VerificationPurpose
	TokenHash   string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	RedirectURL *string
	CreatedAt   time.Time
}

// Valid reports whether the link can still be confirmed at the given
// instant. Once used, a link is permanently consumed even before expiry.
func (l *VerificationLink) Valid(now time.Time) bool {
	return l.UsedAt == nil && l.ExpiresAt.After(now)
}

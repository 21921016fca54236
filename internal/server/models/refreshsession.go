package models

import "time"

// RefreshSession is one issued refresh token, stored by fingerprint only.
// A session is never physically deleted; revocation and rotation leave an
// audit trail via RevokedAt and ReplacedByHash.
type RefreshSession struct {
	ID             int64
	UserID         int64
	TokenHash      string
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	ReplacedByHash *string
	CreatedAt      time.Time
	LastUsedAt     *time.Time
}

// Valid reports whether the session can still be exchanged at the given
// instant. A session whose expiry equals now is already expired, and a
// revoked session stays invalid forever.
func (s *RefreshSession) Valid(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

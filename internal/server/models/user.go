// Package models contains the persistence-layer entities of the identity
// server.
package models

import "time"

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusCreated             UserStatus = "CREATED"
	UserStatusEnrolled            UserStatus = "ENROLLED"
	UserStatusInvited             UserStatus = "INVITED"
	UserStatusPendingVerification UserStatus = "PENDING_VERIFICATION"
	UserStatusActive              UserStatus = "ACTIVE"
	UserStatusDisabled            UserStatus = "DISABLED"
)

// User is a registered account on the trading-education platform.
type User struct {
	ID            int64
	Email         string
	Phone         string
	FullName      string
	PasswordHash  string
	Status        UserStatus
	EmailVerified bool
	PhoneVerified bool

	ResidenceCountry        string
	City                    string
	PreferredLanguage       string
	Occupation              string
	Interest                string
	PreviousTradingExposure string
	TermsAccepted           bool
	CommunicationConsent    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

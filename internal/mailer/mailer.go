// Package mailer defines the notification-sender port used to deliver
// email-verification links, plus its adapters. Delivery is fire-and-forget
// from the caller's perspective; retries are the delivery side's concern.
package mailer

import "context"

// Sender hands a verification URL off for delivery to the given address.
type Sender interface {
	Deliver(ctx context.Context, email, verificationURL string) error
}

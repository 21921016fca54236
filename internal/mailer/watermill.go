package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// VerificationEmailTopic is the topic verification-email events are
// published on.
const VerificationEmailTopic = "identity.email.verification"

// VerificationEmailEvent is the payload handed to the delivery pipeline.
// The URL embeds the raw token, so events must only travel over the
// in-process or otherwise trusted bus.
type VerificationEmailEvent struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}

// WatermillSender implements Sender by publishing events to a watermill
// publisher; an email worker subscribed to the topic performs the actual
// delivery.
type WatermillSender struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillSender creates a Sender backed by the given publisher.
func NewWatermillSender(publisher message.Publisher) *WatermillSender {
	return &WatermillSender{
		publisher: publisher,
		topic:     VerificationEmailTopic,
	}
}

// Deliver publishes one verification-email event.
func (s *WatermillSender) Deliver(ctx context.Context, email, verificationURL string) error {
	event := VerificationEmailEvent{
		Email: email,
		URL:   verificationURL,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

package mailer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/require"
)

func TestWatermillSender_PublishesEvent(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	msgs, err := pubSub.Subscribe(ctx, VerificationEmailTopic)
	require.NoError(t, err)

	sender := NewWatermillSender(pubSub)
	require.NoError(t, sender.Deliver(ctx, "user@example.test", "https://app/verify-email?token=abc123"))

	msg := <-msgs
	msg.Ack()

	var event VerificationEmailEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	require.Equal(t, "user@example.test", event.Email)
	require.Equal(t, "https://app/verify-email?token=abc123", event.URL)
	require.NotEmpty(t, msg.UUID)
}

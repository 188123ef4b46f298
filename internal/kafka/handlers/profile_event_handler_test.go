package kafkahandlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gym-buddy/internal/imtypes"
)

type recordingDeliverer struct {
	events []imtypes.ProfileEvent
}

func (d *recordingDeliverer) Deliver(event imtypes.ProfileEvent) int {
	d.events = append(d.events, event)
	return 1
}

func TestHandleProfileEvent(t *testing.T) {
	d := &recordingDeliverer{}
	logic := NewProfileEventConsumerLogic(d)
	topic := "gym-buddy-profile-events"

	payload, err := json.Marshal(imtypes.ProfileEvent{
		Type:        imtypes.EventBuddyRequestReceived,
		RecipientID: "bob",
		ActorID:     "alice",
		Timestamp:   time.Now().UTC(),
	})
	require.NoError(t, err)

	msg := &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic}, Key: []byte("bob"), Value: payload}
	require.NoError(t, logic.HandleProfileEvent(context.Background(), msg))

	garbage := &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic}, Value: []byte("{not json")}
	assert.NoError(t, logic.HandleProfileEvent(context.Background(), garbage))

	noRecipient := &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic}, Value: []byte(`{"type":"profile.updated"}`)}
	assert.NoError(t, logic.HandleProfileEvent(context.Background(), noRecipient))

	require.Len(t, d.events, 1)
	assert.Equal(t, "bob", d.events[0].RecipientID)
	assert.Equal(t, "alice", d.events[0].ActorID)
}

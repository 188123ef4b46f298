package kafkahandlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"gym-buddy/internal/imtypes"
)

// Deliverer pushes an event to the live connections of its recipient.
type Deliverer interface {
	Deliver(event imtypes.ProfileEvent) int
}

// ProfileEventConsumerLogic 处理事件主题中的资料/好友事件，转发给在线连接。
type ProfileEventConsumerLogic struct {
	deliverer Deliverer
}

// NewProfileEventConsumerLogic creates a new instance of ProfileEventConsumerLogic.
func NewProfileEventConsumerLogic(d Deliverer) *ProfileEventConsumerLogic {
	if d == nil {
		log.Panic("Deliverer cannot be nil")
	}
	return &ProfileEventConsumerLogic{deliverer: d}
}

// HandleProfileEvent is the MessageHandler passed to the Kafka consumer.
// Malformed messages are skipped (nil error) so their offsets are still committed.
func (h *ProfileEventConsumerLogic) HandleProfileEvent(_ context.Context, msg *kafka.Message) error {
	var event imtypes.ProfileEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("无法解析资料事件 (Key: %s): %v，跳过该消息", string(msg.Key), err)
		return nil
	}
	if event.RecipientID == "" || event.Type == "" {
		log.Printf("资料事件缺少接收者或类型，跳过: %+v", event)
		return nil
	}

	n := h.deliverer.Deliver(event)
	if n == 0 {
		log.Printf("用户 %s 不在线，事件 %s 未推送", event.RecipientID, event.Type)
	}
	return nil
}

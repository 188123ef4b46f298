package services

import (
	"context"
	"log"
	"time"

	"gym-buddy/internal/imtypes"
)

// EventPublisher 发布资料/好友事件，由 kafka.EventPublisher 实现。
type EventPublisher interface {
	Publish(ctx context.Context, event imtypes.ProfileEvent) error
}

const publishTimeout = 5 * time.Second

// publishEvent 尽力发送事件，失败只记录日志，不影响已经完成的写操作。
func publishEvent(ctx context.Context, publisher EventPublisher, eventType imtypes.EventType, recipientID, actorID string) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := imtypes.ProfileEvent{
		Type:        eventType,
		RecipientID: recipientID,
		ActorID:     actorID,
		Timestamp:   time.Now().UTC(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Printf("发布事件 %s (接收者 %s) 失败: %v", eventType, recipientID, err)
	}
}

package imtypes

import "time"

// EventType 是推送给客户端的资料/好友事件类型。
type EventType string

const (
	EventProfileUpdated       EventType = "profile.updated"
	EventBuddyRequestReceived EventType = "buddy.request_received"
	EventBuddyRequestAccepted EventType = "buddy.request_accepted"
	EventBuddyRequestRejected EventType = "buddy.request_rejected"
)

// ProfileEvent is published to Kafka by the API server and pushed over
// WebSocket to every connection of RecipientID by the notify server.
type ProfileEvent struct {
	Type        EventType `json:"type"`
	RecipientID string    `json:"recipientId"`
	ActorID     string    `json:"actorId"`
	Timestamp   time.Time `json:"timestamp"`
}

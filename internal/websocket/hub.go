package websocket

import (
	"context"
	"encoding/json"
	"log"

	"gym-buddy/internal/imtypes"
	"gym-buddy/internal/metrics"
)

// Hub maintains the set of active clients and pushes events to them.
// A user may hold several connections (several devices) at once.
type Hub struct {
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	direct     chan delivery
	count      chan countRequest

	done chan struct{}
}

type delivery struct {
	event  imtypes.ProfileEvent
	result chan int
}

type countRequest struct {
	userID string
	result chan int
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan delivery, 256),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Deliver pushes the event to every connection of its recipient and returns
// how many connections it was queued on.
func (h *Hub) Deliver(event imtypes.ProfileEvent) int {
	d := delivery{event: event, result: make(chan int, 1)}
	select {
	case h.direct <- d:
	case <-h.done:
		return 0
	}
	select {
	case n := <-d.result:
		return n
	case <-h.done:
		return 0
	}
}

// Connections returns the number of open connections of userID.
func (h *Hub) Connections(userID string) int {
	req := countRequest{userID: userID, result: make(chan int, 1)}
	select {
	case h.count <- req:
	case <-h.done:
		return 0
	}
	return <-req.result
}

// Run processes hub requests until ctx is canceled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	log.Println("WebSocket Hub Run loop started.")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for userID, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			metrics.PushConnections.Set(0)
			log.Println("WebSocket Hub 已停止。")
			return

		case client := <-h.register:
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			metrics.PushConnections.Inc()
			log.Printf("客户端已注册: UserID %s (连接数 %d)", client.UserID, len(conns))

		case client := <-h.unregister:
			h.remove(client)

		case req := <-h.count:
			req.result <- len(h.clients[req.userID])

		case d := <-h.direct:
			d.result <- h.push(d.event)
		}
	}
}

func (h *Hub) push(event imtypes.ProfileEvent) int {
	conns := h.clients[event.RecipientID]
	if len(conns) == 0 {
		return 0
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("错误: 无法序列化事件以发送给 UserID %s: %v", event.RecipientID, err)
		return 0
	}

	sent := 0
	for client := range conns {
		select {
		case client.send <- msgBytes:
			sent++
		default:
			// 发送缓冲已满，认为客户端过慢或已断开
			log.Printf("警告: UserID %s 的发送通道已满，移除该连接。", event.RecipientID)
			h.remove(client)
		}
	}
	if sent > 0 {
		metrics.PushedEvents.WithLabelValues(string(event.Type)).Add(float64(sent))
	}
	return sent
}

// remove closes client.send exactly once; later unregisters of the same client are no-ops.
func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	metrics.PushConnections.Dec()
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	log.Printf("客户端已注销: UserID %s", client.UserID)
}

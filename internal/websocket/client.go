package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gym-buddy/internal/config"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var newline = []byte("\n")

// Client is a middleman between the websocket connection and the hub.
// The push channel is one-way: anything the peer sends is discarded.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Authenticated account ID for this client.
	UserID string
}

type timings struct {
	writeWait, pongWait, pingPeriod time.Duration
	maxMessageSize                  int64
}

func timingsFrom(wsCfg config.WebSocketConfig) timings {
	t := timings{writeWait: writeWait, pongWait: pongWait, pingPeriod: pingPeriod, maxMessageSize: maxMessageSize}
	if wsCfg.WriteWaitSeconds > 0 {
		t.writeWait = time.Duration(wsCfg.WriteWaitSeconds) * time.Second
	}
	if wsCfg.PongWaitSeconds > 0 {
		t.pongWait = time.Duration(wsCfg.PongWaitSeconds) * time.Second
	}
	if wsCfg.PingPeriodSeconds > 0 {
		t.pingPeriod = time.Duration(wsCfg.PingPeriodSeconds) * time.Second
	}
	if t.pingPeriod >= t.pongWait {
		t.pingPeriod = (t.pongWait * 9) / 10
	}
	if wsCfg.MaxMessageSizeBytes > 0 {
		t.maxMessageSize = int64(wsCfg.MaxMessageSizeBytes)
	}
	return t
}

// readPump keeps the read deadline alive through pongs and notices when the peer goes away.
func (c *Client) readPump(t timings) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(t.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(t.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(t.pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket 错误 (客户端: %s): %v", c.UserID, err)
			}
			return
		}
	}
}

// writePump pumps events from the hub to the websocket connection.
// Queued events are batched into one frame, separated by newlines.
func (c *Client) writePump(t timings) {
	ticker := time.NewTicker(t.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(t.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(t.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and registers the connection for userID.
func ServeWs(hub *Hub, userID string, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ServeWs - Upgrade失败:", err)
		return
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		UserID: userID,
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	t := timingsFrom(wsCfg)
	go client.writePump(t)
	go client.readPump(t)

	log.Printf("客户端已连接: UserID %s", userID)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/gorilla/websocket"

	"gym-buddy/internal/imtypes"
)

// ErrNotifyDisabled is returned by Watch when no push URL is configured.
var ErrNotifyDisabled = errors.New("push channel not configured")

// Notifications reads profile events from the push channel.
type Notifications struct {
	c      *Client
	dialer *websocket.Dialer
}

// NewNotifications creates a push channel reader bound to c.
func NewNotifications(c *Client) *Notifications {
	return &Notifications{c: c, dialer: websocket.DefaultDialer}
}

// Watch connects with the current token and calls fn for every event until
// ctx is canceled or the connection drops. Frames may carry several events
// separated by newlines.
func (n *Notifications) Watch(ctx context.Context, fn func(imtypes.ProfileEvent)) error {
	if n.c.notifyURL == "" {
		return ErrNotifyDisabled
	}
	u, err := url.Parse(n.c.notifyURL)
	if err != nil {
		return fmt.Errorf("parse notify url: %w", err)
	}
	q := u.Query()
	q.Set("token", n.c.Token())
	u.RawQuery = q.Encode()

	conn, _, err := n.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var event imtypes.ProfileEvent
			if err := json.Unmarshal(line, &event); err != nil {
				log.Printf("无法解析推送事件: %v", err)
				continue
			}
			fn(event)
		}
	}
}

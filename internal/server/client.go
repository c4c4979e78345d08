package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 16 * 1024
	sendBuffer     = 256
)

// Client is one websocket connection, bound to a participant once it
// joins or creates a match.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	participant string
	matchID     string
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// push queues a message, dropping the client if its buffer is full.
func (c *Client) push(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) sendJSON(out Outbound) {
	raw, err := json.Marshal(out)
	if err != nil {
		c.hub.logger.Error("marshal outbound", zap.Error(err))
		return
	}
	c.push(raw)
}

func (c *Client) sendError(reason string) {
	c.sendJSON(Outbound{Type: "error", Data: errorPayload{Reason: reason}})
}

package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client sits between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// ConversationId this connection is attached to
	ConversationId string

	// Buffered channel of outbound frames. Never closed; done signals
	// shutdown instead, so producers blocked on Send cannot hit a closed
	// channel.
	Send chan []byte

	// done is closed exactly once when the client unregisters.
	done     chan struct{}
	doneOnce sync.Once

	// handleInbound processes a chat payload from the peer; set by ServeWs.
	handleInbound func(data []byte)
}

func newClient(hub *Hub, conn *websocket.Conn, conversationId string) *Client {
	return &Client{
		Hub:            hub,
		Conn:           conn,
		ConversationId: conversationId,
		Send:           make(chan []byte, 256),
		done:           make(chan struct{}),
	}
}

// shutdown wakes every goroutine blocked on this client. Safe to call more
// than once.
func (c *Client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

// enqueue queues an outbound frame, blocking until there is buffer space.
// Returns false once the client has shut down; a pending enqueue unblocks
// when that happens.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	case <-c.done:
		return false
	}
}

// readPump pumps frames from the websocket connection to the chat handler.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error for conversation %s: %v", c.ConversationId, err)
			}
			break
		}
		if c.handleInbound != nil {
			c.handleInbound(data)
		}
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

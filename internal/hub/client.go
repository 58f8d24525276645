package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// MessageHandler is invoked by ReadPump for every text message the client sends.
type MessageHandler func(c *Client, raw []byte)

// Client is one WebSocket connection. A client may be a member of several rooms.
//
// send is never closed; termination is signalled through done so that a
// concurrent Publish can never write to a closed channel.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    uint
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	onMessage MessageHandler
}

// NewClient creates a Client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint, onMessage MessageHandler) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		userID:    userID,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		onMessage: onMessage,
	}
}

// Run starts the read and write goroutines.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) UserID() uint { return c.userID }

// Done is closed once the client has been closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close marks the client closed and closes the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// deliver queues data for the write pump, waiting at most timeout.
// It returns false when the message was dropped.
func (c *Client) deliver(data []byte, timeout time.Duration) bool {
	if c.isClosed() {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	case <-timer.C:
		return false
	}
}

// ReadPump reads messages from the connection and hands them to the message
// handler. On exit the client is removed from every room and closed.
func (c *Client) ReadPump() {
	logCtx := logrus.WithField("user_id", c.userID)
	defer func() {
		if c.hub != nil {
			c.hub.RemoveClient(c)
		}
		c.Close()
		logCtx.Info("readPump exited, client removed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(c, message)
		}
	}
}

// WritePump writes queued messages to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	logCtx := logrus.WithField("user_id", c.userID)
	defer func() {
		ticker.Stop()
		c.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping message")
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

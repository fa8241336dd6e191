/*
Package chat implements the realtime side of the service: the registry of live
WebSocket connections keyed by user, and the Gateway that authenticates each
connection, dispatches its inbound events and fans messages out to recipients.

This file defines the Client, one authenticated WebSocket connection, with its
read and write loops.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// capacity of the outbound queue of a single client.
	sendQueueSize = 256

	// CloseSessionReplaced is sent to a connection displaced by a newer one for the same user.
	CloseSessionReplaced = 4001
)

// Client is one authenticated WebSocket connection.
type Client struct {
	userID   string
	username string

	// underlying WebSocket connection object. Only writePump writes to it.
	conn *websocket.Conn

	// queued frames waiting to be written.
	send chan []byte

	// closed once the client should stop; closeCode and closeReason are set before.
	done        chan struct{}
	closeOnce   sync.Once
	closeCode   int
	closeReason string

	logger zerolog.Logger
}

func newClient(conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		userID:   userID,
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		logger: logx.Logger().With().
			Str("client_id", userID).
			Str("username", username).
			Logger(),
	}
}

// enqueue marshals v onto the outbound queue without blocking.
// It reports false when the client is closed or its queue is full.
func (c *Client) enqueue(v any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	frame, err := json.Marshal(v)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling event for client")
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping event")
		return false
	}
}

// Close asks the write loop to send a close frame with code and reason and
// shut the connection down. Only the first call has an effect.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

// Kick closes a connection that was replaced by a newer one for the same user.
func (c *Client) Kick() {
	reason := errs.NewError(errs.ErrSessionReplaced).Message
	c.logger.Warn().
		Int("close_code", CloseSessionReplaced).
		Str("reason", reason).
		Msg("Closing displaced connection")

	c.Close(CloseSessionReplaced, reason)
}

// readPump reads frames until the connection fails or is closed, handing each
// text frame to handle. Heartbeat pongs extend the read deadline.
func (c *Client) readPump(handle func([]byte)) {
	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, CloseSessionReplaced) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		handle(frame)
	}
}

// writePump owns every write to the connection: queued frames, heartbeat
// pings and the final close frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in writePump")
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			return
		}
	}
}

// flush writes whatever is still queued.
func (c *Client) flush() {
	for {
		select {
		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing to connection")
		return false
	}

	return true
}

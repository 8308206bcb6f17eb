package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
)

// client is one websocket connection.
type client struct {
	// bridge owns the client.
	bridge *Bridge
	// conn is the socket; only writePump writes to it.
	conn *websocket.Conn
	// ctx carries the client logger.
	ctx context.Context //nolint:containedctx // Lives as long as the connection.
	// feed delivers controller snapshots.
	feed <-chan *alert.Snapshot
	// unsubscribe stops feed.
	unsubscribe func()
	// replies queues error messages for the writer.
	replies chan Message
	// done is closed to stop the writer.
	done chan struct{}
	// doneOnce guards done.
	doneOnce sync.Once
	// limiter throttles commands.
	limiter *rate.Limiter
	// actor is used when a command names none.
	actor *alert.Actor
}

// closeSend signals the writer to finish. Safe to call repeatedly.
func (c *client) closeSend() {
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// writePump sends snapshots, replies and pings until the client ends.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.unsubscribe()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.writeClose()

			return
		case snapshot, ok := <-c.feed:
			if !ok {
				c.writeClose()

				return
			}

			message, err := newMessage(MessageTypeState, NewStatePayload(snapshot))
			if err != nil {
				logger.ErrorKV(c.ctx, "Failed to encode state", "error", err)

				continue
			}

			if !c.write(message) {
				return
			}
		case message := <-c.replies:
			if !c.write(message) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write sends one JSON frame.
func (c *client) write(message Message) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteJSON(message); err != nil {
		logger.DebugKV(c.ctx, "Bridge write failed", "error", err)

		return false
	}

	return true
}

// writeClose sends a close frame.
func (c *client) writeClose() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump handles commands until the connection drops.
func (c *client) readPump() {
	defer func() {
		c.bridge.remove(c)
		c.closeSend()

		logger.InfoKV(c.ctx, "Bridge client disconnected", "clients", c.bridge.ClientCount())
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.DebugKV(c.ctx, "Bridge read failed", "error", err)
			}

			return
		}

		c.handle(data)
	}
}

// handle executes one command frame.
func (c *client) handle(data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		c.reply("malformed message")

		return
	}

	if !c.limiter.Allow() {
		c.reply("too many commands")

		return
	}

	var err error

	switch message.Type {
	case MessageTypeToggle:
		var payload TogglePayload
		if err = decodePayload(message.Payload, &payload); err != nil {
			break
		}

		_, err = c.bridge.service.Toggle(c.ctx, toActor(payload.Actor, c.actor))
	case MessageTypeSet:
		var payload SetPayload
		if err = decodePayload(message.Payload, &payload); err != nil {
			break
		}

		_, err = c.bridge.service.SetDesired(c.ctx, toActor(payload.Actor, c.actor), payload.Active)
	default:
		c.reply("unknown message type " + message.Type)

		return
	}

	if err != nil {
		logger.WarnKV(c.ctx, "Bridge command failed", "type", message.Type, "error", err)
		c.reply(err.Error())
	}
}

// reply queues an error message, dropping it when the queue is full.
func (c *client) reply(text string) {
	message, err := newMessage(MessageTypeError, ErrorPayload{Message: text})
	if err != nil {
		return
	}

	select {
	case c.replies <- message:
	default:
	}
}

// decodePayload unmarshals an optional payload.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, v)
}

package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dstuartbryant/spacewego/internal/metrics"
)

const writeWait = 10 * time.Second

// client manages a single websocket connection's write operations. Only
// the handler goroutine writes data frames; pings go through WriteControl,
// which is safe to call concurrently.
type client struct {
	conn   *websocket.Conn
	ip     string
	logger *slog.Logger

	messagesSent int64
	bytesSent    int64
}

// sendJSON marshals v and writes it as one text frame.
func (c *client) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	// Extend write deadline before each write so a stalled reader cannot
	// pin the handler.
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Debug("could not set write deadline", "error", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	c.messagesSent++
	c.bytesSent += int64(len(data))
	metrics.RecordStreamMessage(len(data))
	return nil
}

// ping sends a keepalive ping control frame.
func (c *client) ping() error {
	if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// close sends a close frame with the given code. Errors are ignored; the
// peer may already be gone.
func (c *client) close(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

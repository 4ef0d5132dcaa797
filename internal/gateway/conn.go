package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/reqvest/internal/engine"
)

// conn is one client connection. Replies go through a per-command
// commandSink so each frame carries the command ID it answers.
type conn struct {
	id     string
	cfg    Config
	ws     *websocket.Conn
	logger *slog.Logger

	// Write serialization
	writeMu sync.Mutex

	// State
	mu       sync.RWMutex
	lastPong time.Time
	closed   bool

	done chan struct{}
}

func newConn(id string, ws *websocket.Conn, cfg Config, logger *slog.Logger) *conn {
	c := &conn{
		id:       id,
		cfg:      cfg,
		ws:       ws,
		logger:   logger,
		lastPong: time.Now(),
		done:     make(chan struct{}),
	}

	ws.SetReadLimit(cfg.MaxMessageBytes)
	ws.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPong = time.Now()
		c.mu.Unlock()
		return nil
	})
	return c
}

func replyFrame(replyTo string, r engine.Reply) Frame {
	return Frame{
		Type:      FrameReply,
		ReplyTo:   replyTo,
		Text:      r.Text,
		Prompt:    r.Prompt,
		Ephemeral: r.Ephemeral,
		Error:     r.Error,
	}
}

// writeFrame sends f as a JSON text message.
func (c *conn) writeFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// close sends a close frame and closes the socket. Safe to call repeatedly.
func (c *conn) close(code int, reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)

	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
	c.ws.Close()
}

// heartbeatLoop pings the client and closes the connection when pongs stop.
func (c *conn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}

			c.mu.RLock()
			lastPong := c.lastPong
			c.mu.RUnlock()

			if time.Since(lastPong) > c.cfg.PongTimeout {
				c.logger.Warn("no pong received, connection stale",
					"last_pong", lastPong,
					"timeout", c.cfg.PongTimeout,
				)
				c.close(websocket.CloseGoingAway, ErrStaleConnection.Error())
				return
			}
		}
	}
}

// commandSink answers one command. It records whether a reply was sent.
type commandSink struct {
	c       *conn
	id      string
	replied bool
}

func (s *commandSink) Reply(ctx context.Context, r engine.Reply) error {
	s.replied = true
	return s.c.writeFrame(replyFrame(s.id, r))
}

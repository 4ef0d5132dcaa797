package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/reqvest/internal/engine"
	"github.com/rickgao/reqvest/internal/metrics"
	"github.com/rickgao/reqvest/internal/resolver"
	"github.com/rickgao/reqvest/internal/session"
)

// Server accepts WebSocket connections and dispatches their commands.
type Server struct {
	cfg      Config
	handler  Handler
	upgrader websocket.Upgrader
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[string]*conn
}

// NewServer creates a gateway Server.
func NewServer(cfg Config, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are bots and services, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]*conn),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := uuid.NewString()
	c := newConn(id, ws, s.cfg, s.logger.With("conn", id))

	if !s.register(c) {
		c.close(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.unregister(c)

	c.logger.Info("gateway client connected", "remote", r.RemoteAddr)

	if err := c.writeFrame(Frame{Type: FrameHello, ConnID: id}); err != nil {
		c.logger.Debug("send hello", "error", err)
		c.close(websocket.CloseInternalServerErr, "")
		return
	}

	go c.heartbeatLoop()
	s.readLoop(c)
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close disconnects every client and waits for their handlers to return.
func (s *Server) Close(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gateway stopped", "closed", len(conns))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for gateway connections: %w", ctx.Err())
	}
}

func (s *Server) register(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	metrics.GatewayConnected(1)
	return true
}

func (s *Server) unregister(c *conn) {
	c.close(websocket.CloseNormalClosure, "")

	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()

	metrics.GatewayConnected(-1)
	s.wg.Done()
	c.logger.Info("gateway client disconnected")
}

// readLoop reads and handles commands until the connection fails.
func (s *Server) readLoop(c *conn) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn("gateway read failed", "error", err)
				}
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			metrics.RecordGatewayCommand("malformed")
			s.sendError(c, "", fmt.Sprintf("malformed command: %v", err))
			continue
		}

		s.handle(c, cmd)
	}
}

// handle runs one command and answers it.
func (s *Server) handle(c *conn, cmd Command) {
	if err := validate(cmd); err != nil {
		metrics.RecordGatewayCommand("invalid")
		s.sendError(c, cmd.ID, err.Error())
		return
	}
	metrics.RecordGatewayCommand(cmd.Type)

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.CommandTimeout)
	defer cancel()

	sink := &commandSink{c: c, id: cmd.ID}

	var err error
	switch cmd.Type {
	case TypeRequest:
		_, err = s.handler.SubmitRequest(ctx, sink, engine.Request{
			Namespace:   cmd.Namespace,
			UserID:      cmd.UserID,
			DisplayName: displayName(cmd),
			Text:        cmd.Text,
		})
	case TypeChoose:
		_, err = s.handler.SubmitChoice(ctx, sink, engine.Choice{
			Namespace: cmd.Namespace,
			UserID:    cmd.UserID,
			Choice:    cmd.Choice,
		})
	case TypeCount:
		err = s.handler.Count(ctx, sink, cmd.Namespace)
	case TypeReset:
		err = s.handler.Reset(ctx, sink, cmd.Namespace)
	}

	if err == nil {
		return
	}
	if userError(err) {
		c.logger.Debug("command rejected", "id", cmd.ID, "type", cmd.Type, "error", err)
	} else {
		c.logger.Warn("command failed", "id", cmd.ID, "type", cmd.Type, "error", err)
	}
	if !sink.replied {
		s.sendError(c, cmd.ID, "command failed")
	}
}

func (s *Server) sendError(c *conn, replyTo, msg string) {
	if err := c.writeFrame(Frame{Type: FrameError, ReplyTo: replyTo, Error: msg}); err != nil {
		c.logger.Debug("send error frame", "error", err)
	}
}

func validate(cmd Command) error {
	switch cmd.Type {
	case TypeRequest, TypeChoose:
		if cmd.UserID == "" {
			return errors.New("user_id is required")
		}
	case TypeCount, TypeReset:
	default:
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
	if cmd.Namespace == "" {
		return errors.New("namespace is required")
	}
	return nil
}

func displayName(cmd Command) string {
	if cmd.DisplayName != "" {
		return cmd.DisplayName
	}
	return cmd.UserID
}

// userError reports whether err is a rejected input the user was told about.
func userError(err error) bool {
	return errors.Is(err, resolver.ErrEmptyRequest) ||
		errors.Is(err, engine.ErrSessionInProgress) ||
		errors.Is(err, session.ErrInvalidChoice) ||
		errors.Is(err, session.ErrNoSession)
}

package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/reqvest/internal/engine"
)

// Errors
var (
	ErrConnClosed      = errors.New("connection closed")
	ErrStaleConnection = errors.New("connection stale (no pong)")
)

// Command types.
const (
	TypeRequest = "request"
	TypeChoose  = "choose"
	TypeCount   = "count"
	TypeReset   = "reset"
)

// Frame types.
const (
	FrameHello = "hello"
	FrameReply = "reply"
	FrameError = "error"
)

// Handler executes commands. *engine.Engine implements it.
type Handler interface {
	SubmitRequest(ctx context.Context, sink engine.ReplySink, req engine.Request) (engine.RequestResult, error)
	SubmitChoice(ctx context.Context, sink engine.ReplySink, c engine.Choice) (engine.ChoiceResult, error)
	Count(ctx context.Context, sink engine.ReplySink, namespace string) error
	Reset(ctx context.Context, sink engine.ReplySink, namespace string) error
}

// Config holds gateway settings.
type Config struct {
	PingInterval    time.Duration
	PongTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	CommandTimeout  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:    15 * time.Second,
		PongTimeout:     45 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxMessageBytes: 64 * 1024,
		CommandTimeout:  30 * time.Second,
	}
}

// Command is an inbound frame.
type Command struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Namespace   string `json:"namespace"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Text        string `json:"text,omitempty"`
	Choice      string `json:"choice,omitempty"`
}

// Frame is an outbound frame.
type Frame struct {
	Type      string         `json:"type"`
	ReplyTo   string         `json:"reply_to,omitempty"`
	ConnID    string         `json:"conn_id,omitempty"`
	Text      string         `json:"text,omitempty"`
	Prompt    *engine.Prompt `json:"prompt,omitempty"`
	Ephemeral bool           `json:"ephemeral,omitempty"`
	Error     string         `json:"error,omitempty"`
}

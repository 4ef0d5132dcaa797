package engine

import (
	"context"

	"github.com/rickgao/reqvest/internal/model"
)

// VoteRecorder persists confirmed tickers.
// A user votes for a given ticker at most once per namespace.
type VoteRecorder interface {
	RecordVote(ctx context.Context, namespace, userID, displayName string, tickers []string) error
	CountVotes(ctx context.Context, namespace string) ([]model.Tally, error)
	ResetVotes(ctx context.Context, namespace string) error
}

// ReplySink delivers replies to the user that issued a command.
type ReplySink interface {
	Reply(ctx context.Context, r Reply) error
}

// ReplySinkFunc adapts a function to ReplySink.
type ReplySinkFunc func(ctx context.Context, r Reply) error

func (f ReplySinkFunc) Reply(ctx context.Context, r Reply) error {
	return f(ctx, r)
}

// Reply is a rendered message for the user.
type Reply struct {
	Text      string
	Prompt    *Prompt // Set when a choice is awaited
	Ephemeral bool    // Visible only to the requesting user
	Error     string  // Annotation for rejected input
}

// Prompt asks the user to pick a ticker for an ambiguous term.
type Prompt struct {
	Term    string   `json:"term"`
	Options []Option `json:"options"`
}

// Option is one selectable ticker.
type Option struct {
	Index  int    `json:"index"` // 1-based
	Ticker string `json:"ticker"`
}

// Request is a stock request command.
type Request struct {
	Namespace   string
	UserID      string
	DisplayName string
	Text        string
}

// Choice is a disambiguation pick.
type Choice struct {
	Namespace string
	UserID    string
	Choice    string
}

// RequestResult summarizes a SubmitRequest.
type RequestResult struct {
	Confirmed []string
	Prompt    *Prompt
	Unmatched []string
	Recorded  bool // Confirmed tickers were handed to the recorder
}

// ChoiceResult summarizes a SubmitChoice.
type ChoiceResult struct {
	Prompt *Prompt  // Next term awaiting a choice
	Closed []string // Tickers recorded when the session closed
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rickgao/reqvest/internal/metrics"
	"github.com/rickgao/reqvest/internal/resolver"
	"github.com/rickgao/reqvest/internal/session"
)

var (
	ErrSessionInProgress = errors.New("disambiguation session in progress")
	ErrVoteRecord        = errors.New("record votes")
)

// Engine handles bot commands. Safe for concurrent use.
type Engine struct {
	resolver *resolver.Resolver
	recorder VoteRecorder
	sessions session.Manager
	logger   *slog.Logger
}

// New creates an Engine. Closed sessions are flushed to recorder.
func New(res *resolver.Resolver, recorder VoteRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		resolver: res,
		recorder: recorder,
		logger:   logger,
	}
	e.sessions = session.NewManager(e.flush, logger.With("component", "session"))
	return e
}

// Sessions exposes the session store for health and debug endpoints.
func (e *Engine) Sessions() session.Manager {
	return e.sessions
}

// SubmitRequest resolves a request and either records its tickers or opens
// a session for the ambiguous terms. Confirmed tickers are deferred to
// session close when any term is ambiguous.
func (e *Engine) SubmitRequest(ctx context.Context, sink ReplySink, req Request) (RequestResult, error) {
	key := session.Key{Namespace: req.Namespace, UserID: req.UserID}

	if s, ok := e.sessions.Get(key); ok {
		return RequestResult{}, e.rejectInProgress(ctx, sink, s.Prompt())
	}

	tokens, err := resolver.SplitRequest(req.Text)
	if err != nil {
		return RequestResult{}, e.reject(ctx, sink, msgEmptyRequest, nil, err)
	}

	outcomes, err := e.resolver.ResolveBatch(ctx, tokens)
	if err != nil {
		return RequestResult{}, fmt.Errorf("resolve request: %w", err)
	}

	var (
		result RequestResult
		terms  []session.Term
	)
	for _, o := range outcomes {
		switch o.Kind {
		case resolver.Confirmed:
			result.Confirmed = append(result.Confirmed, o.Ticker)
		case resolver.Ambiguous:
			terms = append(terms, session.Term{Name: string(o.MatchedName), Candidates: o.Candidates})
		default:
			result.Unmatched = append(result.Unmatched, o.Token)
		}
	}

	e.logger.Debug("request resolved",
		"namespace", req.Namespace,
		"user", req.UserID,
		"tokens", len(tokens),
		"confirmed", len(result.Confirmed),
		"ambiguous", len(terms),
		"unmatched", len(result.Unmatched),
	)

	var lines []string
	if len(result.Unmatched) > 0 {
		lines = noMatchLines(result.Unmatched)
	}

	if len(terms) > 0 {
		s, err := e.sessions.Open(key, req.DisplayName, terms, result.Confirmed)
		if errors.Is(err, session.ErrSessionExists) {
			cur, _ := e.sessions.Get(key)
			return RequestResult{}, e.rejectInProgress(ctx, sink, cur.Prompt())
		}
		if err != nil {
			return RequestResult{}, fmt.Errorf("open session: %w", err)
		}

		result.Prompt = promptFrom(s.Prompt())
		lines = append(lines, promptLine(result.Prompt))
		return result, e.send(ctx, sink, Reply{
			Text:      strings.Join(lines, "\n"),
			Prompt:    result.Prompt,
			Ephemeral: true,
		})
	}

	if len(result.Confirmed) > 0 {
		if err := e.record(ctx, req.Namespace, req.UserID, req.DisplayName, result.Confirmed); err != nil {
			return result, e.reject(ctx, sink, msgRecordFailed, nil, err)
		}
		result.Recorded = true
		lines = append([]string{requestReceived(result.Confirmed)}, lines...)
	}

	return result, e.send(ctx, sink, Reply{
		Text:      strings.Join(lines, "\n"),
		Ephemeral: true,
	})
}

// SubmitChoice applies a 1-based choice to the user's open session.
// Invalid input re-emits the current prompt and leaves the session unchanged.
func (e *Engine) SubmitChoice(ctx context.Context, sink ReplySink, c Choice) (ChoiceResult, error) {
	key := session.Key{Namespace: c.Namespace, UserID: c.UserID}

	index, err := strconv.Atoi(strings.TrimSpace(c.Choice))
	if err != nil {
		cur, ok := e.sessions.Get(key)
		if !ok {
			return ChoiceResult{}, e.reject(ctx, sink, msgNoSession, nil, session.ErrNoSession)
		}
		p := promptFrom(cur.Prompt())
		return ChoiceResult{Prompt: p}, e.reject(ctx, sink, invalidChoice(p), p,
			fmt.Errorf("%w: %q is not a number", session.ErrInvalidChoice, c.Choice))
	}

	res, err := e.sessions.Choose(ctx, key, index)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return ChoiceResult{}, e.reject(ctx, sink, msgNoSession, nil, err)
	case errors.Is(err, session.ErrInvalidChoice):
		p := promptFrom(res.Session.Prompt())
		return ChoiceResult{Prompt: p}, e.reject(ctx, sink, invalidChoice(p), p, err)
	case errors.Is(err, session.ErrFlushFailed):
		p := promptFrom(res.Session.Prompt())
		return ChoiceResult{Prompt: p}, e.reject(ctx, sink, msgRecordFailed, p, err)
	case err != nil:
		return ChoiceResult{}, fmt.Errorf("choose: %w", err)
	}

	if res.Closed {
		return ChoiceResult{Closed: res.Tickers}, e.send(ctx, sink, Reply{
			Text: suggestionsReceived(res.Tickers),
		})
	}

	p := promptFrom(res.Session.Prompt())
	return ChoiceResult{Prompt: p}, e.send(ctx, sink, Reply{
		Text:      promptLine(p),
		Prompt:    p,
		Ephemeral: true,
	})
}

// Count replies with the namespace's vote tally.
func (e *Engine) Count(ctx context.Context, sink ReplySink, namespace string) error {
	tally, err := e.recorder.CountVotes(ctx, namespace)
	if err != nil {
		e.logger.Error("count votes", "namespace", namespace, "error", err)
		return e.reject(ctx, sink, "Vote counts are unavailable. Please try again.", nil, fmt.Errorf("count votes: %w", err))
	}
	return e.send(ctx, sink, Reply{Text: renderTally(tally)})
}

// Reset clears the namespace's votes.
func (e *Engine) Reset(ctx context.Context, sink ReplySink, namespace string) error {
	if err := e.recorder.ResetVotes(ctx, namespace); err != nil {
		e.logger.Error("reset votes", "namespace", namespace, "error", err)
		return e.reject(ctx, sink, "Votes could not be cleared. Please try again.", nil, fmt.Errorf("reset votes: %w", err))
	}
	e.logger.Info("votes reset", "namespace", namespace)
	return e.send(ctx, sink, Reply{Text: msgReset, Ephemeral: true})
}

// flush records a closed session's tickers.
func (e *Engine) flush(ctx context.Context, key session.Key, displayName string, tickers []string) error {
	return e.record(ctx, key.Namespace, key.UserID, displayName, tickers)
}

func (e *Engine) record(ctx context.Context, namespace, userID, displayName string, tickers []string) error {
	err := e.recorder.RecordVote(ctx, namespace, userID, displayName, tickers)
	metrics.RecordVoteHandoff(err)
	if err != nil {
		e.logger.Error("record votes",
			"namespace", namespace,
			"user", userID,
			"tickers", tickers,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrVoteRecord, err)
	}
	return nil
}

func (e *Engine) rejectInProgress(ctx context.Context, sink ReplySink, sp session.Prompt) error {
	p := promptFrom(sp)
	text := "Finish choosing your pending tickers before submitting new requests."
	if p != nil {
		text += "\n" + promptLine(p)
	}
	return e.reject(ctx, sink, text, p, ErrSessionInProgress)
}

// reject replies with text and returns cause, or the delivery error if the
// reply could not be sent.
func (e *Engine) reject(ctx context.Context, sink ReplySink, text string, p *Prompt, cause error) error {
	if err := e.send(ctx, sink, Reply{Text: text, Prompt: p, Ephemeral: true, Error: cause.Error()}); err != nil {
		return err
	}
	return cause
}

func (e *Engine) send(ctx context.Context, sink ReplySink, r Reply) error {
	if sink == nil {
		return nil
	}
	if err := sink.Reply(ctx, r); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/rickgao/reqvest/internal/fuzzy"
	"github.com/rickgao/reqvest/internal/metrics"
	"github.com/rickgao/reqvest/internal/normalize"
	"github.com/rickgao/reqvest/internal/reference"
)

// DefaultThreshold is the fuzzy score a match must exceed to be accepted.
const DefaultThreshold = 80.0

// ErrEmptyRequest means a request contained no usable tokens.
var ErrEmptyRequest = errors.New("no stock name or ticker found")

// Config holds Resolver configuration.
type Config struct {
	Threshold float64
	Weights   fuzzy.Weights
	Workers   int // Fuzzy scoring goroutines; <= 0 uses GOMAXPROCS
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Weights:   fuzzy.DefaultWeights(),
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithScorer replaces the composite fuzzy scorer.
func WithScorer(s fuzzy.Scorer) Option {
	return func(r *Resolver) {
		r.scorer = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver classifies request tokens against a reference index.
// Safe for concurrent use.
type Resolver struct {
	cfg     Config
	index   *reference.Index
	scorer  fuzzy.Scorer
	matcher *fuzzy.Matcher
	logger  *slog.Logger
}

// New creates a Resolver over idx.
func New(idx *reference.Index, cfg Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:    cfg,
		index:  idx,
		scorer: fuzzy.NewComposite(cfg.Weights),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.matcher = fuzzy.NewMatcher(r.scorer, cfg.Workers)
	return r
}

// SplitRequest splits comma-separated request text into uppercased tokens,
// dropping empty fields.
func SplitRequest(text string) ([]string, error) {
	var tokens []string
	for _, field := range strings.Split(text, ",") {
		tok := strings.ToUpper(strings.TrimSpace(field))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return nil, ErrEmptyRequest
	}
	return tokens, nil
}

// ResolveBatch resolves each token, preserving input order.
// An error is returned only when ctx is done during fuzzy matching.
func (r *Resolver) ResolveBatch(ctx context.Context, tokens []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(tokens))
	for _, tok := range tokens {
		o, err := r.Resolve(ctx, tok)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Resolve resolves a single token.
func (r *Resolver) Resolve(ctx context.Context, token string) (Outcome, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	out, err := r.resolve(ctx, token)
	if err != nil {
		return Outcome{}, err
	}
	metrics.RecordResolution(out.Kind.String(), string(out.Method))
	return out, nil
}

func (r *Resolver) resolve(ctx context.Context, token string) (Outcome, error) {
	if !hasLetter(token) {
		return Outcome{Kind: Unmatched, Token: token}, nil
	}

	if r.index.HasTicker(token) {
		return Outcome{Kind: Confirmed, Token: token, Ticker: token, Method: MethodTicker, Score: 100}, nil
	}

	name := normalize.Normalize(token)
	if name == "" {
		return Outcome{Kind: Unmatched, Token: token}, nil
	}

	if tickers, ok := r.index.Tickers(name); ok {
		return fromName(token, name, tickers, MethodName, 100), nil
	}

	start := time.Now()
	match, ok, err := r.matcher.Best(ctx, string(name), r.index.Names())
	metrics.ObserveFuzzyMatch(time.Since(start))
	if err != nil {
		return Outcome{}, err
	}

	if !ok || match.Score <= r.cfg.Threshold {
		r.logger.Debug("no match above threshold",
			"token", token,
			"best", match.Key,
			"score", match.Score,
			"threshold", r.cfg.Threshold,
		)
		return Outcome{Kind: Unmatched, Token: token, Score: match.Score}, nil
	}

	matched := normalize.Name(match.Key)
	tickers, _ := r.index.Tickers(matched)
	r.logger.Debug("fuzzy match",
		"token", token,
		"name", match.Key,
		"score", match.Score,
		"tickers", len(tickers),
	)
	return fromName(token, matched, tickers, MethodFuzzy, match.Score), nil
}

// fromName branches on candidate count.
func fromName(token string, name normalize.Name, tickers []string, method Method, score float64) Outcome {
	if len(tickers) == 1 {
		return Outcome{Kind: Confirmed, Token: token, Ticker: tickers[0], MatchedName: name, Method: method, Score: score}
	}
	return Outcome{Kind: Ambiguous, Token: token, Candidates: tickers, MatchedName: name, Method: method, Score: score}
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

package fuzzy

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps small universes on a single goroutine.
const minChunk = 512

// Match is the best scoring choice for a query.
type Match struct {
	Key   string
	Score float64
}

// better reports whether a outranks b: higher score, then shorter key,
// then lexicographically smaller key.
func better(a, b Match) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if len(a.Key) != len(b.Key) {
		return len(a.Key) < len(b.Key)
	}
	return a.Key < b.Key
}

// Matcher finds the best choice for a query across a fixed universe.
// Safe for concurrent use.
type Matcher struct {
	scorer  Scorer
	workers int
}

// NewMatcher creates a matcher. workers <= 0 uses GOMAXPROCS.
func NewMatcher(scorer Scorer, workers int) *Matcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Matcher{scorer: scorer, workers: workers}
}

// Best returns the highest scoring choice. ok is false when choices is empty.
// The result does not depend on how work was split across goroutines.
func (m *Matcher) Best(ctx context.Context, query string, choices []string) (best Match, ok bool, err error) {
	if len(choices) == 0 {
		return Match{}, false, nil
	}

	chunk := (len(choices) + m.workers - 1) / m.workers
	if chunk < minChunk {
		chunk = minChunk
	}
	nChunks := (len(choices) + chunk - 1) / chunk
	results := make([]Match, nChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := 0; i < nChunks; i++ {
		lo := i * chunk
		hi := min(lo+chunk, len(choices))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = m.bestOf(query, choices[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Match{}, false, err
	}

	best = results[0]
	for _, r := range results[1:] {
		if better(r, best) {
			best = r
		}
	}
	return best, true, nil
}

func (m *Matcher) bestOf(query string, choices []string) Match {
	best := Match{Key: choices[0], Score: m.scorer.Score(query, choices[0])}
	for _, c := range choices[1:] {
		cand := Match{Key: c, Score: m.scorer.Score(query, c)}
		if better(cand, best) {
			best = cand
		}
	}
	return best
}

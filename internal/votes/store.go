package votes

import (
	"context"
	"sort"

	"github.com/rickgao/reqvest/internal/model"
)

// Recorder persists and tallies votes.
type Recorder interface {
	RecordVote(ctx context.Context, namespace, userID, displayName string, tickers []string) error
	CountVotes(ctx context.Context, namespace string) ([]model.Tally, error)
	ResetVotes(ctx context.Context, namespace string) error
}

// normalizeTickers uppercases tickers and drops blanks and repeats,
// keeping first-seen order.
func normalizeTickers(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		t = model.NormalizeTicker(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// sortTally orders by votes descending, then ticker ascending.
func sortTally(tally []model.Tally) {
	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Votes != tally[j].Votes {
			return tally[i].Votes > tally[j].Votes
		}
		return tally[i].Ticker < tally[j].Ticker
	})
}

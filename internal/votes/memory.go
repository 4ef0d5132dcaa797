package votes

import (
	"context"
	"sync"

	"github.com/rickgao/reqvest/internal/model"
)

// MemoryStore is an in-memory Recorder. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]*memoryNamespace
}

type memoryNamespace struct {
	members map[string]string              // user → display name
	votes   map[string]map[string]struct{} // user → tickers
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]*memoryNamespace)}
}

// RecordVote records the user's votes.
func (s *MemoryStore) RecordVote(ctx context.Context, namespace, userID, displayName string, tickers []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = &memoryNamespace{
			members: make(map[string]string),
			votes:   make(map[string]map[string]struct{}),
		}
		s.namespaces[namespace] = ns
	}

	ns.members[userID] = displayName
	userVotes, ok := ns.votes[userID]
	if !ok {
		userVotes = make(map[string]struct{})
		ns.votes[userID] = userVotes
	}
	for _, t := range normalizeTickers(tickers) {
		userVotes[t] = struct{}{}
	}
	return nil
}

// CountVotes tallies votes per ticker.
func (s *MemoryStore) CountVotes(ctx context.Context, namespace string) ([]model.Tally, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	counts := make(map[string]int64)
	if ns, ok := s.namespaces[namespace]; ok {
		for _, userVotes := range ns.votes {
			for t := range userVotes {
				counts[t]++
			}
		}
	}
	s.mu.RUnlock()

	tally := make([]model.Tally, 0, len(counts))
	for t, n := range counts {
		tally = append(tally, model.Tally{Ticker: t, Votes: n})
	}
	sortTally(tally)
	return tally, nil
}

// ResetVotes drops every member and vote in namespace.
func (s *MemoryStore) ResetVotes(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.namespaces, namespace)
	s.mu.Unlock()
	return nil
}

// Members returns the display names recorded for namespace.
func (s *MemoryStore) Members(namespace string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string)
	if ns, ok := s.namespaces[namespace]; ok {
		for id, name := range ns.members {
			out[id] = name
		}
	}
	return out
}

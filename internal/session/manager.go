package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rickgao/reqvest/internal/metrics"
)

// FlushFunc hands a closed session's confirmed tickers to the vote recorder.
// The session is removed only when it returns nil.
type FlushFunc func(ctx context.Context, key Key, displayName string, tickers []string) error

// Manager owns the open disambiguation sessions.
type Manager interface {
	// Open starts a session for key awaiting a choice for terms[0].
	Open(key Key, displayName string, terms []Term, confirmed []string) (Session, error)

	// Choose applies a 1-based choice to the key's current term.
	Choose(ctx context.Context, key Key, index int) (Result, error)

	// Get returns the key's open session.
	Get(key Key) (Session, bool)

	// Len returns the number of open sessions.
	Len() int

	// Snapshot returns a summary of every open session, oldest first.
	Snapshot() []Info
}

// Result is the outcome of a successful Choose.
type Result struct {
	// Session after the choice. Zero when Closed.
	Session Session

	// Closed is set when the last term was resolved and the flush succeeded.
	Closed bool

	// Tickers flushed on close, in confirmation order.
	Tickers []string
}

// Info summarizes an open session.
type Info struct {
	ID          string    `json:"id"`
	Namespace   string    `json:"namespace"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Term        string    `json:"term"`
	Pending     int       `json:"pending"`
	Confirmed   int       `json:"confirmed"`
	OpenedAt    time.Time `json:"opened_at"`
}

// keyLock is a reference-counted per-key mutex.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// manager implements the Manager interface.
type manager struct {
	flush  FlushFunc
	logger *slog.Logger

	// Guards sessions and locks. Never held across a flush.
	mu       sync.Mutex
	sessions map[Key]Session
	locks    map[Key]*keyLock
}

// NewManager creates a session Manager that flushes closed sessions through flush.
func NewManager(flush FlushFunc, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &manager{
		flush:    flush,
		logger:   logger,
		sessions: make(map[Key]Session),
		locks:    make(map[Key]*keyLock),
	}
}

// Open starts a session.
func (m *manager) Open(key Key, displayName string, terms []Term, confirmed []string) (Session, error) {
	if len(terms) == 0 {
		return Session{}, ErrNothingPending
	}

	unlock := m.lock(key)
	defer unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key]; ok {
		return Session{}, fmt.Errorf("%w for %s", ErrSessionExists, key)
	}

	s := newSession(key, displayName, terms, confirmed)
	m.sessions[key] = s
	metrics.SetSessionsOpen(len(m.sessions))
	metrics.RecordSessionTransition("open")

	m.logger.Debug("session opened",
		"session", s.ID,
		"key", key.String(),
		"pending", len(s.Pending),
		"confirmed", len(s.Confirmed),
	)
	return s, nil
}

// Choose applies a choice and closes the session once nothing is pending.
func (m *manager) Choose(ctx context.Context, key Key, index int) (Result, error) {
	unlock := m.lock(key)
	defer unlock()

	cur, ok := m.Get(key)
	if !ok {
		return Result{}, ErrNoSession
	}

	next, err := cur.Choose(index)
	if err != nil {
		metrics.RecordSessionTransition("invalid_choice")
		return Result{Session: cur}, err
	}

	if !next.Done() {
		m.put(next)
		metrics.RecordSessionTransition("choose")
		return Result{Session: next}, nil
	}

	// Last term resolved. The key lock is held across the flush so a racing
	// message from the same user observes either the open or the closed state.
	tickers := next.Confirmed
	if m.flush != nil {
		if err := m.flush(ctx, key, next.DisplayName, tickers); err != nil {
			metrics.RecordSessionTransition("flush_failed")
			m.logger.Error("flush session",
				"session", cur.ID,
				"key", key.String(),
				"tickers", tickers,
				"error", err,
			)
			return Result{Session: cur}, fmt.Errorf("%w: %w", ErrFlushFailed, err)
		}
	}

	m.remove(key)
	metrics.RecordSessionTransition("close")
	m.logger.Debug("session closed",
		"session", cur.ID,
		"key", key.String(),
		"tickers", tickers,
	)
	return Result{Closed: true, Tickers: tickers}, nil
}

// Get returns the open session for key.
func (m *manager) Get(key Key) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

// Len returns the number of open sessions.
func (m *manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Snapshot returns open sessions ordered by open time.
func (m *manager) Snapshot() []Info {
	m.mu.Lock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		cur, _ := s.Current()
		infos = append(infos, Info{
			ID:          s.ID,
			Namespace:   s.Key.Namespace,
			UserID:      s.Key.UserID,
			DisplayName: s.DisplayName,
			Term:        cur.Name,
			Pending:     len(s.Pending),
			Confirmed:   len(s.Confirmed),
			OpenedAt:    s.OpenedAt,
		})
	}
	m.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].OpenedAt.Equal(infos[j].OpenedAt) {
			return infos[i].OpenedAt.Before(infos[j].OpenedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

func (m *manager) put(s Session) {
	m.mu.Lock()
	m.sessions[s.Key] = s
	m.mu.Unlock()
}

func (m *manager) remove(key Key) {
	m.mu.Lock()
	delete(m.sessions, key)
	metrics.SetSessionsOpen(len(m.sessions))
	m.mu.Unlock()
}

// lock acquires the per-key mutex and returns its release func.
func (m *manager) lock(key Key) func() {
	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()

		m.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

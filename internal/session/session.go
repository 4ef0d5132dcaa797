package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionExists  = errors.New("session already open")
	ErrNothingPending = errors.New("no ambiguous terms")
	ErrNoSession      = errors.New("no open session")
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrFlushFailed    = errors.New("flush confirmed tickers")
)

// Key identifies the owner of a session.
type Key struct {
	Namespace string
	UserID    string
}

func (k Key) String() string {
	return k.Namespace + "/" + k.UserID
}

// Term is an ambiguous request term awaiting a choice.
type Term struct {
	Name       string   // Matched normalized company name
	Candidates []string // Sorted candidate tickers
}

// Prompt lists the candidates for the current term.
// Options are presented with 1-based indexes in slice order.
type Prompt struct {
	Term    string
	Options []string
}

// Session is the state of one user's disambiguation.
// Values are immutable; Choose returns an updated copy.
type Session struct {
	ID          string
	Key         Key
	DisplayName string
	Pending     []Term
	Confirmed   []string
	OpenedAt    time.Time
}

// newSession creates a session awaiting a choice for terms[0].
// Terms sharing a name collapse into the first occurrence.
func newSession(key Key, displayName string, terms []Term, confirmed []string) Session {
	s := Session{
		ID:          uuid.NewString(),
		Key:         key,
		DisplayName: displayName,
		Pending:     make([]Term, 0, len(terms)),
		Confirmed:   make([]string, len(confirmed)),
		OpenedAt:    time.Now(),
	}
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		s.Pending = append(s.Pending, Term{Name: t.Name, Candidates: append([]string(nil), t.Candidates...)})
	}
	copy(s.Confirmed, confirmed)
	return s
}

// Current returns the term awaiting a choice.
func (s Session) Current() (Term, bool) {
	if len(s.Pending) == 0 {
		return Term{}, false
	}
	return s.Pending[0], true
}

// Done reports whether every term has been resolved.
func (s Session) Done() bool {
	return len(s.Pending) == 0
}

// Prompt returns the prompt for the current term.
func (s Session) Prompt() Prompt {
	cur, ok := s.Current()
	if !ok {
		return Prompt{}
	}
	return Prompt{Term: cur.Name, Options: append([]string(nil), cur.Candidates...)}
}

// Choose applies a 1-based choice for the current term.
// The receiver is never modified.
func (s Session) Choose(index int) (Session, error) {
	cur, ok := s.Current()
	if !ok {
		return s, ErrNothingPending
	}
	if index < 1 || index > len(cur.Candidates) {
		return s, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidChoice, index, len(cur.Candidates))
	}

	next := s
	next.Pending = s.Pending[1:len(s.Pending):len(s.Pending)]
	next.Confirmed = make([]string, len(s.Confirmed), len(s.Confirmed)+1)
	copy(next.Confirmed, s.Confirmed)
	next.Confirmed = append(next.Confirmed, cur.Candidates[index-1])
	return next, nil
}

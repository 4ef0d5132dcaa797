package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/reqvest/internal/model"
	"github.com/rickgao/reqvest/internal/reference"
	"github.com/rickgao/reqvest/internal/resolver"
	"github.com/rickgao/reqvest/internal/session"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordVote(ctx context.Context, namespace, userID, displayName string, tickers []string) error {
	args := m.Called(ctx, namespace, userID, displayName, tickers)
	return args.Error(0)
}

func (m *mockRecorder) CountVotes(ctx context.Context, namespace string) ([]model.Tally, error) {
	args := m.Called(ctx, namespace)
	tally, _ := args.Get(0).([]model.Tally)
	return tally, args.Error(1)
}

func (m *mockRecorder) ResetVotes(ctx context.Context, namespace string) error {
	args := m.Called(ctx, namespace)
	return args.Error(0)
}

type captureSink struct {
	replies []Reply
}

func (c *captureSink) Reply(_ context.Context, r Reply) error {
	c.replies = append(c.replies, r)
	return nil
}

func (c *captureSink) last(t *testing.T) Reply {
	t.Helper()
	require.NotEmpty(t, c.replies)
	return c.replies[len(c.replies)-1]
}

func newTestEngine(t *testing.T) (*Engine, *mockRecorder) {
	t.Helper()
	idx, err := reference.Build([]model.Listing{
		{Ticker: "AAPL", Name: "Apple Inc"},
		{Ticker: "GOOGL", Name: "Alphabet Inc Class A"},
		{Ticker: "GOOG", Name: "Alphabet Inc Class C"},
		{Ticker: "BRK.A", Name: "Berkshire Hathaway Inc"},
		{Ticker: "BRK.B", Name: "Berkshire Hathaway Inc. New"},
	}, reference.Options{})
	require.NoError(t, err)

	rec := &mockRecorder{}
	return New(resolver.New(idx, resolver.DefaultConfig()), rec, nil), rec
}

func request(text string) Request {
	return Request{Namespace: "g1", UserID: "u1", DisplayName: "alice", Text: text}
}

func choice(c string) Choice {
	return Choice{Namespace: "g1", UserID: "u1", Choice: c}
}

func TestSubmitRequest_AllConfirmedRecordsImmediately(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}
	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"AAPL", "GOOG"}).Return(nil).Once()

	res, err := e.SubmitRequest(context.Background(), sink, request("aapl, goog, 123"))
	require.NoError(t, err)

	assert.True(t, res.Recorded)
	assert.Equal(t, []string{"AAPL", "GOOG"}, res.Confirmed)
	assert.Equal(t, []string{"123"}, res.Unmatched)
	assert.Nil(t, res.Prompt)
	assert.Equal(t, 0, e.Sessions().Len())

	reply := sink.last(t)
	assert.Equal(t, "Requests received: AAPL, GOOG\n"+
		"No match found for: 123\n"+
		"Please check spelling or try using the stock's ticker symbol.", reply.Text)
	assert.True(t, reply.Ephemeral)
	rec.AssertExpectations(t)
}

func TestSubmitRequest_AmbiguousScenario(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}

	res, err := e.SubmitRequest(context.Background(), sink, request("AAPL, Alphabet"))
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.Equal(t, []string{"AAPL"}, res.Confirmed)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, &Prompt{Term: "ALPHABET", Options: []Option{{1, "GOOG"}, {2, "GOOGL"}}}, res.Prompt)
	assert.Equal(t, "Multiple tickers found for ALPHABET:", sink.last(t).Text)
	assert.Equal(t, 1, e.Sessions().Len())
	rec.AssertNotCalled(t, "RecordVote", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"AAPL", "GOOG"}).Return(nil).Once()

	cres, err := e.SubmitChoice(context.Background(), sink, choice("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOG"}, cres.Closed)
	assert.Nil(t, cres.Prompt)
	assert.Equal(t, "Suggestions received: AAPL, GOOG", sink.last(t).Text)
	assert.Equal(t, 0, e.Sessions().Len())
	rec.AssertExpectations(t)
}

func TestSubmitRequest_RepeatedNamePromptsOnce(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}

	res, err := e.SubmitRequest(context.Background(), sink, request("Alphabet, alphabet inc"))
	require.NoError(t, err)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, "ALPHABET", res.Prompt.Term)

	s, ok := e.Sessions().Get(session.Key{Namespace: "g1", UserID: "u1"})
	require.True(t, ok)
	assert.Len(t, s.Pending, 1)

	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"GOOG"}).Return(nil).Once()

	cres, err := e.SubmitChoice(context.Background(), sink, choice("1"))
	require.NoError(t, err)
	assert.Nil(t, cres.Prompt)
	assert.Equal(t, []string{"GOOG"}, cres.Closed)
	assert.Equal(t, 0, e.Sessions().Len())
	rec.AssertExpectations(t)
}

func TestSubmitChoice_AdvancesThroughTerms(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}

	_, err := e.SubmitRequest(context.Background(), sink, request("alphabet, berkshire hathaway"))
	require.NoError(t, err)

	cres, err := e.SubmitChoice(context.Background(), sink, choice(" 2 "))
	require.NoError(t, err)
	require.NotNil(t, cres.Prompt)
	assert.Equal(t, "BERKSHIRE HATHAWAY", cres.Prompt.Term)
	assert.Equal(t, "Multiple tickers found for BERKSHIRE HATHAWAY:", sink.last(t).Text)

	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"GOOGL", "BRK.B"}).Return(nil).Once()
	cres, err = e.SubmitChoice(context.Background(), sink, choice("2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"GOOGL", "BRK.B"}, cres.Closed)
	rec.AssertExpectations(t)
}

func TestSubmitRequest_SessionInProgress(t *testing.T) {
	e, _ := newTestEngine(t)
	sink := &captureSink{}

	_, err := e.SubmitRequest(context.Background(), sink, request("alphabet"))
	require.NoError(t, err)

	_, err = e.SubmitRequest(context.Background(), sink, request("aapl"))
	assert.ErrorIs(t, err, ErrSessionInProgress)

	reply := sink.last(t)
	require.NotNil(t, reply.Prompt)
	assert.Equal(t, "ALPHABET", reply.Prompt.Term)
	assert.NotEmpty(t, reply.Error)

	s, ok := e.Sessions().Get(session.Key{Namespace: "g1", UserID: "u1"})
	require.True(t, ok)
	assert.Empty(t, s.Confirmed)
}

func TestSubmitRequest_Empty(t *testing.T) {
	e, _ := newTestEngine(t)
	sink := &captureSink{}

	_, err := e.SubmitRequest(context.Background(), sink, request(" , ,"))
	assert.ErrorIs(t, err, resolver.ErrEmptyRequest)
	assert.Equal(t, msgEmptyRequest, sink.last(t).Text)
}

func TestSubmitRequest_RecordFailure(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}
	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"AAPL"}).Return(errors.New("db down")).Once()

	res, err := e.SubmitRequest(context.Background(), sink, request("aapl"))
	assert.ErrorIs(t, err, ErrVoteRecord)
	assert.False(t, res.Recorded)
	assert.Equal(t, msgRecordFailed, sink.last(t).Text)
}

func TestSubmitChoice_Invalid(t *testing.T) {
	e, _ := newTestEngine(t)
	sink := &captureSink{}

	_, err := e.SubmitRequest(context.Background(), sink, request("AAPL, Alphabet"))
	require.NoError(t, err)
	key := session.Key{Namespace: "g1", UserID: "u1"}
	before, _ := e.Sessions().Get(key)

	for _, c := range []string{"abc", "0", "3", "", "-1"} {
		cres, err := e.SubmitChoice(context.Background(), sink, choice(c))
		assert.ErrorIs(t, err, session.ErrInvalidChoice, "choice %q", c)
		require.NotNil(t, cres.Prompt)
		assert.Equal(t, "ALPHABET", cres.Prompt.Term)

		reply := sink.last(t)
		assert.Equal(t, "Invalid choice. Enter a number from 1 to 2.", reply.Text)
		assert.NotNil(t, reply.Prompt)

		after, ok := e.Sessions().Get(key)
		require.True(t, ok)
		assert.Equal(t, before, after)
	}
}

func TestSubmitChoice_NoSession(t *testing.T) {
	e, _ := newTestEngine(t)
	sink := &captureSink{}

	_, err := e.SubmitChoice(context.Background(), sink, choice("1"))
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, msgNoSession, sink.last(t).Text)

	_, err = e.SubmitChoice(context.Background(), sink, choice("x"))
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSubmitChoice_FlushFailureRetainsSession(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}

	_, err := e.SubmitRequest(context.Background(), sink, request("AAPL, Alphabet"))
	require.NoError(t, err)

	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"AAPL", "GOOG"}).Return(errors.New("db down")).Once()
	cres, err := e.SubmitChoice(context.Background(), sink, choice("1"))
	assert.ErrorIs(t, err, ErrVoteRecord)
	assert.ErrorIs(t, err, session.ErrFlushFailed)
	require.NotNil(t, cres.Prompt)
	assert.Equal(t, "ALPHABET", cres.Prompt.Term)
	assert.Equal(t, 1, e.Sessions().Len())

	rec.On("RecordVote", mock.Anything, "g1", "u1", "alice", []string{"AAPL", "GOOG"}).Return(nil).Once()
	cres, err = e.SubmitChoice(context.Background(), sink, choice("1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOG"}, cres.Closed)
	assert.Equal(t, 0, e.Sessions().Len())
	rec.AssertExpectations(t)
}

func TestCount(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}

	rec.On("CountVotes", mock.Anything, "g1").Return([]model.Tally{
		{Ticker: "AAPL", Votes: 3},
		{Ticker: "GOOG", Votes: 1},
	}, nil).Once()
	require.NoError(t, e.Count(context.Background(), sink, "g1"))
	assert.Equal(t, "**Vote Counts Per Requested Ticker:**\n"+
		"1. **AAPL**: 3 votes\n"+
		"2. **GOOG**: 1 vote", sink.last(t).Text)
	assert.False(t, sink.last(t).Ephemeral)

	rec.On("CountVotes", mock.Anything, "g2").Return(nil, nil).Once()
	require.NoError(t, e.Count(context.Background(), sink, "g2"))
	assert.Equal(t, "No requests have been made yet.", sink.last(t).Text)

	rec.On("CountVotes", mock.Anything, "g3").Return(nil, errors.New("db down")).Once()
	assert.Error(t, e.Count(context.Background(), sink, "g3"))
	assert.NotEmpty(t, sink.last(t).Error)
}

func TestReset(t *testing.T) {
	e, rec := newTestEngine(t)
	sink := &captureSink{}

	rec.On("ResetVotes", mock.Anything, "g1").Return(nil).Once()
	require.NoError(t, e.Reset(context.Background(), sink, "g1"))
	assert.Equal(t, msgReset, sink.last(t).Text)
	assert.True(t, sink.last(t).Ephemeral)
	rec.AssertExpectations(t)
}

func TestPrompt_String(t *testing.T) {
	p := &Prompt{Term: "ALPHABET", Options: []Option{{1, "GOOG"}, {2, "GOOGL"}}}
	assert.Equal(t, "Multiple tickers found for ALPHABET:\n1. GOOG\n2. GOOGL", p.String())
}

// Package engine is the inbound command surface of the bot.
//
// It resolves request text, opens disambiguation sessions when a term maps
// to several tickers, hands confirmed tickers to a VoteRecorder and renders
// user-facing replies to a ReplySink.
//
// Commands:
//   - SubmitRequest: comma-separated stock names or tickers
//   - SubmitChoice: 1-based pick for the current ambiguous term
//   - Count: vote tally for a namespace
//   - Reset: clear a namespace's votes
package engine

package engine

import (
	"fmt"
	"strings"

	"github.com/rickgao/reqvest/internal/model"
	"github.com/rickgao/reqvest/internal/session"
)

const (
	msgEmptyRequest   = "No valid stock name or ticker found. Please use commas to separate requests."
	msgCheckSpelling  = "Please check spelling or try using the stock's ticker symbol."
	msgNoVotes        = "No requests have been made yet."
	msgVoteCountTitle = "**Vote Counts Per Requested Ticker:**"
	msgReset          = "All requests have been cleared.\nNew ones can now be submitted for next week's chart analyses."
	msgNoSession      = "You have no pending ticker choices. Submit a request first."
	msgRecordFailed   = "Your requests could not be saved. Please try again."
)

func promptFrom(p session.Prompt) *Prompt {
	if p.Term == "" {
		return nil
	}
	opts := make([]Option, len(p.Options))
	for i, t := range p.Options {
		opts[i] = Option{Index: i + 1, Ticker: t}
	}
	return &Prompt{Term: p.Term, Options: opts}
}

func promptLine(p *Prompt) string {
	return fmt.Sprintf("Multiple tickers found for %s:", p.Term)
}

// String renders the prompt as numbered lines.
func (p *Prompt) String() string {
	lines := []string{promptLine(p)}
	for _, o := range p.Options {
		lines = append(lines, fmt.Sprintf("%d. %s", o.Index, o.Ticker))
	}
	return strings.Join(lines, "\n")
}

func requestReceived(tickers []string) string {
	return "Requests received: " + strings.Join(tickers, ", ")
}

func suggestionsReceived(tickers []string) string {
	return "Suggestions received: " + strings.Join(tickers, ", ")
}

func noMatchLines(tokens []string) []string {
	return []string{
		"No match found for: " + strings.Join(tokens, ", "),
		msgCheckSpelling,
	}
}

func renderTally(tally []model.Tally) string {
	if len(tally) == 0 {
		return msgNoVotes
	}
	lines := []string{msgVoteCountTitle}
	for i, t := range tally {
		suffix := "s"
		if t.Votes == 1 {
			suffix = ""
		}
		lines = append(lines, fmt.Sprintf("%d. **%s**: %d vote%s", i+1, t.Ticker, t.Votes, suffix))
	}
	return strings.Join(lines, "\n")
}

func invalidChoice(p *Prompt) string {
	if p == nil {
		return "Invalid choice."
	}
	return fmt.Sprintf("Invalid choice. Enter a number from 1 to %d.", len(p.Options))
}

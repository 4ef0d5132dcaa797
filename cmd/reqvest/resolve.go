package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/reqvest/internal/resolver"
)

func newResolveCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Resolve comma-separated stock names or tickers without recording votes",
		Example: `  reqvest resolve "Apple, TSLA, Alphabet"
  reqvest resolve --json "Nvidia"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := buildIndex(a.cfg, a.logger)
			if err != nil {
				return err
			}

			tokens, err := resolver.SplitRequest(strings.Join(args, " "))
			if err != nil {
				return err
			}

			outcomes, err := newResolver(idx, a.cfg, a.logger).ResolveBatch(cmd.Context(), tokens)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(toOutcomeViews(outcomes))
			}
			return writeOutcomes(cmd.OutOrStdout(), outcomes)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print outcomes as JSON")
	return cmd
}

// outcomeView is the JSON form of a resolver outcome.
type outcomeView struct {
	Token       string   `json:"token"`
	Kind        string   `json:"kind"`
	Ticker      string   `json:"ticker,omitempty"`
	Candidates  []string `json:"candidates,omitempty"`
	MatchedName string   `json:"matched_name,omitempty"`
	Method      string   `json:"method,omitempty"`
	Score       float64  `json:"score"`
}

func toOutcomeViews(outcomes []resolver.Outcome) []outcomeView {
	views := make([]outcomeView, len(outcomes))
	for i, o := range outcomes {
		views[i] = outcomeView{
			Token:       o.Token,
			Kind:        o.Kind.String(),
			Ticker:      o.Ticker,
			Candidates:  o.Candidates,
			MatchedName: string(o.MatchedName),
			Method:      string(o.Method),
			Score:       o.Score,
		}
	}
	return views
}

func writeOutcomes(w io.Writer, outcomes []resolver.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tOUTCOME\tTICKERS\tMATCHED\tMETHOD\tSCORE")
	for _, o := range outcomes {
		tickers := o.Ticker
		if o.Kind == resolver.Ambiguous {
			tickers = strings.Join(o.Candidates, ", ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\n",
			o.Token, o.Kind, dash(tickers), dash(string(o.MatchedName)), dash(string(o.Method)), o.Score)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

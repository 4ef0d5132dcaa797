package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVotesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "votes",
		Short: "Inspect or clear recorded votes",
	}
	cmd.AddCommand(newVotesCountCmd(a), newVotesResetCmd(a))
	return cmd
}

func newVotesCountCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "count <namespace>",
		Short: "Print vote counts per ticker, most votes first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := openRecorder(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer rec.close()

			tally, err := rec.CountVotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(tally)
			}
			if len(tally) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests have been made yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tTICKER\tVOTES")
			for i, t := range tally {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, t.Ticker, t.Votes)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print counts as JSON")
	return cmd
}

func newVotesResetCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <namespace>",
		Short: "Delete every vote in a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}

			rec, err := openRecorder(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer rec.close()

			if err := rec.ResetVotes(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "All requests have been cleared for %s.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

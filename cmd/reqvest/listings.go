package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/reqvest/internal/model"
	"github.com/rickgao/reqvest/internal/polygon"
	"github.com/rickgao/reqvest/internal/reference"
)

func newListingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Download and inspect reference listings",
	}
	cmd.AddCommand(newListingsFetchCmd(a), newListingsStatsCmd(a))
	return cmd
}

func newListingsFetchCmd(a *app) *cobra.Command {
	var (
		out    string
		apiKey string
		market string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download active tickers from Polygon.io into a listings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if apiKey != "" {
				cfg.Polygon.APIKey = apiKey
			}
			if cmd.Flags().Changed("market") {
				cfg.Polygon.Market = market
			}
			if err := cfg.ValidatePolygon(); err != nil {
				return err
			}
			if out == "" {
				out = cfg.Listings.Path
			}

			client := polygon.NewClient(cfg.Polygon.BaseURL, cfg.Polygon.APIKey,
				polygon.WithLogger(a.logger.With("component", "polygon")),
				polygon.WithTimeout(cfg.Polygon.Timeout),
				polygon.WithRetries(cfg.Polygon.MaxRetries, 15*time.Second),
				polygon.WithRateLimit(cfg.Polygon.RequestsPerMinute),
			)

			a.logger.Info("fetching tickers",
				"market", cfg.Polygon.Market,
				"page_limit", cfg.Polygon.PageLimit,
				"requests_per_minute", cfg.Polygon.RequestsPerMinute,
			)

			results, err := client.FetchAllTickers(cmd.Context(), polygon.TickersParams{
				Market: cfg.Polygon.Market,
				Active: !all,
				Limit:  cfg.Polygon.PageLimit,
			})
			if err != nil {
				return err
			}

			listings := polygon.ToListings(results)
			if err := writeListingsFile(out, listings); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d listings to %s\n", len(listings), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default listings.path)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Polygon.io API key (default polygon.api_key)")
	cmd.Flags().StringVar(&market, "market", "", "only fetch this market (stocks, otc, crypto, fx, indices)")
	cmd.Flags().BoolVar(&all, "include-inactive", false, "include delisted tickers")
	return cmd
}

// writeListingsFile writes listings atomically via a temp file and rename.
func writeListingsFile(path string, listings []model.Listing) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := reference.WriteArray(tmp, listings); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename listings file: %w", err)
	}
	return nil
}

func newListingsStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Build the reference index and print its statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := buildIndex(a.cfg, a.logger)
			if err != nil {
				return err
			}
			s := idx.Stats()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "listings:  %d\n", s.Listings)
			fmt.Fprintf(w, "excluded:  %d\n", s.Excluded)
			fmt.Fprintf(w, "duplicate: %d\n", s.Duplicate)
			fmt.Fprintf(w, "tickers:   %d\n", s.Tickers)
			fmt.Fprintf(w, "names:     %d\n", s.Names)
			fmt.Fprintf(w, "ambiguous: %d\n", s.Ambiguous)
			return nil
		},
	}
}

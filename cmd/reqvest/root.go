package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/reqvest/internal/config"
)

const defaultConfigPath = "configs/reqvest.yaml"

// app holds state shared by every subcommand.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "reqvest",
		Short:         "Collect stock requests by name or ticker and tally votes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to config file")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, ".env files loaded before the config")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newResolveCmd(a),
		newListingsCmd(a),
		newVotesCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// init loads .env files and config and sets up logging. A missing config
// file falls back to defaults unless --config was given explicitly.
func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.LoadWithDefaults(a.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	case err != nil:
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

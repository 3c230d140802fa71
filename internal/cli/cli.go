package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dotstrings/internal/config"
	"dotstrings/internal/export"
	"dotstrings/internal/parser"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand.
type app struct {
	cfg      *config.Config
	logLevel string
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "dotstrings",
		Short:        "Parse and audit Apple .strings localization files",
		Long:         "Parses Apple .strings resources (UTF-8 or UTF-16LE), checks every locale against the development locale, and mirrors the result into PostgreSQL and Neo4j.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			level := cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				level = a.logLevel
			}
			return setLogLevel(level)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(a.parseCmd())
	rootCmd.AddCommand(a.scanCmd())
	rootCmd.AddCommand(a.watchCmd())
	rootCmd.AddCommand(a.lookupCmd())
	rootCmd.AddCommand(a.missingCmd())

	return rootCmd
}

func (a *app) parseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a single .strings file and print its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			result, err := parser.NewDotStringsParser().Parse(args[0])
			if err != nil {
				return err
			}

			log.Debug().
				Str("file", result.FilePath).
				Str("encoding", string(result.Encoding)).
				Int("entries", len(result.Entries)).
				Msg("Parsed file")

			return export.Write(cmd.OutOrStdout(), f, result.Entries)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, yaml or tsv")
	return cmd
}

func setLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

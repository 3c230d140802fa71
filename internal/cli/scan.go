package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"dotstrings/internal/export"
	"dotstrings/internal/filewalker"
	"dotstrings/internal/graph"
	"dotstrings/internal/metrics"
	"dotstrings/internal/parser"
	"dotstrings/internal/registry"
	"dotstrings/internal/store"
	"dotstrings/internal/textutil"
	"dotstrings/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type scanOptions struct {
	output     string
	format     string
	baseLocale string
	store      bool
	graph      bool
	failFast   bool
}

// scanResult is what a scan produced before any output or persistence.
type scanResult struct {
	root     string
	files    []store.File
	entries  []parser.Entry
	failed   int
	registry *registry.Registry
}

func (a *app) scanCmd() *cobra.Command {
	opts := scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Parse every .strings file under a directory and report translation gaps",
		Long: `Discovers *.strings files (locale taken from the enclosing <locale>.lproj
directory), parses them concurrently, and reports identifiers missing from each
locale and format directives that differ from the base locale.
Optionally exports all entries, stores them in PostgreSQL and mirrors them into Neo4j.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			if opts.baseLocale == "" {
				opts.baseLocale = a.cfg.BaseLocale
			}
			return a.runScan(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "Export all entries to this file")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Export format: json, yaml or tsv")
	cmd.Flags().StringVar(&opts.baseLocale, "base", "", "Base locale to compare against (default BASE_LOCALE)")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Store the scan in PostgreSQL (DATABASE_URL)")
	cmd.Flags().BoolVar(&opts.graph, "graph", false, "Mirror the scan into Neo4j (NEO4J_URI)")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first file that fails to parse")

	return cmd
}

// runScan handles the `scan` command.
func (a *app) runScan(ctx context.Context, out io.Writer, root string, opts scanOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	res, err := a.collect(ctx, root, opts.failFast)
	if err != nil {
		return err
	}

	report := res.registry.Report(opts.baseLocale)
	printReport(out, report, len(res.files), res.failed)

	if opts.output != "" {
		if err := export.WriteFile(opts.output, format, res.entries); err != nil {
			return fmt.Errorf("export entries: %w", err)
		}
	}

	if opts.store {
		if err := a.storeScan(ctx, res); err != nil {
			return err
		}
	}

	if opts.graph {
		if err := a.projectGraph(ctx, res); err != nil {
			return err
		}
	}

	log.Info().
		Int("files", len(res.files)).
		Int("failed", res.failed).
		Int("entries", len(res.entries)).
		Int("keys", report.Keys).
		Int("mismatches", len(report.Mismatches)).
		Msg("Scan complete")

	if res.failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse", res.failed, len(res.files)+res.failed)
	}
	return nil
}

// collect walks root and parses every file with the worker pool.
func (a *app) collect(ctx context.Context, root string, failFast bool) (*scanResult, error) {
	w := filewalker.NewWalker()
	discovered, err := w.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parsePool := worker.NewPool[filewalker.FileEntry, *parser.ParseResult](a.cfg.WorkerCount,
		func(ctx context.Context, entry filewalker.FileEntry) (*parser.ParseResult, error) {
			start := time.Now()
			result, err := w.ParseFile(entry)
			entries := 0
			if result != nil {
				entries = len(result.Entries)
			}
			metrics.ObserveParse(err, entries, time.Since(start))
			if err != nil && failFast {
				cancel()
			}
			return result, err
		},
	)

	results := parsePool.Execute(poolCtx, discovered)

	res := &scanResult{root: root, registry: registry.New()}
	var firstErr error
	for _, pr := range results {
		if pr.Skipped {
			continue
		}
		if pr.Err != nil {
			res.failed++
			if firstErr == nil {
				firstErr = pr.Err
			}
			log.Error().Err(pr.Err).Str("file", pr.Input.Path).Msg("Parse failed")
			continue
		}

		entries := pr.Value.Entries
		if replaced := res.registry.Add(pr.Input.Locale, entries); replaced > 0 {
			log.Warn().
				Str("file", pr.Input.Path).
				Str("locale", pr.Input.Locale).
				Int("replaced", replaced).
				Msg("Duplicate identifiers, later definition wins")
		}
		res.files = append(res.files, store.File{
			Path:    pr.Input.Path,
			Locale:  pr.Input.Locale,
			Entries: entries,
		})
		res.entries = append(res.entries, entries...)
	}

	if failFast && firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *app) storeScan(ctx context.Context, res *scanResult) error {
	if a.cfg.DatabaseURL == "" {
		return errors.New("--store requires DATABASE_URL")
	}

	pool, err := store.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	s := store.NewStore(pool, a.cfg.BatchSize)
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	scan := store.Scan{
		ID:     uuid.New(),
		Root:   res.root,
		Files:  res.files,
		Failed: res.failed,
	}
	if _, err := s.SaveScan(ctx, scan); err != nil {
		return fmt.Errorf("store scan: %w", err)
	}
	return nil
}

func (a *app) projectGraph(ctx context.Context, res *scanResult) error {
	if a.cfg.Neo4jURI == "" {
		return errors.New("--graph requires NEO4J_URI")
	}

	driver, err := graph.Connect(ctx, a.cfg.Neo4jURI, a.cfg.Neo4jUser, a.cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	builder := graph.NewGraphBuilder(driver)
	if err := builder.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	for _, f := range res.files {
		if err := builder.UpsertFile(ctx, f.Path, f.Locale, f.Entries); err != nil {
			log.Warn().Err(err).Str("file", f.Path).Msg("Failed to add file to graph")
		}
	}

	log.Info().Int("files", len(res.files)).Msg("Graph updated")
	return nil
}

func printReport(out io.Writer, report registry.Report, parsed, failed int) {
	fmt.Fprintf(out, "files: parsed=%d failed=%d\n", parsed, failed)
	fmt.Fprintf(out, "keys: %d locales=%v base=%s\n", report.Keys, report.Locales, report.BaseLocale)

	for _, locale := range report.Locales {
		missing := report.Missing[locale]
		if len(missing) == 0 {
			continue
		}
		fmt.Fprintf(out, "missing in %s: %d\n", locale, len(missing))
		for _, key := range missing {
			fmt.Fprintf(out, "  %s\n", key)
		}
	}

	for _, m := range report.Mismatches {
		fmt.Fprintf(out, "format mismatch in %s %s: %q -> %q\n",
			m.Locale, m.Key, textutil.Truncate(m.Base, 60), textutil.Truncate(m.Translated, 60))
	}
}

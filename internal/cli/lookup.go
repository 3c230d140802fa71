package cli

import (
	"errors"
	"fmt"
	"slices"

	"dotstrings/internal/graph"
	"dotstrings/internal/registry"
	"dotstrings/internal/store"

	"github.com/spf13/cobra"
)

func (a *app) lookupCmd() *cobra.Command {
	var (
		table     string
		fromGraph bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <identifier>",
		Short: "Show every stored translation of an identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			out := cmd.OutOrStdout()
			identifier := args[0]

			if fromGraph {
				if a.cfg.Neo4jURI == "" {
					return errors.New("--graph requires NEO4J_URI")
				}
				driver, err := graph.Connect(ctx, a.cfg.Neo4jURI, a.cfg.Neo4jUser, a.cfg.Neo4jPassword)
				if err != nil {
					return err
				}
				defer driver.Close(ctx)

				translations, err := graph.NewGraphQuerier(driver).Translations(ctx, registry.Key{Table: table, Identifier: identifier})
				if err != nil {
					return err
				}
				locales := make([]string, 0, len(translations))
				for l := range translations {
					locales = append(locales, l)
				}
				slices.Sort(locales)
				for _, l := range locales {
					fmt.Fprintf(out, "%s\t%q\n", l, translations[l])
				}
				return nil
			}

			if a.cfg.DatabaseURL == "" {
				return errors.New("lookup requires DATABASE_URL (or --graph)")
			}
			pool, err := store.Connect(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			entries, err := store.NewStore(pool, a.cfg.BatchSize).ListByIdentifier(ctx, identifier)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if table != "" && e.TableName != table {
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%q\t%s\n", e.Locale, e.TableName, e.Value, e.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "Localizable", "String table the identifier belongs to")
	cmd.Flags().BoolVar(&fromGraph, "graph", false, "Query Neo4j instead of PostgreSQL")

	return cmd
}

func (a *app) missingCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "missing <locale>",
		Short: "List keys translated in the base locale but not in <locale> (Neo4j)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			if a.cfg.Neo4jURI == "" {
				return errors.New("missing requires NEO4J_URI")
			}
			if base == "" {
				base = a.cfg.BaseLocale
			}

			driver, err := graph.Connect(ctx, a.cfg.Neo4jURI, a.cfg.Neo4jUser, a.cfg.Neo4jPassword)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			keys, err := graph.NewGraphQuerier(driver).UntranslatedKeys(ctx, base, args[0])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Base locale (default BASE_LOCALE)")
	return cmd
}

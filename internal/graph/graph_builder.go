package graph

import (
	"context"
	"fmt"

	"dotstrings/internal/parser"
	"dotstrings/internal/registry"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// GraphBuilder mirrors parsed resource files into Neo4j:
//
//	(:ResourceFile)-[:IN_LOCALE]->(:Locale)
//	(:ResourceFile)-[:DEFINES]->(:StringKey)
//	(:StringKey)-[:TRANSLATED_IN {value, context, file}]->(:Locale)
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// Connect creates a driver and verifies the server is reachable.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Str("uri", uri).Msg("Connected to Neo4j")
	return driver, nil
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (k:StringKey) REQUIRE k.id IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (l:Locale) REQUIRE l.code IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:ResourceFile) REQUIRE f.path IS UNIQUE",
	}

	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// UpsertFile replaces the DEFINES and TRANSLATED_IN edges that came from one
// resource file with the file's current entries.
func (gb *GraphBuilder) UpsertFile(ctx context.Context, path, locale string, entries []parser.Entry) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	table := registry.TableName(path)

	_, err := session.Run(ctx, `
		MATCH (f:ResourceFile {path: $path})-[d:DEFINES]->()
		DELETE d
	`, map[string]any{"path": path})
	if err != nil {
		return fmt.Errorf("clear file %s: %w", path, err)
	}

	_, err = session.Run(ctx, `
		MATCH (:StringKey)-[t:TRANSLATED_IN]->(:Locale)
		WHERE t.file = $path
		DELETE t
	`, map[string]any{"path": path})
	if err != nil {
		return fmt.Errorf("clear translations of %s: %w", path, err)
	}

	_, err = session.Run(ctx, `
		MERGE (f:ResourceFile {path: $path})
		SET f.table = $table, f.locale = $locale
		MERGE (l:Locale {code: $locale})
		MERGE (f)-[:IN_LOCALE]->(l)
		WITH f, l
		UNWIND $entries AS e
		MERGE (k:StringKey {id: e.id})
		SET k.table = $table, k.identifier = e.identifier
		MERGE (f)-[:DEFINES]->(k)
		MERGE (k)-[t:TRANSLATED_IN]->(l)
		SET t.value = e.value, t.context = e.context, t.file = $path
	`, map[string]any{
		"path":    path,
		"table":   table,
		"locale":  locale,
		"entries": entryParams(table, entries),
	})
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Str("locale", locale).Int("entries", len(entries)).Msg("Graph file updated")
	return nil
}

func entryParams(table string, entries []parser.Entry) []map[string]any {
	params := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		var context any
		if e.Context != nil {
			context = *e.Context
		}
		params = append(params, map[string]any{
			"id":         registry.Key{Table: table, Identifier: e.Identifier}.String(),
			"identifier": e.Identifier,
			"value":      e.Value,
			"context":    context,
		})
	}
	return params
}

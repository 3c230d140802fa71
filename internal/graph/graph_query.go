package graph

import (
	"context"
	"fmt"

	"dotstrings/internal/registry"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// GraphQuerier reads translation coverage back out of the graph.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a new graph querier.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// Translations returns the value of key in every locale that defines it.
func (gq *GraphQuerier) Translations(ctx context.Context, key registry.Key) (map[string]string, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (k:StringKey {id: $id})-[t:TRANSLATED_IN]->(l:Locale)
		RETURN l.code AS locale, t.value AS value
	`, map[string]any{"id": key.String()})
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}

	translations := make(map[string]string)
	for result.Next(ctx) {
		record := result.Record()
		locale, _ := record.Get("locale")
		value, _ := record.Get("value")
		translations[fmt.Sprintf("%v", locale)] = fmt.Sprintf("%v", value)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	return translations, nil
}

// UntranslatedKeys lists keys translated in base but not in locale.
func (gq *GraphQuerier) UntranslatedKeys(ctx context.Context, base, locale string) ([]string, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (k:StringKey)-[:TRANSLATED_IN]->(:Locale {code: $base})
		WHERE NOT (k)-[:TRANSLATED_IN]->(:Locale {code: $locale})
		RETURN k.id AS id
		ORDER BY id
	`, map[string]any{"base": base, "locale": locale})
	if err != nil {
		return nil, fmt.Errorf("query untranslated keys: %w", err)
	}

	var keys []string
	for result.Next(ctx) {
		id, _ := result.Record().Get("id")
		keys = append(keys, fmt.Sprintf("%v", id))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read untranslated keys: %w", err)
	}

	log.Debug().Str("base", base).Str("locale", locale).Int("keys", len(keys)).Msg("Graph query complete")
	return keys, nil
}

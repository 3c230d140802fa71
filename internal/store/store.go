package store

import (
	"context"
	"fmt"
	"time"

	"dotstrings/internal/parser"
	"dotstrings/internal/registry"
	"dotstrings/internal/textutil"
	"dotstrings/internal/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS strings_scans (
	id          UUID PRIMARY KEY,
	root        TEXT NOT NULL,
	files       INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS strings_entries (
	source      TEXT NOT NULL,
	position    INTEGER NOT NULL,
	scan_id     UUID NOT NULL REFERENCES strings_scans (id),
	locale      TEXT NOT NULL,
	table_name  TEXT NOT NULL,
	identifier  TEXT NOT NULL,
	value       TEXT NOT NULL,
	context     TEXT,
	hash        TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, position)
);

CREATE INDEX IF NOT EXISTS strings_entries_identifier_idx ON strings_entries (identifier, locale);
`

const insertScanSQL = `INSERT INTO strings_scans (id, root, files, failed) VALUES ($1, $2, $3, $4)`

// upsertEntrySQL rewrites a row only when its content hash changed, so
// RowsAffected counts new and edited strings.
const upsertEntrySQL = `
INSERT INTO strings_entries (source, position, scan_id, locale, table_name, identifier, value, context, hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (source, position) DO UPDATE
SET scan_id = EXCLUDED.scan_id,
    locale = EXCLUDED.locale,
    table_name = EXCLUDED.table_name,
    identifier = EXCLUDED.identifier,
    value = EXCLUDED.value,
    context = EXCLUDED.context,
    hash = EXCLUDED.hash,
    updated_at = now()
WHERE strings_entries.hash <> EXCLUDED.hash`

const trimEntriesSQL = `DELETE FROM strings_entries WHERE source = $1 AND position >= $2`

const selectByIdentifierSQL = `
SELECT source, position, locale, table_name, identifier, value, context, updated_at
FROM strings_entries
WHERE identifier = $1
ORDER BY locale, source, position`

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// File is one successfully parsed resource within a scan.
type File struct {
	Path    string
	Locale  string
	Entries []parser.Entry
}

// Scan is the outcome of one project scan.
type Scan struct {
	ID     uuid.UUID
	Root   string
	Files  []File
	Failed int
}

// StoredEntry is a row of strings_entries.
type StoredEntry struct {
	Source     string    `db:"source"`
	Position   int       `db:"position"`
	Locale     string    `db:"locale"`
	TableName  string    `db:"table_name"`
	Identifier string    `db:"identifier"`
	Value      string    `db:"value"`
	Context    *string   `db:"context"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Store persists scans and their entries in PostgreSQL.
type Store struct {
	db        DB
	batchSize int
}

// Connect opens and pings a pgx pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// NewStore creates a store writing at most batchSize rows per round trip.
func NewStore(db DB, batchSize int) *Store {
	if batchSize < 1 {
		batchSize = 500
	}
	return &Store{db: db, batchSize: batchSize}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type entryRow struct {
	file     *File
	position int
	entry    parser.Entry
}

// SaveScan records the scan and upserts every entry. Rows left over from a
// previous, longer version of a file are deleted. It returns the number of
// inserted or changed entries.
func (s *Store) SaveScan(ctx context.Context, scan Scan) (int, error) {
	if _, err := s.db.Exec(ctx, insertScanSQL, scan.ID, scan.Root, len(scan.Files), scan.Failed); err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}

	var rows []entryRow
	for i := range scan.Files {
		f := &scan.Files[i]
		for pos, e := range f.Entries {
			rows = append(rows, entryRow{file: f, position: pos, entry: e})
		}
	}

	changed := 0
	for _, chunk := range worker.Batch(rows, s.batchSize) {
		batch := &pgx.Batch{}
		for _, r := range chunk {
			batch.Queue(upsertEntrySQL,
				r.file.Path,
				r.position,
				scan.ID,
				r.file.Locale,
				registry.TableName(r.file.Path),
				r.entry.Identifier,
				r.entry.Value,
				r.entry.Context,
				entryHash(r.entry),
			)
		}
		n, err := s.sendBatch(ctx, batch)
		if err != nil {
			return changed, err
		}
		changed += n
	}

	trim := &pgx.Batch{}
	for _, f := range scan.Files {
		trim.Queue(trimEntriesSQL, f.Path, len(f.Entries))
	}
	if trim.Len() > 0 {
		if _, err := s.sendBatch(ctx, trim); err != nil {
			return changed, err
		}
	}

	log.Info().
		Str("scan", scan.ID.String()).
		Int("files", len(scan.Files)).
		Int("entries", len(rows)).
		Int("changed", changed).
		Msg("Stored scan")
	return changed, nil
}

// ListByIdentifier returns every stored translation of identifier.
func (s *Store) ListByIdentifier(ctx context.Context, identifier string) ([]StoredEntry, error) {
	rows, err := s.db.Query(ctx, selectByIdentifierSQL, identifier)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[StoredEntry])
	if err != nil {
		return nil, fmt.Errorf("collect entries: %w", err)
	}
	return entries, nil
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) (int, error) {
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	affected := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("exec batch statement %d: %w", i, err)
		}
		affected += int(tag.RowsAffected())
	}
	return affected, nil
}

// entryHash fingerprints the stored content of an entry.
func entryHash(e parser.Entry) string {
	context := "\x00none"
	if e.Context != nil {
		context = *e.Context
	}
	return textutil.Hash(e.Identifier, e.Value, context)
}

// Package searchcache persists store search results in SQLite so repeated
// runs against the same reading list do not re-hit the site.
package searchcache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bookmatch/internal/match"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; a mismatched database must be cleared.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match
// the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store is a TTL cache of search results keyed by normalized query. A nil
// Store is valid and behaves as a disabled cache: lookups always miss and
// writes are dropped.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// Open initializes or connects to the cache database. A zero ttl means
// entries never expire.
func Open(path string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cache path required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, ttl: ttl, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Lookup returns the cached candidates for a query. The second return is
// false on a miss, including entries past their TTL.
func (s *Store) Lookup(ctx context.Context, query string) ([]match.Candidate, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}

	var candidatesJSON, fetchedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT candidates_json, fetched_at FROM search_results WHERE query_key = ?",
		Key(query),
	).Scan(&candidatesJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup cache entry: %w", err)
	}

	if s.ttl > 0 {
		stamp, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil || s.now().UTC().Sub(stamp) > s.ttl {
			return nil, false, nil
		}
	}

	var candidates []match.Candidate
	if err := json.Unmarshal([]byte(candidatesJSON), &candidates); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return candidates, true, nil
}

// Store inserts or replaces the cached candidates for a query.
func (s *Store) Store(ctx context.Context, query string, candidates []match.Candidate) error {
	if s == nil || s.db == nil {
		return nil
	}
	if candidates == nil {
		candidates = []match.Candidate{}
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_results (query_key, candidates_json, fetched_at)
         VALUES (?, ?, ?)
         ON CONFLICT(query_key) DO UPDATE SET
             candidates_json = excluded.candidates_json,
             fetched_at = excluded.fetched_at`,
		Key(query),
		string(payload),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Clear removes every cached entry and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM search_results")
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared rows: %w", err)
	}
	return removed, nil
}

// Count returns the number of cached entries, expired ones included.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM search_results").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

// Key normalizes a query into its cache key.
func Key(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'bookmatch cache clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache provides a SQLite-backed memoization store for registry
// DOI lookups. Repeated validation runs over the same bibliography reuse
// stored registry records instead of hitting the network again.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// Store is a DOI-keyed lookup cache. It implements the registry client's
// Cache interface.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lookups (
		doi TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`)
	return err
}

// Get returns the cached record for doi, or ok=false on a miss.
func (s *Store) Get(ctx context.Context, doi string) (*types.ExternalRecord, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM lookups WHERE doi = ?`, doi,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var rec types.ExternalRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("parsing cache entry: %w", err)
	}
	return &rec, true, nil
}

// Put stores the record for doi, replacing any previous entry.
func (s *Store) Put(ctx context.Context, doi string, rec *types.ExternalRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookups (doi, record, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(doi) DO UPDATE SET record=excluded.record, fetched_at=excluded.fetched_at`,
		doi, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

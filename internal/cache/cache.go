// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package cache persists related-article lookups in SQLite so repeated runs
// over the same seed list skip already-resolved elink queries.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "elink-cache.db"

// Store is a SQLite-backed map from seed PMID to its related PMIDs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at dir/elink-cache.db, creating
// the schema if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS related (
		seed INTEGER PRIMARY KEY,
		pmids TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached related PMIDs for seed, or ok=false on a miss.
func (s *Store) Get(seed int64) ([]int64, bool, error) {
	var joined string
	err := s.db.QueryRow(`SELECT pmids FROM related WHERE seed = ?`, seed).Scan(&joined)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry for %d: %w", seed, err)
	}

	if joined == "" {
		return []int64{}, true, nil
	}
	parts := strings.Split(joined, ",")
	pmids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt cache entry for %d: %w", seed, err)
		}
		pmids = append(pmids, id)
	}
	return pmids, true, nil
}

// Put stores the related PMIDs for seed, replacing any previous entry.
func (s *Store) Put(seed int64, pmids []int64) error {
	parts := make([]string, len(pmids))
	for i, p := range pmids {
		parts[i] = strconv.FormatInt(p, 10)
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO related (seed, pmids, fetched_at) VALUES (?, ?, ?)`,
		seed, strings.Join(parts, ","), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry for %d: %w", seed, err)
	}
	return nil
}

// Len returns the number of cached seeds.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM related`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Clear removes all cached entries.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM related`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

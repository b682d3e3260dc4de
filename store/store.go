// Package store is the SQLite persistence layer: posted-URL history,
// published posts, the content queue, system logs and state.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat keeps timestamps lexicographically comparable in SQL.
// The fractional digits are fixed-width: RFC3339Nano trims trailing
// zeros, which makes "…00.5Z" sort before the "…00Z" whole second.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// modernc sqlite is safest with a single writer connection
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("✅ Store ready: %s", path)
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS posted_urls (
		url_hash   TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		title      TEXT,
		posted_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS published_posts (
		id                  TEXT PRIMARY KEY,
		title               TEXT NOT NULL,
		source_url          TEXT NOT NULL,
		source_feed         TEXT,
		language            TEXT,
		blogger_url         TEXT,
		blogger_post_id     TEXT,
		devto_url           TEXT,
		devto_id            INTEGER,
		telegram_message_id INTEGER,
		facebook_post_id    TEXT,
		platforms           TEXT,
		status              TEXT NOT NULL,
		error_message       TEXT,
		processing_seconds  REAL,
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_created ON published_posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON published_posts(status);

	CREATE TABLE IF NOT EXISTS system_logs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp  TEXT NOT NULL,
		level      TEXT NOT NULL,
		component  TEXT NOT NULL,
		message    TEXT NOT NULL,
		details    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON system_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_logs_level ON system_logs(level);

	CREATE TABLE IF NOT EXISTS content_queue (
		id            TEXT PRIMARY KEY,
		article_url   TEXT NOT NULL,
		title         TEXT,
		source_feed   TEXT,
		priority      INTEGER NOT NULL DEFAULT 5,
		status        TEXT NOT NULL DEFAULT 'pending',
		attempts      INTEGER NOT NULL DEFAULT 0,
		scheduled_for TEXT,
		created_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_queue_status ON content_queue(status, priority);

	CREATE TABLE IF NOT EXISTS system_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS article_vectors (
		url_hash   TEXT PRIMARY KEY,
		title      TEXT,
		vector     TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_vectors_created ON article_vectors(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// IsURLPosted reports whether a normalized URL hash was published before
func (s *Store) IsURLPosted(urlHash string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM posted_urls WHERE url_hash = ?`, urlHash).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check posted url: %w", err)
	}
	return true, nil
}

// RecordPostedURL marks a normalized URL hash as published
func (s *Store) RecordPostedURL(urlHash, url, title string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO posted_urls (url_hash, url, title, posted_at) VALUES (?, ?, ?, ?)`,
		urlHash, url, title, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to record posted url: %w", err)
	}
	return nil
}

// SetState writes a key into the system_state table
func (s *Store) SetState(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO system_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to set state %s: %w", key, err)
	}
	return nil
}

// GetState reads a key from system_state, "" when absent
func (s *Store) GetState(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM system_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get state %s: %w", key, err)
	}
	return value, nil
}

// Vacuum reclaims space; called from the maintenance endpoint
func (s *Store) Vacuum() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("failed to vacuum: %w", err)
	}
	return nil
}

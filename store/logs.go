package store

import (
	"database/sql"
	"fmt"
	"time"

	"contentorbit/types"
)

// LogFilter narrows a Logs query; zero values mean "any"
type LogFilter struct {
	Level     string
	Component string
	Since     time.Time
	Limit     int
}

// AppendLog persists one structured event for the dashboard
func (s *Store) AppendLog(level, component, message, details string) error {
	_, err := s.db.Exec(
		`INSERT INTO system_logs (timestamp, level, component, message, details) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(timeFormat), level, component, message, details)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// Logs returns matching events, newest first
func (s *Store) Logs(f LogFilter) ([]*types.LogEntry, error) {
	query := `SELECT id, timestamp, level, component, message, details FROM system_logs WHERE 1=1`
	var args []any

	if f.Level != "" {
		query += ` AND level = ?`
		args = append(args, f.Level)
	}
	if f.Component != "" {
		query += ` AND component = ?`
		args = append(args, f.Component)
	}
	if !f.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, f.Since.UTC().Format(timeFormat))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var entries []*types.LogEntry
	for rows.Next() {
		var e types.LogEntry
		var ts string
		var details sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Level, &e.Component, &e.Message, &details); err != nil {
			return nil, err
		}
		e.Details = details.String
		if parsed, err := time.Parse(timeFormat, ts); err == nil {
			e.Timestamp = parsed
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountErrorsSince counts error-level events at or after t
func (s *Store) CountErrorsSince(t time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM system_logs WHERE level = 'error' AND timestamp >= ?`,
		t.UTC().Format(timeFormat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count errors: %w", err)
	}
	return n, nil
}

// PruneLogs deletes events older than the cutoff, returning the count removed
func (s *Store) PruneLogs(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM system_logs WHERE timestamp < ?`,
		before.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("failed to prune logs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

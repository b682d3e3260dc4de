package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// StoredVector is an article embedding kept for near-duplicate checks
type StoredVector struct {
	URLHash   string
	Title     string
	Vector    []float64
	CreatedAt time.Time
}

// SaveVector stores an article embedding
func (s *Store) SaveVector(urlHash, title string, vector []float64) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO article_vectors (url_hash, title, vector, created_at) VALUES (?, ?, ?, ?)`,
		urlHash, title, string(data), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to save vector: %w", err)
	}
	return nil
}

// RecentVectors returns embeddings saved at or after t
func (s *Store) RecentVectors(t time.Time) ([]StoredVector, error) {
	rows, err := s.db.Query(
		`SELECT url_hash, title, vector, created_at FROM article_vectors WHERE created_at >= ?`,
		t.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var out []StoredVector
	for rows.Next() {
		var v StoredVector
		var data, createdAt string
		if err := rows.Scan(&v.URLHash, &v.Title, &data, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &v.Vector); err != nil {
			return nil, fmt.Errorf("failed to parse vector %s: %w", v.URLHash, err)
		}
		if ts, err := time.Parse(timeFormat, createdAt); err == nil {
			v.CreatedAt = ts
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PruneVectors drops embeddings older than the cutoff
func (s *Store) PruneVectors(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM article_vectors WHERE created_at < ?`,
		before.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("failed to prune vectors: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contentorbit/types"
)

// MaxQueueAttempts caps retries before an item is marked failed
const MaxQueueAttempts = 3

// Enqueue adds an article to the content queue. A missing ID is assigned.
func (s *Store) Enqueue(item *types.QueueItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = types.StatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	var scheduled any
	if item.ScheduledFor != nil {
		scheduled = item.ScheduledFor.UTC().Format(timeFormat)
	}

	_, err := s.db.Exec(`
		INSERT INTO content_queue (id, article_url, title, source_feed, priority, status, attempts, scheduled_for, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.ArticleURL, item.Title, item.SourceFeed, item.Priority,
		string(item.Status), item.Attempts, scheduled, item.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}
	return nil
}

// NextQueued pops the highest-priority pending item that is due.
// Returns nil when the queue is empty.
func (s *Store) NextQueued() (*types.QueueItem, error) {
	now := time.Now().UTC().Format(timeFormat)
	row := s.db.QueryRow(`
		SELECT id, article_url, title, source_feed, priority, status, attempts, scheduled_for, created_at
		FROM content_queue
		WHERE status = ? AND attempts < ? AND (scheduled_for IS NULL OR scheduled_for <= ?)
		ORDER BY priority DESC, created_at ASC LIMIT 1`,
		string(types.StatusPending), MaxQueueAttempts, now)

	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return item, err
}

// MarkQueueItem updates an item's status. Returning an item to pending
// means a run consumed it and failed, so only that transition spends
// one of the MaxQueueAttempts.
func (s *Store) MarkQueueItem(id string, status types.PostStatus) error {
	bump := 0
	if status == types.StatusPending {
		bump = 1
	}
	_, err := s.db.Exec(
		`UPDATE content_queue SET status = ?, attempts = attempts + ? WHERE id = ?`,
		string(status), bump, id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item %s: %w", id, err)
	}
	return nil
}

// QueueSize counts pending items
func (s *Store) QueueSize() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM content_queue WHERE status = ?`,
		string(types.StatusPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

// QueueItems lists the queue for the dashboard, pending first
func (s *Store) QueueItems(limit int) ([]*types.QueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, article_url, title, source_feed, priority, status, attempts, scheduled_for, created_at
		FROM content_queue ORDER BY status = 'pending' DESC, priority DESC, created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var items []*types.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanQueueItem(r rowScanner) (*types.QueueItem, error) {
	var item types.QueueItem
	var title, sourceFeed, scheduled sql.NullString
	var status, createdAt string

	err := r.Scan(&item.ID, &item.ArticleURL, &title, &sourceFeed, &item.Priority,
		&status, &item.Attempts, &scheduled, &createdAt)
	if err != nil {
		return nil, err
	}

	item.Title = title.String
	item.SourceFeed = sourceFeed.String
	item.Status = types.PostStatus(status)
	if scheduled.Valid {
		if ts, err := time.Parse(timeFormat, scheduled.String); err == nil {
			item.ScheduledFor = &ts
		}
	}
	if ts, err := time.Parse(timeFormat, createdAt); err == nil {
		item.CreatedAt = ts
	}
	return &item, nil
}

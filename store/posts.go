package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"contentorbit/types"
)

// SavePost persists the record of one pipeline run
func (s *Store) SavePost(p *types.PublishedPost) error {
	platforms, err := json.Marshal(p.Platforms)
	if err != nil {
		return fmt.Errorf("failed to marshal platforms: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO published_posts
		(id, title, source_url, source_feed, language, blogger_url, blogger_post_id,
		 devto_url, devto_id, telegram_message_id, facebook_post_id, platforms,
		 status, error_message, processing_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.SourceURL, p.SourceFeed, p.Language, p.BloggerURL, p.BloggerPostID,
		p.DevtoURL, p.DevtoID, p.TelegramMessageID, p.FacebookPostID, string(platforms),
		string(p.Status), p.ErrorMessage, p.ProcessingSeconds, p.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

// RecentPosts returns the newest posts, most recent first
func (s *Store) RecentPosts(limit int) ([]*types.PublishedPost, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, title, source_url, source_feed, language, blogger_url, blogger_post_id,
		       devto_url, devto_id, telegram_message_id, facebook_post_id, platforms,
		       status, error_message, processing_seconds, created_at
		FROM published_posts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*types.PublishedPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost looks up one post by ID
func (s *Store) GetPost(id string) (*types.PublishedPost, error) {
	row := s.db.QueryRow(`
		SELECT id, title, source_url, source_feed, language, blogger_url, blogger_post_id,
		       devto_url, devto_id, telegram_message_id, facebook_post_id, platforms,
		       status, error_message, processing_seconds, created_at
		FROM published_posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// CountPostsSince counts successful posts created at or after t.
// Used by the scheduler for the daily cap.
func (s *Store) CountPostsSince(t time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM published_posts
		WHERE created_at >= ? AND status IN (?, ?)`,
		t.UTC().Format(timeFormat), string(types.StatusPublished), string(types.StatusPartial)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (*types.PublishedPost, error) {
	var p types.PublishedPost
	var platforms, createdAt string
	var sourceFeed, language, bloggerURL, bloggerPostID, devtoURL, facebookPostID, errMsg sql.NullString
	var devtoID, telegramMessageID sql.NullInt64
	var processing sql.NullFloat64
	var status string

	err := r.Scan(&p.ID, &p.Title, &p.SourceURL, &sourceFeed, &language, &bloggerURL, &bloggerPostID,
		&devtoURL, &devtoID, &telegramMessageID, &facebookPostID, &platforms,
		&status, &errMsg, &processing, &createdAt)
	if err != nil {
		return nil, err
	}

	p.SourceFeed = sourceFeed.String
	p.Language = language.String
	p.BloggerURL = bloggerURL.String
	p.BloggerPostID = bloggerPostID.String
	p.DevtoURL = devtoURL.String
	p.DevtoID = devtoID.Int64
	p.TelegramMessageID = telegramMessageID.Int64
	p.FacebookPostID = facebookPostID.String
	p.Status = types.PostStatus(status)
	p.ErrorMessage = errMsg.String
	p.ProcessingSeconds = processing.Float64

	if platforms != "" {
		if err := json.Unmarshal([]byte(platforms), &p.Platforms); err != nil {
			return nil, fmt.Errorf("failed to parse platforms for %s: %w", p.ID, err)
		}
	}
	if ts, err := time.Parse(timeFormat, createdAt); err == nil {
		p.CreatedAt = ts
	}
	return &p, nil
}

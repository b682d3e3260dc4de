package store

import (
	"database/sql"
	"time"

	"contentorbit/types"
)

// Stats assembles the dashboard snapshot. Day/week/month boundaries
// are computed in loc so "today" matches the operator's schedule.
func (s *Store) Stats(now time.Time, loc *time.Location) (*types.Stats, error) {
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)

	stats := &types.Stats{}
	var err error

	if stats.PostsToday, err = s.CountPostsSince(dayStart); err != nil {
		return nil, err
	}
	if stats.PostsThisWeek, err = s.CountPostsSince(weekStart); err != nil {
		return nil, err
	}
	if stats.PostsThisMonth, err = s.CountPostsSince(monthStart); err != nil {
		return nil, err
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM published_posts`).Scan(&stats.TotalPosts); err != nil {
		return nil, err
	}
	if stats.ErrorsToday, err = s.CountErrorsSince(dayStart); err != nil {
		return nil, err
	}
	if stats.ErrorsThisWeek, err = s.CountErrorsSince(weekStart); err != nil {
		return nil, err
	}
	if stats.QueueSize, err = s.QueueSize(); err != nil {
		return nil, err
	}

	stats.LastPostAt = s.latestTimestamp(`SELECT MAX(created_at) FROM published_posts`)
	stats.LastErrorAt = s.latestTimestamp(`SELECT MAX(timestamp) FROM system_logs WHERE level = 'error'`)

	if running, _ := s.GetState("bot_running"); running == "true" {
		stats.Running = true
	}
	if started, _ := s.GetState("bot_started_at"); started != "" {
		// written by the scheduler in plain RFC3339
		if ts, err := time.Parse(time.RFC3339, started); err == nil {
			stats.StartedAt = &ts
		}
	}
	return stats, nil
}

func (s *Store) latestTimestamp(query string) *time.Time {
	var raw sql.NullString
	if err := s.db.QueryRow(query).Scan(&raw); err != nil || !raw.Valid {
		return nil
	}
	ts, err := time.Parse(timeFormat, raw.String)
	if err != nil {
		return nil
	}
	return &ts
}

package config

import (
	"fmt"
	"sync"
	"time"

	"contentorbit/types"
)

// Manager holds the live configuration and feed list behind a lock so
// the dashboard can edit them while the scheduler reads them.
type Manager struct {
	mu        sync.RWMutex
	cfg       *AppConfig
	feeds     []types.Feed
	path      string
	feedsPath string
}

// NewManager loads (or creates) the config and feed files
func NewManager(configPath, feedsPath string) (*Manager, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	feeds, err := LoadFeeds(feedsPath)
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, feeds: feeds, path: configPath, feedsPath: feedsPath}, nil
}

// Get returns a snapshot of the current config
func (m *Manager) Get() *AppConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := *m.cfg
	return &snapshot
}

// Update applies fn to a copy of the config, persists it and swaps it
// in. The whole edit is atomic with respect to readers.
func (m *Manager) Update(fn func(*AppConfig)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := *m.cfg
	fn(&next)
	next.normalize()
	next.Version = m.cfg.Version + 1
	next.UpdatedAt = time.Now().UTC()

	if err := next.Save(m.path); err != nil {
		return err
	}
	m.cfg = &next
	return nil
}

// Feeds returns a copy of the feed list
func (m *Manager) Feeds() []types.Feed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Feed, len(m.feeds))
	copy(out, m.feeds)
	return out
}

// ActiveFeeds returns only feeds that are switched on
func (m *Manager) ActiveFeeds() []types.Feed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Feed
	for _, f := range m.feeds {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}

// AddFeed appends a new feed. Names must be unique.
func (m *Manager) AddFeed(feed types.Feed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.feeds {
		if f.Name == feed.Name {
			return fmt.Errorf("feed %q already exists", feed.Name)
		}
	}
	feed.ClampPriority()
	next := append(append([]types.Feed(nil), m.feeds...), feed)
	if err := SaveFeeds(m.feedsPath, next); err != nil {
		return err
	}
	m.feeds = next
	return nil
}

// UpdateFeed replaces the feed with the given name
func (m *Manager) UpdateFeed(name string, feed types.Feed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]types.Feed, len(m.feeds))
	copy(next, m.feeds)
	for i, f := range next {
		if f.Name == name {
			feed.ClampPriority()
			next[i] = feed
			if err := SaveFeeds(m.feedsPath, next); err != nil {
				return err
			}
			m.feeds = next
			return nil
		}
	}
	return fmt.Errorf("feed %q not found", name)
}

// RemoveFeed deletes the feed with the given name
func (m *Manager) RemoveFeed(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.feeds[:0:0]
	found := false
	for _, f := range m.feeds {
		if f.Name == name {
			found = true
			continue
		}
		next = append(next, f)
	}
	if !found {
		return fmt.Errorf("feed %q not found", name)
	}
	if err := SaveFeeds(m.feedsPath, next); err != nil {
		return err
	}
	m.feeds = next
	return nil
}

package config

import (
	"path/filepath"
	"testing"

	"contentorbit/types"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(filepath.Join(dir, "config.json"), filepath.Join(dir, "feeds.json"))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestManagerUpdatePersists(t *testing.T) {
	m := testManager(t)
	before := m.Get().Version

	err := m.Update(func(c *AppConfig) {
		c.Brand.Name = "Orbit News"
		c.Schedule.PostingIntervalMinutes = 90
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Brand.Name != "Orbit News" {
		t.Errorf("name = %q", cfg.Brand.Name)
	}
	if cfg.Version != before+1 {
		t.Errorf("version = %d, want %d", cfg.Version, before+1)
	}

	// reload from disk
	reloaded, err := Load(m.path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Brand.Name != "Orbit News" {
		t.Error("update not persisted")
	}
}

func TestManagerGetReturnsSnapshot(t *testing.T) {
	m := testManager(t)
	snap := m.Get()
	snap.Brand.Name = "mutated"
	if m.Get().Brand.Name == "mutated" {
		t.Error("Get leaked internal state")
	}
}

func TestManagerFeedLifecycle(t *testing.T) {
	m := testManager(t)
	initial := len(m.Feeds())

	feed := types.Feed{Name: "Ars", URL: "https://arstechnica.com/feed/", Category: types.CategoryTech, Active: true, Priority: 20}
	if err := m.AddFeed(feed); err != nil {
		t.Fatalf("AddFeed failed: %v", err)
	}
	if err := m.AddFeed(feed); err == nil {
		t.Error("duplicate name should fail")
	}
	if len(m.Feeds()) != initial+1 {
		t.Errorf("feed count = %d", len(m.Feeds()))
	}

	// priority clamped to the 1-10 range
	for _, f := range m.Feeds() {
		if f.Name == "Ars" && f.Priority != 10 {
			t.Errorf("priority = %d, want clamped to 10", f.Priority)
		}
	}

	feed.Active = false
	if err := m.UpdateFeed("Ars", feed); err != nil {
		t.Fatalf("UpdateFeed failed: %v", err)
	}
	for _, f := range m.ActiveFeeds() {
		if f.Name == "Ars" {
			t.Error("inactive feed returned by ActiveFeeds")
		}
	}

	if err := m.RemoveFeed("Ars"); err != nil {
		t.Fatalf("RemoveFeed failed: %v", err)
	}
	if err := m.RemoveFeed("Ars"); err == nil {
		t.Error("removing a missing feed should fail")
	}
	if err := m.UpdateFeed("Ars", feed); err == nil {
		t.Error("updating a missing feed should fail")
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"contentorbit/types"
)

// DefaultFeeds seeds feeds.json on first run
func DefaultFeeds() []types.Feed {
	return []types.Feed{
		{Name: "Channel NewsAsia", URL: "https://www.channelnewsasia.com/api/v1/rss-outbound-feed?_format=xml", Category: types.CategoryNews, Language: "en", Active: true, Priority: 5},
		{Name: "Hacker News", URL: "https://hnrss.org/newest", Category: types.CategoryTech, Language: "en", Active: true, Priority: 7},
		{Name: "MIT Technology Review", URL: "https://www.technologyreview.com/feed/", Category: types.CategoryTech, Language: "en", Active: true, Priority: 8},
	}
}

// LoadFeeds reads the feed list, creating it with defaults when missing
func LoadFeeds(path string) ([]types.Feed, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		feeds := DefaultFeeds()
		if err := SaveFeeds(path, feeds); err != nil {
			return nil, err
		}
		return feeds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds %s: %w", path, err)
	}

	var feeds []types.Feed
	if err := json.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("failed to parse feeds %s: %w", path, err)
	}
	for i := range feeds {
		feeds[i].ClampPriority()
	}
	return feeds, nil
}

// SaveFeeds writes the feed list as indented JSON
func SaveFeeds(path string, feeds []types.Feed) error {
	data, err := json.MarshalIndent(feeds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal feeds: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write feeds %s: %w", path, err)
	}
	return nil
}

package types

import "time"

// FeedCategory classifies a feed's subject matter. Categories gate
// platform routing: only tech feeds go to Dev.to when the tech-only
// flag is set.
type FeedCategory string

const (
	CategoryTech     FeedCategory = "tech"
	CategoryAI       FeedCategory = "ai"
	CategoryScience  FeedCategory = "science"
	CategoryBusiness FeedCategory = "business"
	CategoryNews     FeedCategory = "news"
	CategoryGeneral  FeedCategory = "general"
)

// IsTech reports whether the category is considered technical content
func (c FeedCategory) IsTech() bool {
	return c == CategoryTech || c == CategoryAI || c == CategoryScience
}

// Feed is a configured RSS/Atom source
type Feed struct {
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Category    FeedCategory `json:"category"`
	Language    string       `json:"language"`
	Active      bool         `json:"active"`
	Priority    int          `json:"priority"` // 1-10, higher is picked first
	LastFetched *time.Time   `json:"last_fetched,omitempty"`
	FailCount   int          `json:"fail_count,omitempty"`
}

// ClampPriority normalizes priority into the 1-10 range
func (f *Feed) ClampPriority() {
	if f.Priority < 1 {
		f.Priority = 1
	}
	if f.Priority > 10 {
		f.Priority = 10
	}
}

package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

// Article represents a single fetched article with metadata and extracted content
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"published_at"`
	FetchedAt       time.Time `json:"fetched_at"`
	Summary         string    `json:"summary"`
	Author          string    `json:"author,omitempty"`
	Categories      []string  `json:"categories,omitempty"`
	FullContent     string    `json:"full_content"`
	FullContentText string    `json:"full_content_text"`
	Excerpt         string    `json:"excerpt,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	SourceFeed      string    `json:"source_feed,omitempty"`
	Language        string    `json:"language,omitempty"`
	ExtractionError string    `json:"extraction_error,omitempty"`
}

// FeedResult is the top-level wrapper for a single feed fetch
type FeedResult struct {
	FeedURL      string     `json:"feed_url"`
	FetchedAt    time.Time  `json:"fetched_at"`
	ArticleCount int        `json:"article_count"`
	Articles     []*Article `json:"articles"`
}

// GenerateID creates a unique ID from URL
func GenerateID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}

// WordCount counts whitespace-separated words in the extracted text,
// falling back to the summary when extraction failed
func (a *Article) WordCount() int {
	text := a.FullContentText
	if strings.TrimSpace(text) == "" {
		text = a.Summary
	}
	return len(strings.Fields(text))
}

// DetectLanguage guesses the article language by script: if Arabic
// characters outnumber Latin ones in the title and excerpt, the article
// is treated as Arabic, otherwise English.
func (a *Article) DetectLanguage() string {
	sample := a.Title + " " + a.Excerpt
	arabic, latin := 0, 0
	for _, r := range sample {
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r) && r < unicode.MaxASCII:
			latin++
		}
	}
	if arabic > latin {
		return "ar"
	}
	return "en"
}

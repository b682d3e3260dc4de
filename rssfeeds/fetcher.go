package rssfeeds

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mmcdole/gofeed"

	"contentorbit/types"
)

// FetchFeed retrieves and parses an RSS/Atom feed, returning article metadata
func FetchFeed(ctx context.Context, feed types.Feed, maxCount int) ([]*types.Article, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feed.Name, err)
	}

	count := min(len(parsed.Items), maxCount)
	articles := make([]*types.Article, 0, count)

	for i := 0; i < count; i++ {
		item := parsed.Items[i]

		// Use GUID if available, otherwise generate from URL
		id := item.GUID
		if id == "" && item.Link != "" {
			id = types.GenerateID(item.Link)
		}

		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		categories := make([]string, len(item.Categories))
		copy(categories, item.Categories)

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		article := &types.Article{
			ID:          id,
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: publishedAt,
			FetchedAt:   time.Now(),
			Summary:     summary,
			Author:      author,
			Categories:  categories,
			SourceFeed:  feed.Name,
			Language:    feed.Language,
		}

		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}
		if article.ImageURL == "" {
			article.ImageURL = enclosureImage(item)
		}
		if article.Language == "" {
			article.Language = article.DetectLanguage()
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// enclosureImage picks the first image-typed enclosure or media URL
func enclosureImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && isImageType(enc.Type) {
			return enc.URL
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}
	return ""
}

func isImageType(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return mime == "" // many feeds omit the type on image enclosures
}

// FetchMultiple fetches several feeds, tolerating per-feed failures.
// Used for queue pre-filling.
func FetchMultiple(ctx context.Context, feeds []types.Feed, perFeed int) []*types.Article {
	var all []*types.Article
	for _, feed := range feeds {
		if !feed.Active {
			continue
		}
		articles, err := FetchFeed(ctx, feed, perFeed)
		if err != nil {
			log.Printf("⚠️ Skipping feed %s: %v", feed.Name, err)
			continue
		}
		all = append(all, articles...)
	}
	return all
}

// ValidateFeed checks that a URL points at a parseable feed
func ValidateFeed(ctx context.Context, url string) (string, error) {
	parser := gofeed.NewParser()
	parsed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return "", fmt.Errorf("not a valid feed: %w", err)
	}
	return parsed.Title, nil
}

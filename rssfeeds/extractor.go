package rssfeeds

import (
	"fmt"
	"log"
	"sync"

	readability "github.com/go-shiori/go-readability"

	"contentorbit/config"
	"contentorbit/types"
)

// ExtractAllContent fetches and extracts full content for all articles
// using a worker pool. Used when pre-filling the content queue.
func ExtractAllContent(articles []*types.Article) {
	var wg sync.WaitGroup
	articleChan := make(chan *types.Article, len(articles))

	for i := 0; i < config.ExtractorWorkers; i++ {
		go func(workerID int) {
			for article := range articleChan {
				if err := ExtractContent(article); err != nil {
					article.ExtractionError = err.Error()
					log.Printf("[Worker %d] Failed to extract %s: %v", workerID, article.URL, err)
				}
				wg.Done()
			}
		}(i)
	}

	for _, article := range articles {
		wg.Add(1)
		articleChan <- article
	}

	wg.Wait()
	close(articleChan)
}

// ExtractContent fetches and extracts full content for a single article
func ExtractContent(article *types.Article) error {
	if article.URL == "" {
		return fmt.Errorf("article URL is empty")
	}

	extracted, err := readability.FromURL(article.URL, config.ExtractorTimeout)
	if err != nil {
		return fmt.Errorf("readability extraction failed: %w", err)
	}

	article.FullContent = extracted.Content
	article.FullContentText = extracted.TextContent
	article.Excerpt = extracted.Excerpt

	if article.ImageURL == "" {
		article.ImageURL = extracted.Image
	}
	if article.Author == "" {
		article.Author = extracted.Byline
	}

	log.Printf("✓ Extracted: %s", article.Title)
	return nil
}

package rssfeeds

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand"
	"sort"

	"contentorbit/config"
	"contentorbit/types"
)

// ErrNoFreshArticle means every candidate was a duplicate or too short
var ErrNoFreshArticle = errors.New("no fresh article found in any feed")

// DuplicateFunc reports whether an article was already published
type DuplicateFunc func(ctx context.Context, article *types.Article) (bool, error)

// Selector picks the next article to publish
type Selector struct {
	MinWords   int
	MaxEntries int
	rng        *rand.Rand
}

// NewSelector builds a selector with the configured word floor
func NewSelector(minWords int) *Selector {
	if minWords <= 0 {
		minWords = config.MinArticleWords
	}
	return &Selector{
		MinWords:   minWords,
		MaxEntries: config.MaxEntriesPerFeed,
		rng:        rand.New(rand.NewSource(rand.Int63())),
	}
}

// WeightedShuffle orders active feeds randomly, biased by priority
// (Efraimidis-Spirakis weighted sampling: key = u^(1/w), sorted descending).
func (s *Selector) WeightedShuffle(feeds []types.Feed) []types.Feed {
	type keyed struct {
		feed types.Feed
		key  float64
	}
	var candidates []keyed
	for _, f := range feeds {
		if !f.Active {
			continue
		}
		f.ClampPriority()
		candidates = append(candidates, keyed{
			feed: f,
			key:  math.Pow(s.rng.Float64(), 1.0/float64(f.Priority)),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].key > candidates[j].key })

	out := make([]types.Feed, len(candidates))
	for i, c := range candidates {
		out[i] = c.feed
	}
	return out
}

// PickArticle walks feeds in weighted order and returns the first entry
// that is not a duplicate and long enough to rewrite. Candidates within
// a feed are tried in random order so the newest story doesn't always win.
func (s *Selector) PickArticle(ctx context.Context, feeds []types.Feed, isDup DuplicateFunc) (*types.Article, error) {
	for _, feed := range s.WeightedShuffle(feeds) {
		articles, err := FetchFeed(ctx, feed, s.MaxEntries)
		if err != nil {
			log.Printf("⚠️ Feed %s unreachable: %v", feed.Name, err)
			continue
		}

		s.rng.Shuffle(len(articles), func(i, j int) {
			articles[i], articles[j] = articles[j], articles[i]
		})

		for _, article := range articles {
			if article.URL == "" || article.Title == "" {
				continue
			}

			dup, err := isDup(ctx, article)
			if err != nil {
				return nil, err
			}
			if dup {
				continue
			}

			if err := ExtractContent(article); err != nil {
				article.ExtractionError = err.Error()
				log.Printf("⚠️ Extraction failed for %s: %v", article.URL, err)
				continue
			}

			if wc := article.WordCount(); wc < s.MinWords {
				log.Printf("Skipping %q: %d words (< %d)", article.Title, wc, s.MinWords)
				continue
			}

			if feed.Language == "" {
				article.Language = article.DetectLanguage()
			}
			log.Printf("✅ Selected %q from %s (%d words)", article.Title, feed.Name, article.WordCount())
			return article, nil
		}
	}
	return nil, ErrNoFreshArticle
}

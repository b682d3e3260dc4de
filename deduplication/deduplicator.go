// Package deduplication decides whether a fetched article was already
// published. Three layers, cheapest first: a Redis bloom filter, the
// SQLite posted-URL history, and embedding similarity against recent
// articles.
package deduplication

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
	"unicode/utf8"

	"contentorbit/config"
	"contentorbit/store"
	"contentorbit/types"
)

// History is the slice of the store the deduplicator needs
type History interface {
	IsURLPosted(urlHash string) (bool, error)
	RecordPostedURL(urlHash, url, title string) error
	SaveVector(urlHash, title string, vector []float64) error
	RecentVectors(t time.Time) ([]store.StoredVector, error)
}

// BloomFilter is the probabilistic fast path; nil disables it
type BloomFilter interface {
	Exists(hash string) (bool, error)
	Add(hash string) error
}

// Result explains a dedup decision
type Result struct {
	IsDuplicate bool      `json:"is_duplicate"`
	Reason      string    `json:"reason,omitempty"` // bloom, url, similarity
	MatchingID  string    `json:"matching_id,omitempty"`
	Similarity  float64   `json:"similarity,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Deduplicator composes the three dedup layers
type Deduplicator struct {
	history    History
	bloom      BloomFilter
	embeddings EmbeddingsProvider
	threshold  float64
	window     time.Duration
}

// Option tweaks a Deduplicator
type Option func(*Deduplicator)

// WithBloom enables the Redis bloom fast path
func WithBloom(b BloomFilter) Option {
	return func(d *Deduplicator) { d.bloom = b }
}

// WithEmbeddings enables near-duplicate detection
func WithEmbeddings(p EmbeddingsProvider) Option {
	return func(d *Deduplicator) { d.embeddings = p }
}

// WithThreshold overrides the similarity cutoff
func WithThreshold(t float64) Option {
	return func(d *Deduplicator) { d.threshold = t }
}

// NewDeduplicator builds a deduplicator over the store. Bloom and
// embeddings are optional layers; the URL history always applies.
func NewDeduplicator(history History, opts ...Option) (*Deduplicator, error) {
	if history == nil {
		return nil, fmt.Errorf("history store cannot be nil")
	}
	d := &Deduplicator{
		history:   history,
		threshold: config.SimilarityThreshold,
		window:    config.DedupWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Check reports whether the article duplicates something already
// published. Bloom or embedding failures degrade to the layers that
// still work; only a history failure is fatal.
func (d *Deduplicator) Check(ctx context.Context, article *types.Article) (*Result, error) {
	if article == nil {
		return nil, fmt.Errorf("nil article")
	}
	checkedAt := time.Now()

	if d.bloom != nil {
		exists, err := d.bloom.Exists(HashURLTitle(article.URL, article.Title))
		if err != nil {
			log.Printf("⚠️ Bloom check failed, falling back to store: %v", err)
		} else if exists {
			// Probabilistic hit; confirm against the URL history so a
			// false positive can't silently drop a fresh article.
			posted, err := d.history.IsURLPosted(HashURL(article.URL))
			if err != nil {
				return nil, fmt.Errorf("failed to confirm bloom hit: %w", err)
			}
			if posted {
				return &Result{IsDuplicate: true, Reason: "bloom", CheckedAt: checkedAt}, nil
			}
		}
	}

	posted, err := d.history.IsURLPosted(HashURL(article.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to check posted urls: %w", err)
	}
	if posted {
		return &Result{IsDuplicate: true, Reason: "url", CheckedAt: checkedAt}, nil
	}

	if d.embeddings != nil {
		if res, err := d.checkSimilarity(ctx, article, checkedAt); err != nil {
			log.Printf("⚠️ Similarity check failed, accepting article: %v", err)
		} else if res != nil {
			return res, nil
		}
	}

	return &Result{IsDuplicate: false, CheckedAt: checkedAt}, nil
}

func (d *Deduplicator) checkSimilarity(ctx context.Context, article *types.Article, checkedAt time.Time) (*Result, error) {
	text := embeddingText(article)
	if text == "" {
		return nil, nil
	}

	vectors, err := d.embeddings.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	query := vectors[0]

	recent, err := d.history.RecentVectors(checkedAt.Add(-d.window))
	if err != nil {
		return nil, err
	}

	var best *Result
	for _, v := range recent {
		sim := cosineSimilarity(query, v.Vector)
		if sim < d.threshold {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &Result{
				IsDuplicate: true,
				Reason:      "similarity",
				MatchingID:  v.URLHash,
				Similarity:  sim,
				CheckedAt:   checkedAt,
			}
		}
	}
	if best != nil {
		log.Printf("🔄 Near-duplicate: %q matches %s at %.1f%%", article.Title, best.MatchingID, best.Similarity*100)
	}
	return best, nil
}

// Record marks the article as published in every layer
func (d *Deduplicator) Record(ctx context.Context, article *types.Article) error {
	urlHash := HashURL(article.URL)
	if err := d.history.RecordPostedURL(urlHash, article.URL, article.Title); err != nil {
		return fmt.Errorf("failed to record posted url: %w", err)
	}

	if d.bloom != nil {
		if err := d.bloom.Add(HashURLTitle(article.URL, article.Title)); err != nil {
			log.Printf("⚠️ Failed to add to bloom filter: %v", err)
		}
	}

	if d.embeddings != nil {
		text := embeddingText(article)
		if text != "" {
			vectors, err := d.embeddings.EmbedTexts(ctx, []string{text})
			if err != nil {
				log.Printf("⚠️ Failed to embed published article: %v", err)
			} else if len(vectors) > 0 {
				if err := d.history.SaveVector(urlHash, article.Title, vectors[0]); err != nil {
					log.Printf("⚠️ Failed to save article vector: %v", err)
				}
			}
		}
	}
	return nil
}

// embeddingText picks the densest short text for similarity matching.
// Title plus excerpt keeps the embedding call cheap while still
// distinguishing rewrites of the same story.
func embeddingText(article *types.Article) string {
	text := article.Title
	if article.Excerpt != "" {
		text += "\n" + article.Excerpt
	} else if article.Summary != "" {
		text += "\n" + article.Summary
	}
	// cap on a rune boundary so Arabic text never loses half a rune
	if len(text) > 2000 {
		n := 2000
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	return text
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

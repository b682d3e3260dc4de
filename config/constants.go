package config

import "time"

// Pipeline Constants
const (
	// MaxEntriesPerFeed caps how many entries of a single feed are
	// scanned when looking for a fresh article
	MaxEntriesPerFeed = 20

	// MinArticleWords is the default minimum word count for a source
	// article to be worth rewriting
	MinArticleWords = 200

	// ExtractorWorkers is the number of concurrent readability workers
	ExtractorWorkers = 5

	// ExtractorTimeout bounds a single full-content extraction
	ExtractorTimeout = 30 * time.Second
)

// Scheduling Constants
const (
	// DefaultPostingInterval is the wait between pipeline runs
	DefaultPostingInterval = 120 * time.Minute

	// MinPostingInterval is the floor enforced on configured intervals
	MinPostingInterval = 5 * time.Minute

	// DefaultMaxPostsPerDay caps publishes per calendar day
	DefaultMaxPostsPerDay = 7

	// DefaultActiveHoursStart / End bound the posting window (local hours)
	DefaultActiveHoursStart = 8
	DefaultActiveHoursEnd   = 23
)

// Deduplication Constants
const (
	// SimilarityThreshold above which two articles count as duplicates
	SimilarityThreshold = 0.95

	// DedupWindow is how far back near-duplicate search looks
	DedupWindow = 24 * time.Hour

	// BloomCapacity is the expected item count for the Redis bloom filter
	BloomCapacity = 100000

	// BloomErrorRate is the accepted false-positive rate
	BloomErrorRate = 0.001
)

// Publishing Constants
const (
	// TelegramMaxText is the Bot API sendMessage limit
	TelegramMaxText = 4096

	// TelegramMaxCaption is the Bot API photo caption limit
	TelegramMaxCaption = 1024

	// DevtoMaxTags is the Dev.to per-article tag limit
	DevtoMaxTags = 4

	// PublishRetries is the attempt count for retryable publish errors
	PublishRetries = 3

	// PublishBackoff is the base delay between publish retries
	PublishBackoff = 2 * time.Second
)

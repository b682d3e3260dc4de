package types

import "time"

// Platform identifies a publishing destination
type Platform string

const (
	PlatformBlogger  Platform = "blogger"
	PlatformDevto    Platform = "devto"
	PlatformTelegram Platform = "telegram"
	PlatformFacebook Platform = "facebook"
)

// PostStatus tracks a post through the pipeline
type PostStatus string

const (
	StatusPending    PostStatus = "pending"
	StatusProcessing PostStatus = "processing"
	StatusPublished  PostStatus = "published"
	StatusPartial    PostStatus = "partial"
	StatusFailed     PostStatus = "failed"
	StatusSkipped    PostStatus = "skipped"
)

// GeneratedContent holds every artifact produced by the AI layer for
// one source article. Social fields are shared between Telegram and
// Facebook; platform-specific bodies are generated separately.
type GeneratedContent struct {
	BloggerTitle    string   `json:"blogger_title"`
	BloggerHTML     string   `json:"blogger_html"`
	MetaDescription string   `json:"meta_description,omitempty"`
	DevtoTitle      string   `json:"devto_title,omitempty"`
	DevtoMarkdown   string   `json:"devto_markdown,omitempty"`
	DevtoTags       []string `json:"devto_tags,omitempty"`
	SocialTitle     string   `json:"social_title,omitempty"`
	SocialSummary   string   `json:"social_summary,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// PublishedPost is the persistent record of one pipeline run that
// reached at least one platform.
type PublishedPost struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	SourceURL         string     `json:"source_url"`
	SourceFeed        string     `json:"source_feed,omitempty"`
	Language          string     `json:"language,omitempty"`
	BloggerURL        string     `json:"blogger_url,omitempty"`
	BloggerPostID     string     `json:"blogger_post_id,omitempty"`
	DevtoURL          string     `json:"devto_url,omitempty"`
	DevtoID           int64      `json:"devto_id,omitempty"`
	TelegramMessageID int64      `json:"telegram_message_id,omitempty"`
	FacebookPostID    string     `json:"facebook_post_id,omitempty"`
	Platforms         []Platform `json:"platforms"`
	Status            PostStatus `json:"status"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	ProcessingSeconds float64    `json:"processing_seconds,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// QueueItem is a pre-fetched article waiting its publishing slot
type QueueItem struct {
	ID           string     `json:"id"`
	ArticleURL   string     `json:"article_url"`
	Title        string     `json:"title"`
	SourceFeed   string     `json:"source_feed,omitempty"`
	Priority     int        `json:"priority"`
	Status       PostStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// LogEntry is one structured event persisted for the dashboard
type LogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // info, warning, error
	Component string    `json:"component"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"` // JSON blob
}

// Stats is the dashboard counters snapshot
type Stats struct {
	PostsToday     int        `json:"posts_today"`
	PostsThisWeek  int        `json:"posts_this_week"`
	PostsThisMonth int        `json:"posts_this_month"`
	TotalPosts     int        `json:"total_posts"`
	ErrorsToday    int        `json:"errors_today"`
	ErrorsThisWeek int        `json:"errors_this_week"`
	QueueSize      int        `json:"queue_size"`
	LastPostAt     *time.Time `json:"last_post_at,omitempty"`
	LastErrorAt    *time.Time `json:"last_error_at,omitempty"`
	Running        bool       `json:"running"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
}

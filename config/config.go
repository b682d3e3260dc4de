package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"contentorbit/types"
)

// BrandConfig is the identity injected into every prompt
type BrandConfig struct {
	Name            string `json:"name"`
	Voice           string `json:"voice"`
	Website         string `json:"website,omitempty"`
	PrimaryLanguage string `json:"primary_language"`
}

// TelegramConfig holds Bot API credentials and targets
type TelegramConfig struct {
	BotToken     string  `json:"bot_token"`
	ChannelID    string  `json:"channel_id"`
	ChannelURL   string  `json:"channel_url,omitempty"`
	AdminChatIDs []int64 `json:"admin_chat_ids,omitempty"`
}

// BloggerConfig holds the OAuth2 refresh-token credentials
type BloggerConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	BlogID       string `json:"blog_id"`
	BlogURL      string `json:"blog_url,omitempty"`
}

// DevtoConfig holds the Dev.to API key and optional organization
type DevtoConfig struct {
	APIKey       string `json:"api_key"`
	Organization string `json:"organization,omitempty"`
	ProfileURL   string `json:"profile_url,omitempty"`
}

// FacebookConfig holds Graph API page credentials
type FacebookConfig struct {
	PageID          string `json:"page_id"`
	PageAccessToken string `json:"page_access_token"`
	PageURL         string `json:"page_url,omitempty"`
}

// CohereConfig holds the LLM credentials and generation knobs
type CohereConfig struct {
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// RedisConfig points at the bloom-filter Redis instance
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db"`
}

// KafkaConfig wires the optional event stream and remote commands
type KafkaConfig struct {
	Brokers       []string `json:"brokers,omitempty"`
	EventsTopic   string   `json:"events_topic"`
	CommandsTopic string   `json:"commands_topic"`
	GroupID       string   `json:"group_id"`
}

// S3Config wires the optional published-post archive
type S3Config struct {
	Bucket  string `json:"bucket,omitempty"`
	Region  string `json:"region,omitempty"`
	Profile string `json:"profile,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
}

// Prompts are the operator-editable generation templates. Supported
// placeholders: {topic}, {source_summary}, {article_url}.
type Prompts struct {
	BloggerArticle string `json:"blogger_article"`
	DevtoArticle   string `json:"devto_article"`
	SocialTitle    string `json:"social_title"`
	SocialSummary  string `json:"social_summary"`
	FacebookPost   string `json:"facebook_post"`
}

// Schedule controls when the pipeline is allowed to run
type Schedule struct {
	PostingIntervalMinutes int    `json:"posting_interval_minutes"`
	ActiveHoursStart       int    `json:"active_hours_start"`
	ActiveHoursEnd         int    `json:"active_hours_end"`
	Timezone               string `json:"timezone"`
	MaxPostsPerDay         int    `json:"max_posts_per_day"`
	EnableBlogger          bool   `json:"enable_blogger"`
	EnableDevto            bool   `json:"enable_devto"`
	EnableTelegram         bool   `json:"enable_telegram"`
	EnableFacebook         bool   `json:"enable_facebook"`
}

// System holds behavior flags that don't belong to one platform
type System struct {
	MinArticleWords        int    `json:"min_article_words"`
	EnableDevtoForTechOnly bool   `json:"enable_devto_for_tech_only"`
	FallbackOnBloggerFail  bool   `json:"fallback_on_blogger_fail"`
	DashboardPassword      string `json:"dashboard_password"`
	DatabasePath           string `json:"database_path"`
	ListenAddr             string `json:"listen_addr"`
}

// AppConfig is the whole persisted configuration
type AppConfig struct {
	Brand     BrandConfig    `json:"brand"`
	Telegram  TelegramConfig `json:"telegram"`
	Blogger   BloggerConfig  `json:"blogger"`
	Devto     DevtoConfig    `json:"devto"`
	Facebook  FacebookConfig `json:"facebook"`
	Cohere    CohereConfig   `json:"cohere"`
	Redis     RedisConfig    `json:"redis"`
	Kafka     KafkaConfig    `json:"kafka"`
	S3        S3Config       `json:"s3"`
	Prompts   Prompts        `json:"prompts"`
	Schedule  Schedule       `json:"schedule"`
	System    System         `json:"system"`
	Version   int            `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Default returns a config with sane defaults and empty credentials
func Default() *AppConfig {
	return &AppConfig{
		Brand: BrandConfig{
			Name:            "ContentOrbit",
			Voice:           "clear, friendly and authoritative",
			PrimaryLanguage: "ar",
		},
		Cohere: CohereConfig{
			Model:       "command-r-plus",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			EventsTopic:   "contentorbit.events",
			CommandsTopic: "contentorbit.commands",
			GroupID:       "contentorbit",
		},
		Prompts:  DefaultPrompts(),
		Schedule: DefaultSchedule(),
		System: System{
			MinArticleWords:        MinArticleWords,
			EnableDevtoForTechOnly: true,
			FallbackOnBloggerFail:  true,
			DatabasePath:           "contentorbit.db",
			ListenAddr:             ":8090",
		},
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}
}

// DefaultSchedule mirrors the documented posting policy
func DefaultSchedule() Schedule {
	return Schedule{
		PostingIntervalMinutes: int(DefaultPostingInterval.Minutes()),
		ActiveHoursStart:       DefaultActiveHoursStart,
		ActiveHoursEnd:         DefaultActiveHoursEnd,
		Timezone:               "Africa/Cairo",
		MaxPostsPerDay:         DefaultMaxPostsPerDay,
		EnableBlogger:          true,
		EnableDevto:            true,
		EnableTelegram:         true,
		EnableFacebook:         true,
	}
}

// DefaultPrompts are starting templates the operator edits from the dashboard
func DefaultPrompts() Prompts {
	return Prompts{
		BloggerArticle: "Write a complete, original blog article about: {topic}. " +
			"Base it on this summary: {source_summary}. Source: {article_url}. " +
			"Write in HTML using <h2> section headings and <p> paragraphs. " +
			"Do not copy the source; rewrite with added insight.",
		DevtoArticle: "Write an original technical article in English Markdown about: {topic}. " +
			"Base it on this summary: {source_summary}. " +
			"Start with a single # title line. Keep it practical and code-aware.",
		SocialTitle: "Write one short, catchy headline (max 90 characters, no links, " +
			"no quotes) for a social post about: {topic}.",
		SocialSummary: "Write a 2-3 sentence teaser (no links, no hashtags) for a " +
			"social post about: {topic}. Base it on: {source_summary}.",
		FacebookPost: "Write a short storytelling Facebook post about: {topic}. " +
			"Open with a hook, end with a question to the audience. No links in the body.",
	}
}

// Load reads the JSON config at path, creating it with defaults when
// missing, then fills empty credential fields from the environment.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.hydrateFromEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the config as indented JSON
func (c *AppConfig) Save(path string) error {
	c.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// hydrateFromEnv fills only fields the file left empty, so the file
// always wins over the environment.
func (c *AppConfig) hydrateFromEnv() {
	fill(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	fill(&c.Telegram.ChannelID, "TELEGRAM_CHANNEL_ID")
	fill(&c.Blogger.ClientID, "BLOGGER_CLIENT_ID")
	fill(&c.Blogger.ClientSecret, "BLOGGER_CLIENT_SECRET")
	fill(&c.Blogger.RefreshToken, "BLOGGER_REFRESH_TOKEN")
	fill(&c.Blogger.BlogID, "BLOGGER_BLOG_ID")
	fill(&c.Devto.APIKey, "DEVTO_API_KEY")
	fill(&c.Facebook.PageID, "FACEBOOK_PAGE_ID")
	fill(&c.Facebook.PageAccessToken, "FACEBOOK_PAGE_ACCESS_TOKEN")
	fill(&c.Cohere.APIKey, "COHERE_API_KEY")
	fill(&c.Redis.Addr, "REDIS_ADDR")
	fill(&c.Redis.Password, "REDIS_PASSWORD")
	fill(&c.S3.Bucket, "S3_BUCKET")
	fill(&c.S3.Region, "AWS_REGION")
	fill(&c.System.DashboardPassword, "DASHBOARD_PASSWORD")

	if len(c.Kafka.Brokers) == 0 {
		if v := os.Getenv("KAFKA_BROKERS"); v != "" {
			c.Kafka.Brokers = strings.Split(v, ",")
		}
	}
	if len(c.Telegram.AdminChatIDs) == 0 {
		for _, part := range strings.Split(os.Getenv("TELEGRAM_ADMIN_CHAT_IDS"), ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				c.Telegram.AdminChatIDs = append(c.Telegram.AdminChatIDs, id)
			}
		}
	}
}

func fill(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// normalize clamps values that would break the scheduler or prompts
func (c *AppConfig) normalize() {
	if c.Schedule.PostingIntervalMinutes < int(MinPostingInterval.Minutes()) {
		c.Schedule.PostingIntervalMinutes = int(MinPostingInterval.Minutes())
	}
	if c.Schedule.MaxPostsPerDay < 1 {
		c.Schedule.MaxPostsPerDay = DefaultMaxPostsPerDay
	}
	if c.System.MinArticleWords <= 0 {
		c.System.MinArticleWords = MinArticleWords
	}
	if c.Cohere.Model == "" {
		c.Cohere.Model = "command-r-plus"
	}
	if c.Cohere.MaxTokens <= 0 {
		c.Cohere.MaxTokens = 2048
	}
}

// Interval returns the posting interval as a duration
func (s Schedule) Interval() time.Duration {
	iv := time.Duration(s.PostingIntervalMinutes) * time.Minute
	if iv < MinPostingInterval {
		iv = MinPostingInterval
	}
	return iv
}

// Location resolves the configured timezone, falling back to UTC
func (s Schedule) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InActiveHours reports whether t falls inside the posting window.
// Both bounds are inclusive, so 8-23 keeps posting through 23:59.
// Overnight windows (e.g. 22 -> 6) wrap around midnight.
func (s Schedule) InActiveHours(t time.Time) bool {
	h := t.In(s.Location()).Hour()
	start, end := s.ActiveHoursStart, s.ActiveHoursEnd
	if start <= end {
		return h >= start && h <= end
	}
	return h >= start || h <= end
}

// Enabled reports whether a platform is switched on in the schedule
func (s Schedule) Enabled(p types.Platform) bool {
	switch p {
	case types.PlatformBlogger:
		return s.EnableBlogger
	case types.PlatformDevto:
		return s.EnableDevto
	case types.PlatformTelegram:
		return s.EnableTelegram
	case types.PlatformFacebook:
		return s.EnableFacebook
	}
	return false
}

// IsConfigured reports whether a section has the credentials it needs
func (c *AppConfig) IsConfigured(section string) bool {
	switch section {
	case "telegram":
		return c.Telegram.BotToken != "" && c.Telegram.ChannelID != ""
	case "blogger":
		return c.Blogger.ClientID != "" && c.Blogger.ClientSecret != "" &&
			c.Blogger.RefreshToken != "" && c.Blogger.BlogID != ""
	case "devto":
		return c.Devto.APIKey != ""
	case "facebook":
		return c.Facebook.PageID != "" && c.Facebook.PageAccessToken != ""
	case "cohere":
		return c.Cohere.APIKey != ""
	case "redis":
		return c.Redis.Addr != ""
	case "kafka":
		return len(c.Kafka.Brokers) > 0
	case "s3":
		return c.S3.Bucket != ""
	}
	return false
}

// Status summarizes which sections are ready, for the dashboard
func (c *AppConfig) Status() map[string]bool {
	out := make(map[string]bool)
	for _, s := range []string{"telegram", "blogger", "devto", "facebook", "cohere", "redis", "kafka", "s3"} {
		out[s] = c.IsConfigured(s)
	}
	return out
}

// Redacted returns a copy safe to return from the API: secrets are
// masked but their presence is still visible.
func (c *AppConfig) Redacted() AppConfig {
	out := *c
	out.Telegram.BotToken = mask(out.Telegram.BotToken)
	out.Blogger.ClientSecret = mask(out.Blogger.ClientSecret)
	out.Blogger.RefreshToken = mask(out.Blogger.RefreshToken)
	out.Devto.APIKey = mask(out.Devto.APIKey)
	out.Facebook.PageAccessToken = mask(out.Facebook.PageAccessToken)
	out.Cohere.APIKey = mask(out.Cohere.APIKey)
	out.Redis.Password = mask(out.Redis.Password)
	out.System.DashboardPassword = mask(out.System.DashboardPassword)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

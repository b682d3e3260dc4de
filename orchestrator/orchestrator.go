// Package orchestrator runs the publishing pipeline: pick a fresh
// article, generate content, then fan out hub-first (Blogger, Dev.to)
// and spokes last (Telegram, Facebook).
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"contentorbit/config"
	"contentorbit/cta"
	"contentorbit/deduplication"
	"contentorbit/publisher"
	"contentorbit/rssfeeds"
	"contentorbit/types"
)

// ContentEngine generates the per-platform artifacts
type ContentEngine interface {
	BloggerArticle(ctx context.Context, a *types.Article) (title, html string, err error)
	DevtoArticle(ctx context.Context, a *types.Article) (title, markdown string, tags []string, err error)
	SocialTitle(ctx context.Context, a *types.Article) (string, error)
	SocialSummary(ctx context.Context, a *types.Article) (string, error)
	FacebookPost(ctx context.Context, a *types.Article) (string, error)
}

// BloggerPublisher is the hub publisher surface the pipeline needs
type BloggerPublisher interface {
	Publish(ctx context.Context, post publisher.BloggerPost) (url, id string, err error)
	TestConnection(ctx context.Context) (string, error)
}

// DevtoPublisher is the English mirror surface
type DevtoPublisher interface {
	Publish(ctx context.Context, a publisher.DevtoArticle) (url string, id int64, err error)
	TestConnection(ctx context.Context) (string, error)
}

// TelegramPublisher is the channel spoke surface
type TelegramPublisher interface {
	PublishPost(ctx context.Context, text, photoURL string) (int64, error)
	AlertAdmins(ctx context.Context, text string)
	TestConnection(ctx context.Context) (string, error)
}

// FacebookPublisher is the page spoke surface
type FacebookPublisher interface {
	PublishLink(ctx context.Context, message, link string) (string, error)
	PublishPhoto(ctx context.Context, photoURL, caption string) (string, error)
	TestConnection(ctx context.Context) (string, error)
}

// ArticleSource picks the next fresh article from the feed list.
// Satisfied by *rssfeeds.Selector.
type ArticleSource interface {
	PickArticle(ctx context.Context, feeds []types.Feed, isDup rssfeeds.DuplicateFunc) (*types.Article, error)
}

// Deduper guards against republishing the same story
type Deduper interface {
	Check(ctx context.Context, a *types.Article) (*deduplication.Result, error)
	Record(ctx context.Context, a *types.Article) error
}

// ContentQueue feeds operator-queued articles ahead of feed picks
type ContentQueue interface {
	NextQueued() (*types.QueueItem, error)
	MarkQueueItem(id string, status types.PostStatus) error
}

// Recorder is the slice of the store the pipeline writes to
type Recorder interface {
	SavePost(p *types.PublishedPost) error
	GetPost(id string) (*types.PublishedPost, error)
	AppendLog(level, component, message, details string) error
}

// Archiver keeps a copy of published posts in object storage
type Archiver interface {
	ArchivePost(ctx context.Context, post *types.PublishedPost, content *types.GeneratedContent) error
}

// Events streams pipeline results to the message bus
type Events interface {
	PublishResult(ctx context.Context, result *PipelineResult) error
}

// PipelineResult is the outcome of one run
type PipelineResult struct {
	Success           bool             `json:"success"`
	PostID            string           `json:"post_id,omitempty"`
	ArticleTitle      string           `json:"article_title,omitempty"`
	ArticleURL        string           `json:"article_url,omitempty"`
	SourceFeed        string           `json:"source_feed,omitempty"`
	BloggerURL        string           `json:"blogger_url,omitempty"`
	BloggerPostID     string           `json:"blogger_post_id,omitempty"`
	DevtoURL          string           `json:"devto_url,omitempty"`
	DevtoID           int64            `json:"devto_id,omitempty"`
	TelegramMessageID int64            `json:"telegram_message_id,omitempty"`
	FacebookPostID    string           `json:"facebook_post_id,omitempty"`
	Platforms         []types.Platform `json:"platforms"`
	StepsCompleted    []string         `json:"steps_completed"`
	Error             string           `json:"error,omitempty"`
	ProcessingTime    time.Duration    `json:"processing_time"`
}

// ErrAlreadyRunning is returned when a run overlaps another
var ErrAlreadyRunning = errors.New("pipeline already running")

// Orchestrator wires the whole pipeline. A nil publisher means the
// platform is unconfigured and is skipped. Archive and Events are
// optional too.
type Orchestrator struct {
	Config   func() *config.AppConfig
	Feeds    func() []types.Feed
	Selector ArticleSource
	Dedup    Deduper
	Content  ContentEngine
	Blogger  BloggerPublisher
	Devto    DevtoPublisher
	Telegram TelegramPublisher
	Facebook FacebookPublisher
	DB       Recorder
	Queue    ContentQueue
	Archive  Archiver
	Events   Events

	mu sync.Mutex
	// queuedID tracks the queue item feeding the current run, if any
	queuedID string
}

// RunPipeline executes one full publishing cycle
func (o *Orchestrator) RunPipeline(ctx context.Context) (*PipelineResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer o.mu.Unlock()

	start := time.Now()
	result := &PipelineResult{}
	cfg := o.Config()
	o.queuedID = ""
	log.Println("🔄 Pipeline run starting")

	article, err := o.pickArticle(ctx)
	if err != nil {
		result.Error = err.Error()
		result.ProcessingTime = time.Since(start)
		o.logEvent("warning", "pipeline", "no article selected", map[string]any{"error": err.Error()})
		return result, err
	}
	result.ArticleTitle = article.Title
	result.ArticleURL = article.URL
	result.SourceFeed = article.SourceFeed
	result.StepsCompleted = append(result.StepsCompleted, "fetch")
	log.Printf("📰 Selected %q from %s", article.Title, article.SourceFeed)

	rssfeeds.ResolveImage(ctx, article)
	if article.ImageURL != "" {
		result.StepsCompleted = append(result.StepsCompleted, "image")
	}

	links := cta.FromConfig(cfg)
	links.OriginalURL = article.URL
	generated := &types.GeneratedContent{}

	// Hub first: everything downstream links back to the Blogger post.
	if cfg.Schedule.EnableBlogger && o.Blogger != nil {
		if abort := o.publishBlogger(ctx, cfg, article, &links, generated, result); abort {
			o.finishRun(ctx, cfg, article, generated, result, start)
			return result, errors.New(result.Error)
		}
	}

	// English mirror, canonical pointing at the hub.
	if cfg.Schedule.EnableDevto && o.Devto != nil && o.devtoEligible(cfg, article) {
		o.publishDevto(ctx, article, &links, generated, result)
	}

	// Both spokes share the social title and summary. When generation
	// fails the spokes are skipped entirely: raw source-language text
	// never reaches the channel or the page.
	socialOK := o.generateSocial(ctx, article, generated)

	if cfg.Schedule.EnableTelegram && o.Telegram != nil && socialOK {
		o.publishTelegram(ctx, article, links, generated, result)
	}

	if cfg.Schedule.EnableFacebook && o.Facebook != nil && socialOK {
		o.publishFacebook(ctx, article, links, generated, result)
	}

	result.Success = len(result.Platforms) > 0
	if !result.Success && result.Error == "" {
		result.Error = "no platform accepted the post"
	}

	o.finishRun(ctx, cfg, article, generated, result, start)
	return result, nil
}

// pickArticle prefers operator-queued items, then falls back to the
// weighted feed selection.
func (o *Orchestrator) pickArticle(ctx context.Context) (*types.Article, error) {
	if o.Queue != nil {
		if article := o.nextQueuedArticle(ctx); article != nil {
			return article, nil
		}
	}

	isDup := func(ctx context.Context, a *types.Article) (bool, error) {
		res, err := o.Dedup.Check(ctx, a)
		if err != nil {
			return false, err
		}
		return res.IsDuplicate, nil
	}
	return o.Selector.PickArticle(ctx, o.Feeds(), isDup)
}

// nextQueuedArticle pops the queue and prepares the item for the
// pipeline. Failed extractions stay pending (the attempt counter
// eventually retires them); duplicates are skipped outright.
func (o *Orchestrator) nextQueuedArticle(ctx context.Context) *types.Article {
	item, err := o.Queue.NextQueued()
	if err != nil {
		log.Printf("⚠️ Queue read failed: %v", err)
		return nil
	}
	if item == nil {
		return nil
	}

	article := &types.Article{
		ID:         types.GenerateID(item.ArticleURL),
		Title:      item.Title,
		URL:        item.ArticleURL,
		SourceFeed: item.SourceFeed,
		FetchedAt:  time.Now().UTC(),
	}
	if err := rssfeeds.ExtractContent(article); err != nil {
		log.Printf("⚠️ Queued item %s failed extraction: %v", item.ID, err)
		_ = o.Queue.MarkQueueItem(item.ID, types.StatusPending)
		return nil
	}
	if article.Title == "" {
		article.Title = item.Title
	}
	article.Language = article.DetectLanguage()

	if res, err := o.Dedup.Check(ctx, article); err == nil && res.IsDuplicate {
		log.Printf("🔄 Queued item %s already published, skipping", item.ID)
		_ = o.Queue.MarkQueueItem(item.ID, types.StatusSkipped)
		return nil
	}

	_ = o.Queue.MarkQueueItem(item.ID, types.StatusProcessing)
	o.queuedID = item.ID
	return article
}

// publishBlogger reports whether the pipeline must abort
func (o *Orchestrator) publishBlogger(ctx context.Context, cfg *config.AppConfig, article *types.Article,
	links *cta.PlatformLinks, generated *types.GeneratedContent, result *PipelineResult) bool {

	title, body, err := o.Content.BloggerArticle(ctx, article)
	if err == nil {
		body += cta.BloggerFooter(*links)
		generated.BloggerTitle, generated.BloggerHTML = title, body

		var url, id string
		url, id, err = o.Blogger.Publish(ctx, publisher.BloggerPost{
			Title:  title,
			HTML:   body,
			Labels: postLabels(article),
		})
		if err == nil {
			links.BloggerPost = url
			result.BloggerURL = url
			result.BloggerPostID = id
			result.Platforms = append(result.Platforms, types.PlatformBlogger)
			result.StepsCompleted = append(result.StepsCompleted, "blogger")
		}
	}

	if err != nil {
		o.logEvent("error", "blogger", "hub publish failed", map[string]any{
			"article": article.URL, "error": err.Error(),
		})
		if !cfg.System.FallbackOnBloggerFail {
			result.Error = fmt.Sprintf("blogger failed and fallback is disabled: %v", err)
			return true
		}
		log.Printf("⚠️ Blogger failed, falling back to the original URL: %v", err)
	}
	return false
}

func (o *Orchestrator) devtoEligible(cfg *config.AppConfig, article *types.Article) bool {
	if !cfg.System.EnableDevtoForTechOnly {
		return true
	}
	for _, f := range o.Feeds() {
		if f.Name == article.SourceFeed {
			return f.Category.IsTech()
		}
	}
	return false
}

func (o *Orchestrator) publishDevto(ctx context.Context, article *types.Article,
	links *cta.PlatformLinks, generated *types.GeneratedContent, result *PipelineResult) {

	title, markdown, tags, err := o.Content.DevtoArticle(ctx, article)
	if err == nil {
		markdown += cta.DevtoFooter(*links)
		generated.DevtoTitle, generated.DevtoMarkdown, generated.DevtoTags = title, markdown, tags

		var url string
		var id int64
		url, id, err = o.Devto.Publish(ctx, publisher.DevtoArticle{
			Title:        title,
			BodyMarkdown: markdown,
			Tags:         tags,
			CanonicalURL: links.BloggerPost,
			CoverImage:   article.ImageURL,
			Published:    true,
		})
		if err == nil {
			links.DevtoPost = url
			result.DevtoURL = url
			result.DevtoID = id
			result.Platforms = append(result.Platforms, types.PlatformDevto)
			result.StepsCompleted = append(result.StepsCompleted, "devto")
		}
	}
	if err != nil {
		o.logEvent("error", "devto", "mirror publish failed", map[string]any{
			"article": article.URL, "error": err.Error(),
		})
	}
}

func (o *Orchestrator) generateSocial(ctx context.Context, article *types.Article, generated *types.GeneratedContent) bool {
	title, err := o.Content.SocialTitle(ctx, article)
	if err != nil {
		o.logEvent("warning", "pipeline", "social title generation failed, skipping spokes",
			map[string]any{"article": article.URL, "error": err.Error()})
		return false
	}
	summary, err := o.Content.SocialSummary(ctx, article)
	if err != nil {
		o.logEvent("warning", "pipeline", "social summary generation failed, skipping spokes",
			map[string]any{"article": article.URL, "error": err.Error()})
		return false
	}
	generated.SocialTitle, generated.SocialSummary = title, summary
	generated.Tags = postLabels(article)
	return true
}

func (o *Orchestrator) publishTelegram(ctx context.Context, article *types.Article,
	links cta.PlatformLinks, generated *types.GeneratedContent, result *PipelineResult) {

	msg := cta.TelegramMessage(generated.SocialTitle, generated.SocialSummary, links, generated.Tags)
	id, err := o.Telegram.PublishPost(ctx, msg, article.ImageURL)
	if err != nil {
		o.logEvent("error", "telegram", "channel publish failed", map[string]any{
			"article": article.URL, "error": err.Error(),
		})
		return
	}
	result.TelegramMessageID = id
	result.Platforms = append(result.Platforms, types.PlatformTelegram)
	result.StepsCompleted = append(result.StepsCompleted, "telegram")
}

func (o *Orchestrator) publishFacebook(ctx context.Context, article *types.Article,
	links cta.PlatformLinks, generated *types.GeneratedContent, result *PipelineResult) {

	body, err := o.Content.FacebookPost(ctx, article)
	if err != nil {
		// the storytelling body is a nice-to-have, the teaser still works
		log.Printf("⚠️ Facebook body generation failed, using social summary: %v", err)
		body = generated.SocialTitle + "\n\n" + generated.SocialSummary
	}

	message, link := cta.FacebookMessage(body, links)
	var postID string
	if link == "" && article.ImageURL != "" {
		postID, err = o.Facebook.PublishPhoto(ctx, article.ImageURL, message)
	} else {
		postID, err = o.Facebook.PublishLink(ctx, message, link)
	}
	if err != nil {
		o.logEvent("error", "facebook", "page publish failed", map[string]any{
			"article": article.URL, "error": err.Error(),
		})
		return
	}
	result.FacebookPostID = postID
	result.Platforms = append(result.Platforms, types.PlatformFacebook)
	result.StepsCompleted = append(result.StepsCompleted, "facebook")
}

// finishRun persists the outcome, records dedup state and emits events
func (o *Orchestrator) finishRun(ctx context.Context, cfg *config.AppConfig, article *types.Article,
	generated *types.GeneratedContent, result *PipelineResult, start time.Time) {

	result.ProcessingTime = time.Since(start)

	status := types.StatusFailed
	if result.Success {
		status = types.StatusPublished
		if len(result.Platforms) < enabledPlatformCount(cfg.Schedule) {
			status = types.StatusPartial
		}
	}

	post := &types.PublishedPost{
		ID:                uuid.NewString(),
		Title:             firstNonEmpty(generated.BloggerTitle, generated.SocialTitle, article.Title),
		SourceURL:         article.URL,
		SourceFeed:        article.SourceFeed,
		Language:          article.Language,
		BloggerURL:        result.BloggerURL,
		BloggerPostID:     result.BloggerPostID,
		DevtoURL:          result.DevtoURL,
		DevtoID:           result.DevtoID,
		TelegramMessageID: result.TelegramMessageID,
		FacebookPostID:    result.FacebookPostID,
		Platforms:         result.Platforms,
		Status:            status,
		ErrorMessage:      result.Error,
		ProcessingSeconds: result.ProcessingTime.Seconds(),
		CreatedAt:         time.Now().UTC(),
	}
	result.PostID = post.ID

	if err := o.DB.SavePost(post); err != nil {
		log.Printf("❌ Failed to save post record: %v", err)
	}

	if o.Queue != nil && o.queuedID != "" {
		itemStatus := types.StatusPublished
		if !result.Success {
			// back to pending so the next cycle retries it
			itemStatus = types.StatusPending
		}
		if err := o.Queue.MarkQueueItem(o.queuedID, itemStatus); err != nil {
			log.Printf("⚠️ Failed to mark queue item %s: %v", o.queuedID, err)
		}
	}

	if result.Success {
		if err := o.Dedup.Record(ctx, article); err != nil {
			log.Printf("❌ Failed to record dedup state: %v", err)
		}
		o.logEvent("info", "pipeline", "run published", map[string]any{
			"post_id": post.ID, "platforms": result.Platforms, "steps": result.StepsCompleted,
		})
	} else {
		o.logEvent("error", "pipeline", "run failed", map[string]any{
			"article": article.URL, "error": result.Error,
		})
		if o.Telegram != nil {
			o.Telegram.AlertAdmins(ctx, fmt.Sprintf("Pipeline failed for %q: %s", article.Title, result.Error))
		}
	}

	if o.Archive != nil && result.Success {
		if err := o.Archive.ArchivePost(ctx, post, generated); err != nil {
			log.Printf("⚠️ Post archive failed: %v", err)
		}
	}
	if o.Events != nil {
		if err := o.Events.PublishResult(ctx, result); err != nil {
			log.Printf("⚠️ Event publish failed: %v", err)
		}
	}

	log.Printf("✅ Pipeline finished in %s: success=%v platforms=%v",
		result.ProcessingTime.Round(time.Millisecond), result.Success, result.Platforms)
}

func (o *Orchestrator) logEvent(level, component, message string, details map[string]any) {
	var detailsJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}
	if err := o.DB.AppendLog(level, component, message, detailsJSON); err != nil {
		log.Printf("❌ Failed to append log: %v", err)
	}
}

func enabledPlatformCount(s config.Schedule) int {
	n := 0
	for _, p := range []types.Platform{types.PlatformBlogger, types.PlatformDevto, types.PlatformTelegram, types.PlatformFacebook} {
		if s.Enabled(p) {
			n++
		}
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// postLabels picks up to four feed categories as post labels
func postLabels(article *types.Article) []string {
	if len(article.Categories) > 4 {
		return article.Categories[:4]
	}
	return article.Categories
}
